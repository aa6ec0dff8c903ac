package compiler

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/rhino1998/clever/pkg/value"
)

type ImportKind uint8

const (
	ImportAll ImportKind = iota
	ImportTypes
	ImportFunctions
)

func (k ImportKind) Types() bool {
	return k == ImportAll || k == ImportTypes
}

func (k ImportKind) Functions() bool {
	return k == ImportAll || k == ImportFunctions
}

func (k ImportKind) String() string {
	switch k {
	case ImportTypes:
		return "types"
	case ImportFunctions:
		return "functions"
	default:
		return "all"
	}
}

// Importer binds the exports of a module path into a scope through
// LoadFunction and LoadType.
type Importer interface {
	Import(c *Compiler, scope *Scope, path string, kind ImportKind) error
}

func (c *Compiler) Import(path string, kind ImportKind, loc Location) error {
	if err := c.check(); err != nil {
		return err
	}
	c.At(loc)

	if c.Config.Importer == nil {
		return c.fail(fmt.Errorf("%w %s: no module loader configured", ErrImport, path))
	}

	err := c.Config.Importer.Import(c, c.current, path, kind)
	if err != nil {
		return c.fail(fmt.Errorf("%w %s: %w", ErrImport, path, err))
	}

	if !slices.Contains(c.imports, path) {
		c.imports = append(c.imports, path)
	}

	c.logger.Debug("imported module", slog.String("path", path), slog.String("kind", kind.String()))

	return nil
}

// LoadFunction binds a native function into scope. Module bindings are global
// slots regardless of where the import appears.
func (c *Compiler) LoadFunction(scope *Scope, name string, fn *value.Function) value.ID {
	id := c.values.Insert(value.Func(fn), value.Global)
	scope.put(Symbol{Name: name, Value: id})

	if !slices.Contains(c.functions, fn) {
		c.functions = append(c.functions, fn)
	}

	return id
}

// LoadType registers t in the type pool and binds it into scope.
func (c *Compiler) LoadType(scope *Scope, name string, t value.Type) (value.ID, error) {
	if _, err := c.types.Register(t); err != nil {
		return value.None, err
	}

	id := c.values.Insert(value.TypeRef(t), value.Global)
	scope.put(Symbol{Name: name, Value: id})

	return id, nil
}
