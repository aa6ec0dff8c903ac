package compiler

import (
	"errors"
	"fmt"
	"io"

	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/value"
)

// Program is a finalized compilation unit. Code is never mutated after
// Finalize; the pools belong to the program and are released by Close.
type Program struct {
	File      string
	Code      ir.Vector
	Values    *value.Pool
	Types     *value.TypePool
	Scopes    *ScopePool
	Functions []*value.Function
	Imports   []string
}

func (p *Program) Function(name string) (*value.Function, bool) {
	for _, fn := range p.Functions {
		if fn.Name == name || fn.QualifiedName() == name {
			return fn, true
		}
	}

	return nil, false
}

func (p *Program) Close() error {
	return errors.Join(p.Values.Close(), p.Types.Close())
}

func (p *Program) Dump(w io.Writer) error {
	if len(p.Imports) > 0 {
		if _, err := fmt.Fprintf(w, "imports:\n"); err != nil {
			return err
		}
		for _, imp := range p.Imports {
			if _, err := fmt.Fprintf(w, "  %s\n", imp); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "functions:\n"); err != nil {
		return err
	}
	for _, fn := range p.Functions {
		if fn.IsNative() {
			_, err := fmt.Fprintf(w, "  %s\n", fn)
			if err != nil {
				return err
			}
			continue
		}

		_, err := fmt.Fprintf(w, "  %s params=%v vars=%d\n", fn, fn.Params, len(fn.Vars))
		if err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "values: %d\nscopes: %d\ncode:\n", p.Values.Len(), p.Scopes.Len()); err != nil {
		return err
	}

	return p.Code.Dump(w)
}
