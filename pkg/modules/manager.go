package modules

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/rhino1998/clever/pkg/compiler"
	"github.com/rhino1998/clever/pkg/topological"
	"github.com/rhino1998/clever/pkg/value"
)

var (
	ErrUnknownModule   = errors.New("unknown module")
	ErrDuplicateModule = errors.New("module already registered")
	ErrModuleDisabled  = errors.New("module is disabled")
	ErrUnknownExport   = errors.New("module has no such export")
)

// Manager owns the set of available modules. It implements
// compiler.Importer and compiler.Resolver.
type Manager struct {
	logger *slog.Logger

	mu       sync.Mutex
	modules  map[string]*Module
	disabled map[string]struct{}
}

var (
	_ compiler.Importer = (*Manager)(nil)
	_ compiler.Resolver = (*Manager)(nil)
)

func NewManager(logger *slog.Logger, disabled ...string) *Manager {
	m := &Manager{
		logger:   logger,
		modules:  make(map[string]*Module),
		disabled: make(map[string]struct{}),
	}
	for _, name := range disabled {
		m.disabled[name] = struct{}{}
	}

	return m
}

func (m *Manager) Register(mods ...*Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mod := range mods {
		if _, ok := m.modules[mod.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateModule, mod.Name)
		}
		m.modules[mod.Name] = mod
	}

	return nil
}

func (m *Manager) Modules() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.modules))
	for name := range m.modules {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func (m *Manager) module(name string) (*Module, error) {
	mod, ok := m.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	if _, off := m.disabled[name]; off {
		return nil, fmt.Errorf("%w: %s", ErrModuleDisabled, name)
	}

	return mod, nil
}

// export names a single function or type selected from a module.
type export struct {
	mod  *Module
	name string
}

// resolve maps an import path to the modules it names. A path is a module
// name, a package prefix such as "std", or a module name followed by one
// exported name.
func (m *Manager) resolve(path string) ([]*Module, *export, error) {
	if _, ok := m.modules[path]; ok {
		mod, err := m.module(path)
		if err != nil {
			return nil, nil, err
		}
		return []*Module{mod}, nil, nil
	}

	var mods []*Module
	prefix := path + "."
	for name := range m.modules {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, off := m.disabled[name]; off {
			continue
		}
		mods = append(mods, m.modules[name])
	}
	if len(mods) > 0 {
		slices.SortFunc(mods, func(a, b *Module) int { return strings.Compare(a.Name, b.Name) })
		return mods, nil, nil
	}

	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownModule, path)
	}

	mod, err := m.module(path[:i])
	if err != nil {
		return nil, nil, err
	}

	name := path[i+1:]
	_, isFunc := mod.Function(name)
	_, isType := mod.Type(name)
	if !isFunc && !isType {
		return nil, nil, fmt.Errorf("%w: %s in %s", ErrUnknownExport, name, mod.Name)
	}

	return []*Module{mod}, &export{mod: mod, name: name}, nil
}

// initialize runs Init for mods and everything they require, dependencies
// first.
func (m *Manager) initialize(mods []*Module) error {
	closure := make(map[string]*Module)
	queue := slices.Clone(mods)
	for len(queue) > 0 {
		mod := queue[0]
		queue = queue[1:]
		if _, ok := closure[mod.Name]; ok {
			continue
		}
		closure[mod.Name] = mod

		for _, req := range mod.Requires {
			dep, err := m.module(req)
			if err != nil {
				return fmt.Errorf("%s requires %s: %w", mod.Name, req, err)
			}
			queue = append(queue, dep)
		}
	}

	all := make([]*Module, 0, len(closure))
	for _, mod := range closure {
		all = append(all, mod)
	}

	ordered, err := topological.SortFunc(all,
		func(mod *Module) string { return mod.Name },
		func(mod *Module) []*Module {
			deps := make([]*Module, 0, len(mod.Requires))
			for _, req := range mod.Requires {
				deps = append(deps, closure[req])
			}
			return deps
		},
	)
	if err != nil {
		return fmt.Errorf("failed to order modules: %w", err)
	}

	for _, mod := range ordered {
		if err := mod.init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", mod.Name, err)
		}
		m.logger.Debug("module ready", slog.String("module", mod.Name))
	}

	return nil
}

func (m *Manager) Import(c *compiler.Compiler, scope *compiler.Scope, path string, kind compiler.ImportKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mods, exp, err := m.resolve(path)
	if err != nil {
		return err
	}

	if err := m.initialize(mods); err != nil {
		return err
	}

	if exp != nil {
		if fn, ok := exp.mod.Function(exp.name); ok && kind.Functions() {
			c.LoadFunction(scope, exp.name, fn)
		}
		if t, ok := exp.mod.Type(exp.name); ok && kind.Types() {
			if _, err := c.LoadType(scope, exp.name, t); err != nil {
				return err
			}
		}
		return nil
	}

	for _, mod := range mods {
		if kind.Types() {
			for _, t := range mod.Types() {
				if _, err := c.LoadType(scope, t.Name(), t); err != nil {
					return fmt.Errorf("failed to load type %s from %s: %w", t.Name(), mod.Name, err)
				}
			}
		}
		if kind.Functions() {
			for _, name := range mod.Functions() {
				fn, _ := mod.Function(name)
				c.LoadFunction(scope, name, fn)
			}
		}
	}

	return nil
}

func (m *Manager) ResolveFunction(module, name string) (*value.Function, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mod, err := m.module(module)
	if err != nil {
		return nil, err
	}

	fn, ok := mod.Function(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrUnknownExport, name, module)
	}

	if err := m.initialize([]*Module{mod}); err != nil {
		return nil, err
	}

	return fn, nil
}

func (m *Manager) ResolveType(name string) (value.Type, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.modules))
	for modName := range m.modules {
		names = append(names, modName)
	}
	slices.Sort(names)

	for _, modName := range names {
		mod, err := m.module(modName)
		if err != nil {
			continue
		}
		if t, ok := mod.Type(name); ok {
			if err := m.initialize([]*Module{mod}); err != nil {
				return nil, err
			}
			return t, nil
		}
	}

	return nil, fmt.Errorf("%w: type %s", ErrUnknownExport, name)
}
