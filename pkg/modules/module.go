// Package modules loads native modules into a compilation. A module is a
// named bundle of native functions and types; importing one binds its exports
// into a scope after the module and everything it requires is initialized.
package modules

import (
	"cmp"
	"maps"
	"slices"
	"sync"

	"github.com/rhino1998/clever/pkg/value"
)

type Module struct {
	Name     string
	Requires []string

	// Init runs once, before the module's exports are first bound.
	Init func() error

	functions map[string]*value.Function
	types     map[string]value.Type

	once    sync.Once
	initErr error
}

func New(name string, requires ...string) *Module {
	return &Module{
		Name:      name,
		Requires:  requires,
		functions: make(map[string]*value.Function),
		types:     make(map[string]value.Type),
	}
}

func (m *Module) AddFunction(name string, fn value.NativeFunc) *Module {
	m.functions[name] = value.NewNative(m.Name, name, fn)
	return m
}

func (m *Module) AddType(t value.Type) *Module {
	m.types[t.Name()] = t
	return m
}

func (m *Module) Function(name string) (*value.Function, bool) {
	fn, ok := m.functions[name]
	return fn, ok
}

func (m *Module) Type(name string) (value.Type, bool) {
	t, ok := m.types[name]
	return t, ok
}

func (m *Module) Functions() []string {
	return slices.Sorted(maps.Keys(m.functions))
}

func (m *Module) Types() []value.Type {
	types := slices.Collect(maps.Values(m.types))
	slices.SortFunc(types, func(a, b value.Type) int {
		return cmp.Compare(a.Name(), b.Name())
	})

	return types
}

func (m *Module) init() error {
	m.once.Do(func() {
		if m.Init != nil {
			m.initErr = m.Init()
		}
	})

	return m.initErr
}
