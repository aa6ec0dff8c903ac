package compiler

import (
	"cmp"
	"maps"
	"slices"

	"github.com/rhino1998/clever/pkg/value"
)

type ScopeID uint32

const GlobalScope ScopeID = 0

// Symbol binds a name to a value slot. Reassignment changes the slot's
// contents, never the binding.
type Symbol struct {
	Name  string
	Value value.ID
}

type Scope struct {
	id      ScopeID
	parent  *Scope
	name    string
	symbols map[string]Symbol
}

func newScope(id ScopeID, parent *Scope, name string) *Scope {
	return &Scope{
		id:      id,
		parent:  parent,
		name:    name,
		symbols: make(map[string]Symbol),
	}
}

func (s *Scope) ID() ScopeID {
	return s.id
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

func (s *Scope) Name() string {
	return s.name
}

// Lookup resolves name from s towards the root.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	return s.get(name)
}

// Local resolves name in s only.
func (s *Scope) Local(name string) (Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

func (s *Scope) Symbols() []Symbol {
	syms := slices.Collect(maps.Values(s.symbols))
	slices.SortFunc(syms, func(a, b Symbol) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return syms
}

func (s *Scope) get(name string) (Symbol, bool) {
	if s == nil {
		return Symbol{}, false
	}

	sym, ok := s.symbols[name]
	if ok {
		return sym, true
	}

	return s.parent.get(name)
}

// put binds symbol in s, shadowing any earlier binding of the same name.
func (s *Scope) put(symbol Symbol) {
	s.symbols[symbol.Name] = symbol
}

// ScopePool owns every scope ever created by a compilation, indexed by id.
// Scopes are never removed.
type ScopePool struct {
	scopes []*Scope
}

func NewScopePool(hint int) *ScopePool {
	p := &ScopePool{
		scopes: make([]*Scope, 0, max(hint, 1)),
	}
	p.scopes = append(p.scopes, newScope(GlobalScope, nil, "global"))

	return p
}

func (p *ScopePool) Reserve(n int) {
	p.scopes = slices.Grow(p.scopes, n)
}

func (p *ScopePool) New(parent *Scope, name string) *Scope {
	s := newScope(ScopeID(len(p.scopes)), parent, name)
	p.scopes = append(p.scopes, s)

	return s
}

func (p *ScopePool) Root() *Scope {
	return p.scopes[GlobalScope]
}

func (p *ScopePool) Get(id ScopeID) *Scope {
	if int(id) >= len(p.scopes) {
		return nil
	}

	return p.scopes[id]
}

func (p *ScopePool) Len() int {
	return len(p.scopes)
}
