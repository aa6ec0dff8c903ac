package value

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

type TypeID uint32

// TypePool registers one instance per native type. Registering the same
// instance twice is a no-op; registering a different type under a taken name
// fails.
type TypePool struct {
	mu     sync.RWMutex
	types  []Type
	byName map[string]TypeID
}

func NewTypePool() *TypePool {
	p := &TypePool{
		byName: make(map[string]TypeID),
	}

	for _, t := range builtinTypes() {
		_, _ = p.Register(t)
	}

	return p
}

func (p *TypePool) Register(t Type) (TypeID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.byName[t.Name()]; ok {
		if p.types[id] == t {
			return id, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrDuplicateType, t.Name())
	}

	id := TypeID(len(p.types))
	p.types = append(p.types, t)
	p.byName[t.Name()] = id

	return id, nil
}

func (p *TypePool) Lookup(name string) (Type, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id, ok := p.byName[name]
	if !ok {
		return nil, false
	}

	return p.types[id], true
}

func (p *TypePool) Get(id TypeID) Type {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if int(id) >= len(p.types) {
		return nil
	}

	return p.types[id]
}

func (p *TypePool) Types() []Type {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]Type(nil), p.types...)
}

// Close tears down types that own process resources, in reverse registration
// order.
func (p *TypePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for i := len(p.types) - 1; i >= 0; i-- {
		if closer, ok := p.types[i].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close type %s: %w", p.types[i].Name(), err))
			}
		}
	}

	p.types = nil
	p.byName = make(map[string]TypeID)

	return errors.Join(errs...)
}
