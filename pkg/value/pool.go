package value

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Pool is a growable arena of values addressed by ID. Slots are never removed
// or relocated, so an ID stays valid for the pool's lifetime.
type Pool struct {
	mu     sync.RWMutex
	slots  []*Value
	owners []Owner
}

func NewPool(hint int) *Pool {
	p := &Pool{}
	p.Reserve(hint)

	// slot 0 is the none value
	p.slots = append(p.slots, New())
	p.owners = append(p.owners, Global)

	return p
}

// Reserve grows capacity for n more slots without allocating them.
func (p *Pool) Reserve(n int) {
	if n <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cap(p.slots)-len(p.slots) >= n {
		return
	}

	slots := make([]*Value, len(p.slots), len(p.slots)+n)
	copy(slots, p.slots)
	p.slots = slots

	owners := make([]Owner, len(p.owners), len(p.owners)+n)
	copy(owners, p.owners)
	p.owners = owners
}

// Insert appends v and returns its id.
func (p *Pool) Insert(v *Value, owner Owner) ID {
	if v == nil {
		v = New()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.slots = append(p.slots, v)
	p.owners = append(p.owners, owner)

	return ID(len(p.slots) - 1)
}

// Get returns the value at id, or nil when id was never allocated.
func (p *Pool) Get(id ID) *Value {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if int(id) >= len(p.slots) {
		return nil
	}

	return p.slots[id]
}

func (p *Pool) Owner(id ID) Owner {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if int(id) >= len(p.owners) {
		return Global
	}

	return p.owners[id]
}

// Owned returns the ids of every slot allocated inside a function or thread
// block body, in allocation order.
func (p *Pool) Owned() []ID {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var ids []ID
	for id, owner := range p.owners {
		if owner != Global {
			ids = append(ids, ID(id))
		}
	}

	return ids
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.slots)
}

// Close releases object payloads that hold external resources. The pool must
// not be used afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	seen := make(map[io.Closer]struct{})
	for id, v := range p.slots {
		closer, ok := v.obj.(io.Closer)
		if !ok {
			continue
		}
		if isComparable(closer) {
			if _, done := seen[closer]; done {
				continue
			}
			seen[closer] = struct{}{}
		}

		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close value %d: %w", id, err))
		}
	}

	p.slots = nil
	p.owners = nil

	return errors.Join(errs...)
}
