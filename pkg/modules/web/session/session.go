// Package session provides the web.session module: in-process key/value
// sessions addressed by id. Every Module has its own store.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/modules/std/collection"
	"github.com/rhino1998/clever/pkg/value"
)

const Name = "web.session"

type Store struct {
	mu       sync.Mutex
	sessions map[string]*collection.Map

	typ *value.NativeType
}

func NewStore() *Store {
	s := &Store{
		sessions: make(map[string]*collection.Map),
		typ:      value.NewNativeType("Session"),
	}

	s.typ.SetConstructor(s.construct)
	s.typ.
		AddMethod("id", s.method(sessionID)).
		AddMethod("set", s.method(sessionSet)).
		AddMethod("get", s.method(sessionGet)).
		AddMethod("has", s.method(sessionHas)).
		AddMethod("remove", s.method(sessionRemove)).
		AddMethod("destroy", s.method(sessionDestroy))

	return s
}

func Module() *modules.Module {
	return NewStore().Module()
}

func (s *Store) Module() *modules.Module {
	return modules.New(Name, collection.Name).AddType(s.typ)
}

func (s *Store) Type() value.Type {
	return s.typ
}

// Open returns the session with id, creating it when absent. An empty id
// creates a session with a fresh random id.
func (s *Store) Open(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = collection.NewMap()
	}

	return &Session{ID: id}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *Store) data(sess *Session) (*collection.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.sessions[sess.ID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s was destroyed", value.ErrOutOfRange, sess.ID)
	}

	return m, nil
}

func (s *Store) destroy(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[sess.ID]
	delete(s.sessions, sess.ID)

	return ok
}

type Session struct {
	ID string
}

func (s *Session) String() string {
	return "Session(" + s.ID + ")"
}

func (s *Store) construct(result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "|s"); err != nil {
		return err
	}

	var id string
	if len(args) == 1 {
		id = args[0].Str()
	}
	result.SetObject(s.typ, s.Open(id))

	return nil
}

type sessionMethod func(s *Store, sess *Session, result *value.Value, args []*value.Value) error

func (s *Store) method(fn sessionMethod) value.Method {
	return func(result, this *value.Value, args []*value.Value) error {
		sess, err := value.ObjectOf[*Session](this, s.typ)
		if err != nil {
			return err
		}

		return fn(s, sess, result, args)
	}
}

func sessionID(_ *Store, sess *Session, result *value.Value, args []*value.Value) error {
	result.SetStr(sess.ID)
	return nil
}

func sessionSet(s *Store, sess *Session, result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "s*"); err != nil {
		return err
	}

	m, err := s.data(sess)
	if err != nil {
		return err
	}

	if err := m.Set(args[0], args[1]); err != nil {
		return err
	}
	result.Assign(args[1])

	return nil
}

func sessionGet(s *Store, sess *Session, result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "s|*"); err != nil {
		return err
	}

	m, err := s.data(sess)
	if err != nil {
		return err
	}

	v, ok, err := m.Get(args[0])
	if err != nil {
		return err
	}

	switch {
	case ok:
		result.Assign(v)
	case len(args) == 2:
		result.Assign(args[1])
	default:
		result.SetNone()
	}

	return nil
}

func sessionHas(s *Store, sess *Session, result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "s"); err != nil {
		return err
	}

	m, err := s.data(sess)
	if err != nil {
		return err
	}

	_, ok, err := m.Get(args[0])
	if err != nil {
		return err
	}
	result.SetBool(ok)

	return nil
}

func sessionRemove(s *Store, sess *Session, result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "s"); err != nil {
		return err
	}

	m, err := s.data(sess)
	if err != nil {
		return err
	}

	ok, err := m.Delete(args[0])
	if err != nil {
		return err
	}
	result.SetBool(ok)

	return nil
}

func sessionDestroy(s *Store, sess *Session, result *value.Value, args []*value.Value) error {
	result.SetBool(s.destroy(sess))
	return nil
}
