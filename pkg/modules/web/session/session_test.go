package session_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rhino1998/clever/pkg/modules/web/session"
	"github.com/rhino1998/clever/pkg/value"
)

func call(t *testing.T, this *value.Value, name string, args ...*value.Value) (*value.Value, error) {
	t.Helper()

	m, ok := this.Type().Method(name)
	require.True(t, ok, name)

	result := value.New()
	return result, m(result, this, args)
}

func TestSessionLifecycle(t *testing.T) {
	r := require.New(t)
	store := session.NewStore()

	sess := value.New()
	r.NoError(store.Type().Construct(sess, []*value.Value{value.String("abc")}))
	r.Equal("Session(abc)", sess.String())
	r.Equal(1, store.Len())

	_, err := call(t, sess, "set", value.String("user"), value.String("alice"))
	r.NoError(err)

	got, err := call(t, sess, "get", value.String("user"))
	r.NoError(err)
	r.Equal("alice", got.Str())

	got, err = call(t, sess, "get", value.String("missing"), value.Int(3))
	r.NoError(err)
	r.Equal(int64(3), got.Int())

	got, err = call(t, sess, "get", value.String("missing"))
	r.NoError(err)
	r.True(got.IsNone())

	// reopening an id shares its data
	other := value.New()
	r.NoError(store.Type().Construct(other, []*value.Value{value.String("abc")}))
	has, err := call(t, other, "has", value.String("user"))
	r.NoError(err)
	r.True(has.Bool())
	r.Equal(1, store.Len())

	removed, err := call(t, sess, "remove", value.String("user"))
	r.NoError(err)
	r.True(removed.Bool())

	removed, err = call(t, sess, "remove", value.String("user"))
	r.NoError(err)
	r.False(removed.Bool())

	destroyed, err := call(t, sess, "destroy")
	r.NoError(err)
	r.True(destroyed.Bool())
	r.Zero(store.Len())

	_, err = call(t, other, "get", value.String("user"))
	r.ErrorIs(err, value.ErrOutOfRange)
}

func TestFreshSessionID(t *testing.T) {
	r := require.New(t)
	store := session.NewStore()

	sess := value.New()
	r.NoError(store.Type().Construct(sess, nil))

	id, err := call(t, sess, "id")
	r.NoError(err)
	_, err = uuid.Parse(id.Str())
	r.NoError(err)

	a := store.Open("")
	b := store.Open("")
	r.NotEqual(a.ID, b.ID)
	r.Equal(3, store.Len())
}

func TestStoresAreIndependent(t *testing.T) {
	r := require.New(t)

	first := session.NewStore()
	second := session.NewStore()
	first.Open("x")

	r.Equal(1, first.Len())
	r.Zero(second.Len())
	r.NotSame(first.Type(), second.Type())

	sess := value.New()
	r.NoError(first.Type().Construct(sess, nil))

	// a session from one store is foreign to the other
	m, ok := second.Type().Method("id")
	r.True(ok)
	r.ErrorIs(m(value.New(), sess, nil), value.ErrArgType)
}
