package collection_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhino1998/clever/pkg/modules/std/collection"
	"github.com/rhino1998/clever/pkg/value"
)

func call(t *testing.T, this *value.Value, name string, args ...*value.Value) (*value.Value, error) {
	t.Helper()

	m, ok := this.Type().Method(name)
	require.True(t, ok, name)

	result := value.New()
	return result, m(result, this, args)
}

func TestArray(t *testing.T) {
	r := require.New(t)

	first := value.Int(1)
	arr := value.New()
	r.NoError(collection.ArrayType.Construct(arr, []*value.Value{first, value.String("b")}))

	// elements are copies
	first.SetInt(100)
	r.Equal("[1, b]", arr.String())

	n, err := call(t, arr, "push", value.Double(2.5))
	r.NoError(err)
	r.Equal(int64(3), n.Int())

	got, err := call(t, arr, "get", value.Int(2))
	r.NoError(err)
	r.Equal(2.5, got.Double())

	_, err = call(t, arr, "set", value.Int(0), value.Bool(true))
	r.NoError(err)

	_, err = call(t, arr, "get", value.Int(3))
	r.ErrorIs(err, value.ErrOutOfRange)
	_, err = call(t, arr, "get", value.Int(-1))
	r.ErrorIs(err, value.ErrOutOfRange)

	popped, err := call(t, arr, "pop")
	r.NoError(err)
	r.Equal(2.5, popped.Double())

	size, err := call(t, arr, "size")
	r.NoError(err)
	r.Equal(int64(2), size.Int())
	r.Equal("[true, b]", arr.String())

	_, err = call(t, arr, "pop")
	r.NoError(err)
	_, err = call(t, arr, "pop")
	r.NoError(err)
	_, err = call(t, arr, "pop")
	r.ErrorIs(err, value.ErrOutOfRange)
}

func TestMap(t *testing.T) {
	r := require.New(t)

	m := value.New()
	r.NoError(collection.MapType.Construct(m, nil))
	r.ErrorIs(collection.MapType.Construct(value.New(), []*value.Value{value.Int(1)}), value.ErrArity)

	_, err := call(t, m, "set", value.String("b"), value.Int(2))
	r.NoError(err)
	_, err = call(t, m, "set", value.Int(1), value.String("one"))
	r.NoError(err)
	_, err = call(t, m, "set", value.String("a"), value.Int(1))
	r.NoError(err)

	// Int 1 and String "1" are distinct keys
	has, err := call(t, m, "has", value.String("1"))
	r.NoError(err)
	r.False(has.Bool())

	got, err := call(t, m, "get", value.Int(1))
	r.NoError(err)
	r.Equal("one", got.Str())

	got, err = call(t, m, "get", value.String("zz"), value.Int(0))
	r.NoError(err)
	r.Equal(int64(0), got.Int())

	_, err = call(t, m, "set", value.Double(1), value.Int(0))
	r.ErrorIs(err, value.ErrArgType)

	keys, err := call(t, m, "keys")
	r.NoError(err)
	r.Equal("[1, a, b]", keys.String())
	r.Equal("{1: one, a: 1, b: 2}", m.String())

	removed, err := call(t, m, "remove", value.String("a"))
	r.NoError(err)
	r.True(removed.Bool())

	size, err := call(t, m, "size")
	r.NoError(err)
	r.Equal(int64(2), size.Int())
}

func TestMapAPI(t *testing.T) {
	r := require.New(t)

	m := collection.NewMap()
	v := value.Int(1)
	r.NoError(m.Set(value.String("k"), v))
	v.SetInt(2)

	got, ok, err := m.Get(value.String("k"))
	r.NoError(err)
	r.True(ok)
	r.Equal(int64(1), got.Int())

	ok, err = m.Delete(value.String("k"))
	r.NoError(err)
	r.True(ok)
	r.Zero(m.Len())

	r.Equal(collection.MapType, m.Value().Type())
}
