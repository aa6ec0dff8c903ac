package strs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhino1998/clever/pkg/modules/std/strs"
	"github.com/rhino1998/clever/pkg/value"
)

func call(t *testing.T, name string, args ...*value.Value) (*value.Value, error) {
	t.Helper()

	fn, ok := strs.Module().Function(name)
	require.True(t, ok, name)

	result := value.New()
	return result, fn.Native(result, args)
}

func TestStrings(t *testing.T) {
	r := require.New(t)

	for _, tc := range []struct {
		fn   string
		args []*value.Value
		want string
	}{
		{"toUpper", []*value.Value{value.String("straße")}, "STRASSE"},
		{"toLower", []*value.Value{value.String("ÀB")}, "àb"},
		{"title", []*value.Value{value.String("hello world")}, "Hello World"},
		{"trim", []*value.Value{value.String("  x \n")}, "x"},
		{"replace", []*value.Value{value.String("a-b-c"), value.String("-"), value.String("+")}, "a+b+c"},
		{"contains", []*value.Value{value.String("haystack"), value.String("st")}, "true"},
		{"split", []*value.Value{value.String("a,b"), value.String(",")}, "[a, b]"},
	} {
		got, err := call(t, tc.fn, tc.args...)
		r.NoError(err, tc.fn)
		r.Equal(tc.want, got.String(), tc.fn)
	}
}

func TestJoin(t *testing.T) {
	r := require.New(t)

	parts, err := call(t, "split", value.String("1 2 3"), value.String(" "))
	r.NoError(err)

	got, err := call(t, "join", parts, value.String("+"))
	r.NoError(err)
	r.Equal("1+2+3", got.Str())

	_, err = call(t, "join", value.String("no"), value.String("+"))
	r.ErrorIs(err, value.ErrArgType)

	_, err = call(t, "toUpper")
	r.ErrorIs(err, value.ErrArity)
}
