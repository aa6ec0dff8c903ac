package value

import (
	"errors"
	"fmt"

	"github.com/rhino1998/clever/pkg/compiler/kinds"
)

var (
	ErrDivisionByZero   = errors.New("division by zero")
	ErrArity            = errors.New("wrong number of arguments")
	ErrArgType          = errors.New("wrong argument type")
	ErrOutOfRange       = errors.New("out of range")
	ErrNotConstructible = errors.New("type has no constructor")
	ErrDuplicateType    = errors.New("type already registered")
)

// CheckArgs validates call arguments against a signature string, one letter
// per argument: i int, d double, n int or double, s string, b bool, f
// function, o object, * anything. Letters after a '|' are optional.
func CheckArgs(args []*Value, sig string) error {
	required := len(sig)
	optional := false
	var letters []byte
	for i := 0; i < len(sig); i++ {
		if sig[i] == '|' {
			if !optional {
				required = len(letters)
			}
			optional = true
			continue
		}
		letters = append(letters, sig[i])
	}
	if !optional {
		required = len(letters)
	}

	if len(args) < required || len(args) > len(letters) {
		if required == len(letters) {
			return fmt.Errorf("%w: expected %d, got %d", ErrArity, required, len(args))
		}
		return fmt.Errorf("%w: expected %d to %d, got %d", ErrArity, required, len(letters), len(args))
	}

	for i, arg := range args {
		if !argMatches(letters[i], arg) {
			return fmt.Errorf("%w: argument %d is %s", ErrArgType, i+1, arg.Kind())
		}
	}

	return nil
}

func argMatches(letter byte, v *Value) bool {
	switch letter {
	case 'i':
		return v.Kind() == kinds.Int
	case 'd':
		return v.Kind() == kinds.Double
	case 'n':
		return v.Kind().IsNumeric()
	case 's':
		return v.Kind() == kinds.String
	case 'b':
		return v.Kind() == kinds.Bool
	case 'f':
		return v.Kind() == kinds.Function
	case 'o':
		return v.Kind() == kinds.Object
	default:
		return true
	}
}

// ObjectOf returns the object payload of v when it is an instance of t.
func ObjectOf[T any](v *Value, t Type) (T, error) {
	var zero T
	if v.typ != t {
		name := "null"
		if v.typ != nil {
			name = v.typ.Name()
		}
		return zero, fmt.Errorf("%w: expected %s, got %s", ErrArgType, t.Name(), name)
	}

	obj, ok := v.obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: malformed %s", ErrArgType, t.Name())
	}

	return obj, nil
}
