package value

import (
	"cmp"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/rhino1998/clever/pkg/compiler/kinds"
	"github.com/rhino1998/clever/pkg/compiler/operators"
)

// Type describes a native type. Types are compared by identity.
type Type interface {
	Name() string
	Kind() kinds.Kind

	// Operate applies a binary operator with lhs as the receiver. Operand
	// combinations the type does not support leave result untouched.
	Operate(op operators.Operator, result, lhs, rhs *Value) error

	Method(name string) (Method, bool)
	Construct(result *Value, args []*Value) error
	Format(v *Value) string
}

// NativeType is the base for types defined in Go. Module types embed it and
// register their constructor and methods during module initialisation.
type NativeType struct {
	name    string
	kind    kinds.Kind
	methods map[string]Method
	ctor    NativeFunc
}

func NewNativeType(name string) *NativeType {
	return newNativeType(name, kinds.Object)
}

func newNativeType(name string, kind kinds.Kind) *NativeType {
	return &NativeType{
		name:    name,
		kind:    kind,
		methods: make(map[string]Method),
	}
}

func (t *NativeType) Name() string {
	return t.name
}

func (t *NativeType) Kind() kinds.Kind {
	return t.kind
}

func (t *NativeType) AddMethod(name string, m Method) *NativeType {
	t.methods[name] = m
	return t
}

func (t *NativeType) SetConstructor(ctor NativeFunc) {
	t.ctor = ctor
}

func (t *NativeType) Method(name string) (Method, bool) {
	m, ok := t.methods[name]
	return m, ok
}

func (t *NativeType) Methods() []string {
	names := slices.Collect(maps.Keys(t.methods))
	slices.SortFunc(names, cmp.Compare)
	return names
}

func (t *NativeType) Construct(result *Value, args []*Value) error {
	if t.ctor == nil {
		return fmt.Errorf("%w: %s", ErrNotConstructible, t.name)
	}

	return t.ctor(result, args)
}

// Operate compares object payloads by identity; every other operator is a
// no-op.
func (t *NativeType) Operate(op operators.Operator, result, lhs, rhs *Value) error {
	switch op {
	case operators.Equal:
		result.SetBool(lhs.typ == rhs.typ && sameObject(lhs.obj, rhs.obj))
	case operators.NotEqual:
		result.SetBool(lhs.typ != rhs.typ || !sameObject(lhs.obj, rhs.obj))
	}

	return nil
}

// sameObject reports payload identity. Payloads that are not comparable are
// only ever equal to nothing.
func sameObject(a, b any) bool {
	if !isComparable(a) || !isComparable(b) {
		return false
	}

	return a == b
}

func isComparable(x any) bool {
	return x == nil || reflect.TypeOf(x).Comparable()
}

func (t *NativeType) Format(v *Value) string {
	if s, ok := v.obj.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("<%s>", t.name)
}

func (t *NativeType) String() string {
	return t.name
}
