// Package value holds the runtime data model shared by the compiler and the
// VM: tagged values, native type descriptors and the pools that address them
// by integer id.
package value

import (
	"github.com/rhino1998/clever/pkg/compiler/kinds"
)

// ID addresses a slot in a Pool. The zero ID is the reserved none slot.
type ID uint32

const None ID = 0

// Owner identifies the function or thread block whose body allocated a slot.
// Slots owned by 0 are global.
type Owner uint32

const Global Owner = 0

// Value is a single runtime cell. A nil type means the empty value.
//
// Values are not synchronized; a Value reachable from more than one thread
// must be guarded by the program.
type Value struct {
	typ Type
	i   int64
	d   float64
	s   string
	obj any
}

func New() *Value {
	return &Value{}
}

func Int(i int64) *Value {
	v := New()
	v.SetInt(i)
	return v
}

func Double(d float64) *Value {
	v := New()
	v.SetDouble(d)
	return v
}

func String(s string) *Value {
	v := New()
	v.SetStr(s)
	return v
}

func Bool(b bool) *Value {
	v := New()
	v.SetBool(b)
	return v
}

func Func(fn *Function) *Value {
	v := New()
	v.SetFunction(fn)
	return v
}

func TypeRef(t Type) *Value {
	v := New()
	v.SetType(t)
	return v
}

func Object(t Type, obj any) *Value {
	v := New()
	v.SetObject(t, obj)
	return v
}

func (v *Value) Type() Type {
	return v.typ
}

func (v *Value) Kind() kinds.Kind {
	if v.typ == nil {
		return kinds.Void
	}

	return v.typ.Kind()
}

func (v *Value) IsNone() bool {
	return v.typ == nil
}

func (v *Value) Int() int64 {
	return v.i
}

func (v *Value) Double() float64 {
	return v.d
}

func (v *Value) Str() string {
	return v.s
}

func (v *Value) Bool() bool {
	return v.i != 0
}

// Number returns the numeric payload of an Int or Double value.
func (v *Value) Number() (float64, bool) {
	switch v.Kind() {
	case kinds.Int:
		return float64(v.i), true
	case kinds.Double:
		return v.d, true
	default:
		return 0, false
	}
}

func (v *Value) Function() *Function {
	fn, _ := v.obj.(*Function)
	return fn
}

func (v *Value) TypeRef() Type {
	if v.Kind() != kinds.Type {
		return nil
	}

	t, _ := v.obj.(Type)
	return t
}

func (v *Value) Object() any {
	return v.obj
}

func (v *Value) reset(t Type) {
	*v = Value{typ: t}
}

func (v *Value) SetNone() {
	v.reset(nil)
}

func (v *Value) SetInt(i int64) {
	v.reset(IntType)
	v.i = i
}

func (v *Value) SetDouble(d float64) {
	v.reset(DoubleType)
	v.d = d
}

func (v *Value) SetStr(s string) {
	v.reset(StringType)
	v.s = s
}

func (v *Value) SetBool(b bool) {
	v.reset(BoolType)
	if b {
		v.i = 1
	}
}

func (v *Value) SetFunction(fn *Function) {
	v.reset(FunctionType)
	v.obj = fn
}

func (v *Value) SetType(t Type) {
	v.reset(TypeType)
	v.obj = t
}

func (v *Value) SetObject(t Type, obj any) {
	v.reset(t)
	v.obj = obj
}

// Assign copies the contents of src into v. Object payloads are shared, not
// copied.
func (v *Value) Assign(src *Value) {
	if src == nil {
		v.SetNone()
		return
	}

	*v = *src
}

func (v *Value) Clone() *Value {
	c := *v
	return &c
}

func (v *Value) Truthy() bool {
	switch v.Kind() {
	case kinds.Void:
		return false
	case kinds.Bool, kinds.Int:
		return v.i != 0
	case kinds.Double:
		return v.d != 0
	case kinds.String:
		return v.s != ""
	default:
		return v.obj != nil
	}
}

func (v *Value) String() string {
	if v.typ == nil {
		return "null"
	}

	return v.typ.Format(v)
}
