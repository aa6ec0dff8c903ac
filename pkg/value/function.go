package value

import "fmt"

// NativeFunc is the contract every module function satisfies: populate result
// or return an error, which the VM raises as a runtime fault.
type NativeFunc func(result *Value, args []*Value) error

// Method is a NativeFunc bound to a receiver.
type Method func(result *Value, this *Value, args []*Value) error

// Function describes a callable. User functions carry the entry address and
// the slots their body owns; native functions carry only Native.
type Function struct {
	Name   string
	Module string
	Native NativeFunc

	Addr       int
	Params     []ID
	Vars       []ID
	ArgScope   uint32
	LocalScope uint32
	Owner      Owner
}

func NewNative(module, name string, fn NativeFunc) *Function {
	return &Function{
		Name:   name,
		Module: module,
		Native: fn,
	}
}

func (f *Function) IsNative() bool {
	return f.Native != nil
}

func (f *Function) QualifiedName() string {
	if f.Module == "" {
		return f.Name
	}

	return f.Module + "." + f.Name
}

func (f *Function) String() string {
	if f.IsNative() {
		return fmt.Sprintf("<native %s>", f.QualifiedName())
	}

	return fmt.Sprintf("<function %s@%d>", f.Name, f.Addr)
}
