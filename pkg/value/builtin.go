package value

import (
	"math"
	"strconv"

	"github.com/rhino1998/clever/pkg/compiler/kinds"
	"github.com/rhino1998/clever/pkg/compiler/operators"
)

// Built-in types. They hold no mutable state; every TypePool registers the
// same instances.
var (
	IntType      Type = &intType{newNativeType("Int", kinds.Int)}
	DoubleType   Type = &doubleType{newNativeType("Double", kinds.Double)}
	StringType   Type
	BoolType     Type = &boolType{newNativeType("Bool", kinds.Bool)}
	FunctionType Type = &functionType{newNativeType("Function", kinds.Function)}
	TypeType     Type = &typeType{newNativeType("Type", kinds.Type)}
)

// String methods produce Strings, so the type is built after the var block.
func init() {
	StringType = newStrType()
}

func builtinTypes() []Type {
	return []Type{IntType, DoubleType, StringType, BoolType, FunctionType, TypeType}
}

type intType struct {
	*NativeType
}

func (t *intType) Operate(op operators.Operator, result, lhs, rhs *Value) error {
	switch rhs.Kind() {
	case kinds.Int:
		return operateInt(op, result, lhs.i, rhs.i)
	case kinds.Double:
		return operateDouble(op, result, float64(lhs.i), rhs.d)
	default:
		return nil
	}
}

func (t *intType) Construct(result *Value, args []*Value) error {
	if err := CheckArgs(args, "|n"); err != nil {
		return err
	}

	if len(args) == 0 {
		result.SetInt(0)
		return nil
	}

	n, _ := args[0].Number()
	result.SetInt(int64(n))
	return nil
}

func (t *intType) Format(v *Value) string {
	return strconv.FormatInt(v.i, 10)
}

type doubleType struct {
	*NativeType
}

func (t *doubleType) Operate(op operators.Operator, result, lhs, rhs *Value) error {
	r, ok := rhs.Number()
	if !ok {
		return nil
	}

	return operateDouble(op, result, lhs.d, r)
}

func (t *doubleType) Construct(result *Value, args []*Value) error {
	if err := CheckArgs(args, "|n"); err != nil {
		return err
	}

	if len(args) == 0 {
		result.SetDouble(0)
		return nil
	}

	n, _ := args[0].Number()
	result.SetDouble(n)
	return nil
}

func (t *doubleType) Format(v *Value) string {
	return strconv.FormatFloat(v.d, 'g', -1, 64)
}

func operateInt(op operators.Operator, result *Value, a, b int64) error {
	switch op {
	case operators.Addition:
		result.SetInt(a + b)
	case operators.Subtraction:
		result.SetInt(a - b)
	case operators.Multiplication:
		result.SetInt(a * b)
	case operators.Division:
		if b == 0 {
			return ErrDivisionByZero
		}
		result.SetInt(a / b)
	case operators.Modulo:
		if b == 0 {
			return ErrDivisionByZero
		}
		result.SetInt(a % b)
	default:
		if op.IsComparison() {
			result.SetBool(compare(op, a, b))
		}
	}

	return nil
}

func operateDouble(op operators.Operator, result *Value, a, b float64) error {
	switch op {
	case operators.Addition:
		result.SetDouble(a + b)
	case operators.Subtraction:
		result.SetDouble(a - b)
	case operators.Multiplication:
		result.SetDouble(a * b)
	case operators.Division:
		if b == 0 {
			return ErrDivisionByZero
		}
		result.SetDouble(a / b)
	case operators.Modulo:
		if b == 0 {
			return ErrDivisionByZero
		}
		result.SetDouble(math.Mod(a, b))
	default:
		if op.IsComparison() {
			result.SetBool(compare(op, a, b))
		}
	}

	return nil
}

func compare[T int64 | float64 | string](op operators.Operator, a, b T) bool {
	switch op {
	case operators.Equal:
		return a == b
	case operators.NotEqual:
		return a != b
	case operators.LessThan:
		return a < b
	case operators.LessThanOrEqual:
		return a <= b
	case operators.GreaterThan:
		return a > b
	case operators.GreaterThanOrEqual:
		return a >= b
	default:
		return false
	}
}

type boolType struct {
	*NativeType
}

func (t *boolType) Operate(op operators.Operator, result, lhs, rhs *Value) error {
	if rhs.Kind() != kinds.Bool {
		return nil
	}

	switch op {
	case operators.Equal:
		result.SetBool(lhs.i == rhs.i)
	case operators.NotEqual:
		result.SetBool(lhs.i != rhs.i)
	}

	return nil
}

func (t *boolType) Construct(result *Value, args []*Value) error {
	if err := CheckArgs(args, "|*"); err != nil {
		return err
	}

	result.SetBool(len(args) == 1 && args[0].Truthy())
	return nil
}

func (t *boolType) Format(v *Value) string {
	if v.i != 0 {
		return "true"
	}

	return "false"
}

type functionType struct {
	*NativeType
}

func (t *functionType) Format(v *Value) string {
	if fn := v.Function(); fn != nil {
		return fn.String()
	}

	return "<function>"
}

type typeType struct {
	*NativeType
}

func (t *typeType) Format(v *Value) string {
	if ref := v.TypeRef(); ref != nil {
		return "<type " + ref.Name() + ">"
	}

	return "<type>"
}
