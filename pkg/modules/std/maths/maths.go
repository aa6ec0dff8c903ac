// Package maths provides the std.math module. Int arguments stay Int where
// the result is integral.
package maths

import (
	"fmt"
	"math"

	"github.com/rhino1998/clever/pkg/compiler/kinds"
	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/value"
)

const Name = "std.math"

func Module() *modules.Module {
	return modules.New(Name).
		AddFunction("abs", abs).
		AddFunction("sqrt", unary(math.Sqrt)).
		AddFunction("floor", unary(math.Floor)).
		AddFunction("ceil", unary(math.Ceil)).
		AddFunction("pow", pow).
		AddFunction("min", extreme(-1)).
		AddFunction("max", extreme(1))
}

func abs(result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "n"); err != nil {
		return err
	}

	if args[0].Kind() == kinds.Int {
		i := args[0].Int()
		if i == math.MinInt64 {
			return fmt.Errorf("%w: abs of %d", value.ErrOutOfRange, i)
		}
		result.SetInt(max(i, -i))
		return nil
	}

	result.SetDouble(math.Abs(args[0].Double()))
	return nil
}

func unary(fn func(float64) float64) value.NativeFunc {
	return func(result *value.Value, args []*value.Value) error {
		if err := value.CheckArgs(args, "n"); err != nil {
			return err
		}

		n, _ := args[0].Number()
		result.SetDouble(fn(n))
		return nil
	}
}

func pow(result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "nn"); err != nil {
		return err
	}

	base, _ := args[0].Number()
	exp, _ := args[1].Number()
	result.SetDouble(math.Pow(base, exp))

	return nil
}

// extreme returns min for sign -1 and max for sign 1 over one or more
// numbers.
func extreme(sign int) value.NativeFunc {
	return func(result *value.Value, args []*value.Value) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: expected at least 1, got 0", value.ErrArity)
		}

		best := args[0]
		allInt := true
		for i, arg := range args {
			if !arg.Kind().IsNumeric() {
				return fmt.Errorf("%w: argument %d is %s", value.ErrArgType, i+1, arg.Kind())
			}
			if arg.Kind() != kinds.Int {
				allInt = false
			}

			a, _ := arg.Number()
			b, _ := best.Number()
			if (sign < 0 && a < b) || (sign > 0 && a > b) {
				best = arg
			}
		}

		if allInt {
			result.SetInt(best.Int())
		} else {
			n, _ := best.Number()
			result.SetDouble(n)
		}

		return nil
	}
}
