package operators

import (
	"fmt"
)

type Operator string

func (o Operator) IsArithmetic() bool {
	switch o {
	case Addition,
		Subtraction,
		Multiplication,
		Division,
		Modulo:
		return true
	default:
		return false
	}
}

func (o Operator) IsComparison() bool {
	switch o {
	case Equal,
		NotEqual,
		LessThan,
		GreaterThan,
		LessThanOrEqual,
		GreaterThanOrEqual:
		return true
	default:
		return false
	}
}

func (o Operator) IsLogical() bool {
	return o == LogicalAnd || o == LogicalOr
}

// Precedence returns the binding power of a binary operator, or 0 if o is not
// a binary operator.
func (o Operator) Precedence() int {
	switch o {
	case LogicalOr:
		return 1
	case LogicalAnd:
		return 2
	case Equal, NotEqual:
		return 3
	case LessThan, GreaterThan, LessThanOrEqual, GreaterThanOrEqual:
		return 4
	case Addition, Subtraction:
		return 5
	case Multiplication, Division, Modulo:
		return 6
	default:
		return 0
	}
}

func (o Operator) AssignmentToInfix() (Operator, error) {
	switch o {
	case PlusEquals:
		return Addition, nil
	case MinusEquals:
		return Subtraction, nil
	case MultiplyEquals:
		return Multiplication, nil
	case DivideEquals:
		return Division, nil
	case ModuloEquals:
		return Modulo, nil
	default:
		return "", fmt.Errorf("operator %q is not an assignment operator", o)
	}
}

const (
	Multiplication Operator = "*"
	Division       Operator = "/"
	Modulo         Operator = "%"

	Addition    Operator = "+"
	Subtraction Operator = "-"

	Equal              Operator = "=="
	NotEqual           Operator = "!="
	LessThan           Operator = "<"
	GreaterThan        Operator = ">"
	LessThanOrEqual    Operator = "<="
	GreaterThanOrEqual Operator = ">="

	LogicalAnd Operator = "&&"

	LogicalOr Operator = "||"

	Increment Operator = "++"
	Decrement Operator = "--"

	Negate Operator = "-"
	Not    Operator = "!"

	PlusEquals     Operator = "+="
	MinusEquals    Operator = "-="
	MultiplyEquals Operator = "*="
	DivideEquals   Operator = "/="
	ModuloEquals   Operator = "%="
)
