package kinds

type Kind int

const (
	Unknown Kind = iota
	Void
	Bool
	Int
	Double
	String
	Function
	Type
	Object
)

func (k Kind) IsNumeric() bool {
	return k == Int || k == Double
}

func (k Kind) IsPrimitive() bool {
	return k == Bool || k == Int || k == Double || k == String
}

func (k Kind) String() string {
	switch k {
	case Void:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Double:
		return "double"
	case String:
		return "string"
	case Function:
		return "function"
	case Type:
		return "type"
	case Object:
		return "object"
	default:
		return "<unknown>"
	}
}
