package value

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/rhino1998/clever/pkg/compiler/kinds"
	"github.com/rhino1998/clever/pkg/compiler/operators"
)

type strType struct {
	*NativeType
}

func newStrType() *strType {
	t := &strType{newNativeType("String", kinds.String)}
	t.AddMethod("subString", strSubString)
	t.AddMethod("find", strFind)
	t.AddMethod("size", strSize)
	t.AddMethod("toString", func(result, this *Value, args []*Value) error {
		if err := CheckArgs(args, ""); err != nil {
			return err
		}
		result.SetStr(this.String())
		return nil
	})

	return t
}

func (t *strType) Operate(op operators.Operator, result, lhs, rhs *Value) error {
	switch rhs.Kind() {
	case kinds.String:
		switch {
		case op == operators.Addition:
			result.SetStr(lhs.s + rhs.s)
		case op.IsComparison():
			result.SetBool(compare(op, lhs.s, rhs.s))
		}
	case kinds.Int:
		if op == operators.Multiplication && rhs.i >= 0 {
			n, err := safecast.Conv[int](rhs.i)
			if err != nil {
				return fmt.Errorf("%w: repeat count %d", ErrOutOfRange, rhs.i)
			}
			result.SetStr(strings.Repeat(lhs.s, n))
		}
	}

	return nil
}

func (t *strType) Construct(result *Value, args []*Value) error {
	if err := CheckArgs(args, "|*"); err != nil {
		return err
	}

	if len(args) == 0 {
		result.SetStr("")
		return nil
	}

	result.SetStr(args[0].String())
	return nil
}

func (t *strType) Format(v *Value) string {
	return v.s
}

func intArg(v *Value) (int, error) {
	n, err := safecast.Conv[int](v.i)
	if err != nil {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, v.i)
	}

	return n, nil
}

// subString(start[, count]) returns count bytes of the receiver from start.
func strSubString(result, this *Value, args []*Value) error {
	if err := CheckArgs(args, "i|i"); err != nil {
		return err
	}

	s := this.s
	start, err := intArg(args[0])
	if err != nil {
		return err
	}

	if start < 0 || start > len(s) {
		return fmt.Errorf("%w: subString start %d", ErrOutOfRange, start)
	}

	end := len(s)
	if len(args) == 2 {
		count, err := intArg(args[1])
		if err != nil {
			return err
		}
		if count >= 0 && start+count < end {
			end = start + count
		}
	}

	result.SetStr(s[start:end])
	return nil
}

// find(needle[, pos[, count]]) returns the index of the first occurrence of
// the first count bytes of needle at or after pos, or -1.
func strFind(result, this *Value, args []*Value) error {
	if err := CheckArgs(args, "s|ii"); err != nil {
		return err
	}

	haystack := this.s
	needle := args[0].s

	pos := 0
	if len(args) >= 2 {
		p, err := intArg(args[1])
		if err != nil {
			return err
		}
		pos = p
	}

	if len(args) == 3 {
		count, err := intArg(args[2])
		if err != nil {
			return err
		}
		if count >= 0 && count < len(needle) {
			needle = needle[:count]
		}
	}

	if pos < 0 || pos > len(haystack) {
		result.SetInt(-1)
		return nil
	}

	idx := strings.Index(haystack[pos:], needle)
	if idx >= 0 {
		idx += pos
	}

	result.SetInt(int64(idx))
	return nil
}

func strSize(result, this *Value, args []*Value) error {
	if err := CheckArgs(args, ""); err != nil {
		return err
	}

	result.SetInt(int64(len(this.s)))
	return nil
}
