// Package strs provides the std.strings module.
package strs

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/modules/std/collection"
	"github.com/rhino1998/clever/pkg/value"
)

const Name = "std.strings"

func Module() *modules.Module {
	return modules.New(Name, collection.Name).
		AddFunction("toUpper", caser(func() cases.Caser { return cases.Upper(language.Und) })).
		AddFunction("toLower", caser(func() cases.Caser { return cases.Lower(language.Und) })).
		AddFunction("title", caser(func() cases.Caser { return cases.Title(language.Und) })).
		AddFunction("trim", mapString(strings.TrimSpace)).
		AddFunction("contains", contains).
		AddFunction("replace", replace).
		AddFunction("split", split).
		AddFunction("join", join)
}

// Casers are stateful; one per call.
func caser(newCaser func() cases.Caser) value.NativeFunc {
	return mapString(func(s string) string {
		c := newCaser()
		return c.String(s)
	})
}

func mapString(fn func(string) string) value.NativeFunc {
	return func(result *value.Value, args []*value.Value) error {
		if err := value.CheckArgs(args, "s"); err != nil {
			return err
		}

		result.SetStr(fn(args[0].Str()))
		return nil
	}
}

func contains(result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "ss"); err != nil {
		return err
	}

	result.SetBool(strings.Contains(args[0].Str(), args[1].Str()))
	return nil
}

func replace(result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "sss"); err != nil {
		return err
	}

	result.SetStr(strings.ReplaceAll(args[0].Str(), args[1].Str(), args[2].Str()))
	return nil
}

func split(result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "ss"); err != nil {
		return err
	}

	parts := strings.Split(args[0].Str(), args[1].Str())
	items := make([]*value.Value, len(parts))
	for i, part := range parts {
		items[i] = value.String(part)
	}

	result.Assign(collection.NewArray(items))
	return nil
}

func join(result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "os"); err != nil {
		return err
	}

	arr, err := value.ObjectOf[*collection.Array](args[0], collection.ArrayType)
	if err != nil {
		return err
	}

	items := arr.Items()
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}

	result.SetStr(strings.Join(parts, args[1].Str()))
	return nil
}
