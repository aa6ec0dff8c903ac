package modules_test

import (
	"errors"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/rhino1998/clever/pkg/compiler"
	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/modules/builtin"
	"github.com/rhino1998/clever/pkg/value"
)

func newCompiler(t *testing.T, importer compiler.Importer) *compiler.Compiler {
	t.Helper()

	c, err := compiler.New(slogt.New(t), compiler.Config{File: "import.clv", Importer: importer})
	require.NoError(t, err)

	return c
}

func bound(c *compiler.Compiler, name string) bool {
	_, ok := c.Scope().Lookup(name)
	return ok
}

func nop(result *value.Value, args []*value.Value) error {
	return nil
}

func TestImportModule(t *testing.T) {
	r := require.New(t)

	mgr, err := builtin.NewManager(slogt.New(t))
	r.NoError(err)

	c := newCompiler(t, mgr)
	r.NoError(c.Import("std.strings", compiler.ImportAll, compiler.Location{Line: 1}))

	r.True(bound(c, "toUpper"))
	r.True(bound(c, "join"))
	r.False(bound(c, "Array"))
}

func TestImportPackagePrefix(t *testing.T) {
	r := require.New(t)

	mgr, err := builtin.NewManager(slogt.New(t))
	r.NoError(err)

	c := newCompiler(t, mgr)
	r.NoError(c.Import("std", compiler.ImportAll, compiler.Location{Line: 1}))

	for _, name := range []string{"Array", "Map", "toUpper", "sqrt", "Mutex", "sleep"} {
		r.True(bound(c, name), name)
	}
	r.False(bound(c, "SQLite3"))
}

func TestImportSingleExport(t *testing.T) {
	r := require.New(t)

	mgr, err := builtin.NewManager(slogt.New(t))
	r.NoError(err)

	c := newCompiler(t, mgr)
	r.NoError(c.Import("std.strings.toUpper", compiler.ImportAll, compiler.Location{Line: 1}))

	r.True(bound(c, "toUpper"))
	r.False(bound(c, "toLower"))

	err = c.Import("std.strings.shout", compiler.ImportAll, compiler.Location{Line: 2})
	r.ErrorIs(err, compiler.ErrImport)
	r.ErrorIs(err, modules.ErrUnknownExport)
}

func TestImportKinds(t *testing.T) {
	r := require.New(t)

	mgr, err := builtin.NewManager(slogt.New(t))
	r.NoError(err)

	c := newCompiler(t, mgr)
	r.NoError(c.Import("std.concurrent", compiler.ImportTypes, compiler.Location{Line: 1}))
	r.True(bound(c, "Channel"))
	r.False(bound(c, "sleep"))

	r.NoError(c.Import("std.concurrent", compiler.ImportFunctions, compiler.Location{Line: 2}))
	r.True(bound(c, "sleep"))
}

func TestImportUnknownModule(t *testing.T) {
	r := require.New(t)

	mgr, err := builtin.NewManager(slogt.New(t))
	r.NoError(err)

	c := newCompiler(t, mgr)
	err = c.Import("net", compiler.ImportAll, compiler.Location{Line: 1})
	r.ErrorIs(err, modules.ErrUnknownModule)
}

func TestDisabledModule(t *testing.T) {
	r := require.New(t)

	mgr, err := builtin.NewManager(slogt.New(t), "db.sqlite3")
	r.NoError(err)

	c := newCompiler(t, mgr)
	err = c.Import("db.sqlite3", compiler.ImportAll, compiler.Location{Line: 1})
	r.ErrorIs(err, modules.ErrModuleDisabled)

	_, err = mgr.ResolveType("SQLite3")
	r.ErrorIs(err, modules.ErrUnknownExport)

	// the package prefix skips disabled members
	c = newCompiler(t, mgr)
	err = c.Import("db", compiler.ImportAll, compiler.Location{Line: 1})
	r.ErrorIs(err, modules.ErrUnknownModule)
}

func TestDuplicateModule(t *testing.T) {
	r := require.New(t)

	mgr := modules.NewManager(slogt.New(t))
	r.NoError(mgr.Register(modules.New("a")))
	r.ErrorIs(mgr.Register(modules.New("a")), modules.ErrDuplicateModule)
}

func TestInitOrder(t *testing.T) {
	r := require.New(t)

	var order []string
	record := func(mod *modules.Module) *modules.Module {
		mod.Init = func() error {
			order = append(order, mod.Name)
			return nil
		}
		return mod.AddFunction("f", nop)
	}

	mgr := modules.NewManager(slogt.New(t))
	r.NoError(mgr.Register(
		record(modules.New("app", "lib.db", "lib.log")),
		record(modules.New("lib.db", "lib.log")),
		record(modules.New("lib.log")),
	))

	c := newCompiler(t, mgr)
	r.NoError(c.Import("app", compiler.ImportAll, compiler.Location{Line: 1}))
	r.Equal([]string{"lib.log", "lib.db", "app"}, order)

	// Init runs once per module
	r.NoError(c.Import("lib", compiler.ImportAll, compiler.Location{Line: 2}))
	r.Len(order, 3)
}

func TestInitFailure(t *testing.T) {
	r := require.New(t)

	boom := errors.New("boom")
	broken := modules.New("broken").AddFunction("f", nop)
	broken.Init = func() error { return boom }

	mgr := modules.NewManager(slogt.New(t))
	r.NoError(mgr.Register(broken, modules.New("user", "broken")))

	c := newCompiler(t, mgr)
	err := c.Import("user", compiler.ImportAll, compiler.Location{Line: 1})
	r.ErrorIs(err, boom)
}

func TestMissingRequirement(t *testing.T) {
	r := require.New(t)

	mgr := modules.NewManager(slogt.New(t))
	r.NoError(mgr.Register(modules.New("orphan", "gone")))

	c := newCompiler(t, mgr)
	err := c.Import("orphan", compiler.ImportAll, compiler.Location{Line: 1})
	r.ErrorIs(err, modules.ErrUnknownModule)
}

func TestResolve(t *testing.T) {
	r := require.New(t)

	mgr, err := builtin.NewManager(slogt.New(t))
	r.NoError(err)

	fn, err := mgr.ResolveFunction("std.math", "sqrt")
	r.NoError(err)
	r.True(fn.IsNative())
	r.Equal("std.math.sqrt", fn.QualifiedName())

	_, err = mgr.ResolveFunction("std.math", "tan")
	r.ErrorIs(err, modules.ErrUnknownExport)

	_, err = mgr.ResolveFunction("std.nope", "tan")
	r.ErrorIs(err, modules.ErrUnknownModule)

	typ, err := mgr.ResolveType("Array")
	r.NoError(err)
	r.Equal("Array", typ.Name())

	again, err := mgr.ResolveType("Array")
	r.NoError(err)
	r.Same(typ, again)
}

func TestModules(t *testing.T) {
	r := require.New(t)

	mgr, err := builtin.NewManager(slogt.New(t))
	r.NoError(err)

	r.Equal([]string{
		"db.sqlite3",
		"std.collection",
		"std.concurrent",
		"std.math",
		"std.strings",
		"web.session",
	}, mgr.Modules())
}
