package sqlite3_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhino1998/clever/pkg/modules/db/sqlite3"
	"github.com/rhino1998/clever/pkg/value"
)

func open(t *testing.T) *sqlite3.Database {
	t.Helper()

	db, err := sqlite3.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestExecAndQuery(t *testing.T) {
	r := require.New(t)
	db := open(t)

	_, err := db.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, score REAL)")
	r.NoError(err)

	n, err := db.Exec("INSERT INTO users (name, score) VALUES (?, ?), (?, ?)", "alice", 1.5, "bob", nil)
	r.NoError(err)
	r.Equal(int64(2), n)
	r.Equal(int64(2), db.LastID())

	res, err := db.Query("SELECT id, name, score FROM users ORDER BY id")
	r.NoError(err)

	row, err := res.Fetch()
	r.NoError(err)
	r.NotNil(row)
	r.Equal("{id: 1, name: alice, score: 1.5}", row.String())

	row, err = res.Fetch()
	r.NoError(err)
	score, ok, err := row.Get(value.String("score"))
	r.NoError(err)
	r.True(ok)
	r.True(score.IsNone())

	row, err = res.Fetch()
	r.NoError(err)
	r.Nil(row)

	// exhausted cursors stay exhausted
	row, err = res.Fetch()
	r.NoError(err)
	r.Nil(row)
	r.NoError(res.Close())
}

func TestClosedDatabase(t *testing.T) {
	r := require.New(t)
	db := open(t)

	r.NoError(db.Close())
	r.NoError(db.Close())

	_, err := db.Exec("SELECT 1")
	r.ErrorIs(err, sqlite3.ErrClosed)

	_, err = db.Query("SELECT 1")
	r.ErrorIs(err, sqlite3.ErrClosed)
}

func TestBadStatement(t *testing.T) {
	r := require.New(t)
	db := open(t)

	_, err := db.Exec("CREATE TABLUH")
	r.Error(err)
}

func TestMethods(t *testing.T) {
	r := require.New(t)

	call := func(typ value.Type, this *value.Value, name string, args ...*value.Value) (*value.Value, error) {
		m, ok := typ.Method(name)
		r.True(ok, name)
		result := value.New()
		return result, m(result, this, args)
	}

	db := value.New()
	r.NoError(sqlite3.DatabaseType.Construct(db, []*value.Value{value.String(":memory:")}))
	t.Cleanup(func() {
		d, _ := value.ObjectOf[*sqlite3.Database](db, sqlite3.DatabaseType)
		d.Close()
	})

	_, err := call(sqlite3.DatabaseType, db, "exec", value.String("CREATE TABLE kv (k TEXT, v INTEGER)"))
	r.NoError(err)

	n, err := call(sqlite3.DatabaseType, db, "exec", value.String("INSERT INTO kv VALUES (?, ?)"), value.String("a"), value.Int(7))
	r.NoError(err)
	r.Equal(int64(1), n.Int())

	id, err := call(sqlite3.DatabaseType, db, "getLastId")
	r.NoError(err)
	r.Equal(int64(1), id.Int())

	_, err = call(sqlite3.DatabaseType, db, "exec")
	r.ErrorIs(err, value.ErrArity)

	_, err = call(sqlite3.DatabaseType, db, "exec", value.Int(1))
	r.ErrorIs(err, value.ErrArgType)

	res, err := call(sqlite3.DatabaseType, db, "query", value.String("SELECT v FROM kv WHERE k = ?"), value.String("a"))
	r.NoError(err)
	r.Equal(sqlite3.ResultType, res.Type())

	row, err := call(sqlite3.ResultType, res, "fetch")
	r.NoError(err)
	r.Equal("{v: 7}", row.String())

	done, err := call(sqlite3.ResultType, res, "fetch")
	r.NoError(err)
	r.False(done.Truthy())

	_, err = call(sqlite3.ResultType, res, "finalize")
	r.NoError(err)

	_, err = call(sqlite3.DatabaseType, db, "close")
	r.NoError(err)

	_, err = call(sqlite3.DatabaseType, db, "exec", value.String("SELECT 1"))
	r.ErrorIs(err, sqlite3.ErrClosed)
}
