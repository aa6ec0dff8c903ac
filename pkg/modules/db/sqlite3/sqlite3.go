// Package sqlite3 provides the db.sqlite3 module, a thin binding of SQLite
// databases and result cursors. Rows are fetched as std.collection Maps.
package sqlite3

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/rhino1998/clever/pkg/compiler/kinds"
	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/modules/std/collection"
	"github.com/rhino1998/clever/pkg/value"
)

const Name = "db.sqlite3"

var ErrClosed = errors.New("database is closed")

var (
	DatabaseType = value.NewNativeType("SQLite3")
	ResultType   = value.NewNativeType("SQLite3Result")
)

func init() {
	DatabaseType.SetConstructor(func(result *value.Value, args []*value.Value) error {
		if err := value.CheckArgs(args, "s"); err != nil {
			return err
		}

		db, err := Open(args[0].Str())
		if err != nil {
			return err
		}
		result.SetObject(DatabaseType, db)

		return nil
	})
	DatabaseType.
		AddMethod("exec", dbExec).
		AddMethod("query", dbQuery).
		AddMethod("getLastId", dbLastID).
		AddMethod("close", dbClose)

	ResultType.
		AddMethod("fetch", resultFetch).
		AddMethod("finalize", resultFinalize)
}

func Module() *modules.Module {
	return modules.New(Name, collection.Name).
		AddType(DatabaseType).
		AddType(ResultType)
}

// Database is an open connection. It is closed explicitly by the program or
// when the owning value pool is torn down.
type Database struct {
	mu     sync.Mutex
	db     *sql.DB
	lastID int64
}

func Open(path string) (*Database, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil

	return err
}

// Exec runs a statement and returns the number of rows it affected.
func (d *Database) Exec(query string, args ...any) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return 0, ErrClosed
	}

	res, err := d.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		d.lastID = id
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}

	return n, nil
}

func (d *Database) Query(query string, args ...any) (*Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil, ErrClosed
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("query: %w", err)
	}

	return &Result{rows: rows, cols: cols}, nil
}

func (d *Database) LastID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastID
}

// Result is a forward-only cursor over query rows.
type Result struct {
	mu   sync.Mutex
	rows *sql.Rows
	cols []string
}

// Fetch returns the next row keyed by column name, or nil once the cursor is
// exhausted. An exhausted cursor is finalized.
func (r *Result) Fetch() (*collection.Map, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rows == nil {
		return nil, nil
	}

	if !r.rows.Next() {
		err := r.rows.Err()
		r.rows.Close()
		r.rows = nil
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		return nil, nil
	}

	cells := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	row := collection.NewMap()
	for i, col := range r.cols {
		if err := row.Set(value.String(col), fromSQL(cells[i])); err != nil {
			return nil, err
		}
	}

	return row, nil
}

func (r *Result) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rows == nil {
		return nil
	}

	err := r.rows.Close()
	r.rows = nil

	return err
}

func toSQL(v *value.Value) (any, error) {
	switch v.Kind() {
	case kinds.Void:
		return nil, nil
	case kinds.Int:
		return v.Int(), nil
	case kinds.Double:
		return v.Double(), nil
	case kinds.String:
		return v.Str(), nil
	case kinds.Bool:
		return v.Bool(), nil
	default:
		return nil, fmt.Errorf("%w: cannot bind %s", value.ErrArgType, v.Kind())
	}
}

func fromSQL(cell any) *value.Value {
	switch c := cell.(type) {
	case nil:
		return value.New()
	case int64:
		return value.Int(c)
	case float64:
		return value.Double(c)
	case bool:
		return value.Bool(c)
	case string:
		return value.String(c)
	case []byte:
		return value.String(string(c))
	default:
		return value.String(fmt.Sprint(c))
	}
}

// statement splits method arguments into the SQL text and its bind
// parameters.
func statement(args []*value.Value) (string, []any, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%w: expected at least 1, got 0", value.ErrArity)
	}
	if args[0].Kind() != kinds.String {
		return "", nil, fmt.Errorf("%w: argument 1 is %s", value.ErrArgType, args[0].Kind())
	}

	params := make([]any, 0, len(args)-1)
	for _, arg := range args[1:] {
		p, err := toSQL(arg)
		if err != nil {
			return "", nil, err
		}
		params = append(params, p)
	}

	return args[0].Str(), params, nil
}

func database(this *value.Value) (*Database, error) {
	return value.ObjectOf[*Database](this, DatabaseType)
}

func dbExec(result, this *value.Value, args []*value.Value) error {
	d, err := database(this)
	if err != nil {
		return err
	}

	query, params, err := statement(args)
	if err != nil {
		return err
	}

	n, err := d.Exec(query, params...)
	if err != nil {
		return err
	}
	result.SetInt(n)

	return nil
}

func dbQuery(result, this *value.Value, args []*value.Value) error {
	d, err := database(this)
	if err != nil {
		return err
	}

	query, params, err := statement(args)
	if err != nil {
		return err
	}

	res, err := d.Query(query, params...)
	if err != nil {
		return err
	}
	result.SetObject(ResultType, res)

	return nil
}

func dbLastID(result, this *value.Value, args []*value.Value) error {
	d, err := database(this)
	if err != nil {
		return err
	}

	result.SetInt(d.LastID())
	return nil
}

func dbClose(result, this *value.Value, args []*value.Value) error {
	d, err := database(this)
	if err != nil {
		return err
	}

	result.SetNone()
	return d.Close()
}

func resultFetch(result, this *value.Value, args []*value.Value) error {
	r, err := value.ObjectOf[*Result](this, ResultType)
	if err != nil {
		return err
	}

	row, err := r.Fetch()
	if err != nil {
		return err
	}

	if row == nil {
		result.SetBool(false)
		return nil
	}
	result.Assign(row.Value())

	return nil
}

func resultFinalize(result, this *value.Value, args []*value.Value) error {
	r, err := value.ObjectOf[*Result](this, ResultType)
	if err != nil {
		return err
	}

	result.SetNone()
	return r.Close()
}
