// Package datarecording stores simulation statistics in SQLite databases.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A DataRecorder records rows of flat structs into named tables.
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of the
	// sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one entry for a table created earlier.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered entries to the database.
	Flush()
}

// New creates a DataRecorder writing to path + ".sqlite3". An empty path
// picks a unique name. The recorder flushes at process exit.
func New(path string) DataRecorder {
	if path == "" {
		path = "ramsim_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("datarecording: %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r := newWithDB(db)

	fmt.Fprintf(os.Stderr, "Statistics database: %s\n", filename)

	return r
}

// NewWithDB creates a DataRecorder over an existing database connection.
func NewWithDB(db *sql.DB) DataRecorder {
	return newWithDB(db)
}

func newWithDB(db *sql.DB) *recorder {
	r := &recorder{
		db:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(r.Flush)

	return r
}

type table struct {
	entryType reflect.Type
	pending   []any
}

type recorder struct {
	db *sql.DB

	tables    map[string]*table
	batchSize int
	buffered  int
}

func (r *recorder) CreateTable(tableName string, sampleEntry any) {
	mustBeFlatStruct(sampleEntry)

	columns := strings.Join(structs.Names(sampleEntry), ",\n\t")
	r.mustExec("CREATE TABLE " + tableName + " (\n\t" + columns + "\n);")

	r.tables[tableName] = &table{
		entryType: reflect.TypeOf(sampleEntry),
	}
}

func (r *recorder) InsertData(tableName string, entry any) {
	t, ok := r.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("datarecording: table %s does not exist",
			tableName))
	}

	if reflect.TypeOf(entry) != t.entryType {
		panic(fmt.Sprintf("datarecording: entry type mismatch for %s",
			tableName))
	}

	t.pending = append(t.pending, entry)

	r.buffered++
	if r.buffered >= r.batchSize {
		r.Flush()
	}
}

func (r *recorder) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	return names
}

func (r *recorder) Flush() {
	if r.buffered == 0 {
		return
	}

	r.mustExec("BEGIN TRANSACTION")
	defer r.mustExec("COMMIT TRANSACTION")

	for name, t := range r.tables {
		r.flushTable(name, t)
	}

	r.buffered = 0
}

func (r *recorder) flushTable(name string, t *table) {
	if len(t.pending) == 0 {
		return
	}

	placeholders := make([]string, t.entryType.NumField())
	for i := range placeholders {
		placeholders[i] = "?"
	}

	stmt, err := r.db.Prepare("INSERT INTO " + name + " VALUES (" +
		strings.Join(placeholders, ", ") + ")")
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, entry := range t.pending {
		value := reflect.ValueOf(entry)

		args := make([]any, value.NumField())
		for i := range args {
			args[i] = value.Field(i).Interface()
		}

		if _, err := stmt.Exec(args...); err != nil {
			panic(err)
		}
	}

	t.pending = nil
}

func (r *recorder) mustExec(query string) {
	if _, err := r.db.Exec(query); err != nil {
		panic(fmt.Errorf("datarecording: %q failed: %w", query, err))
	}
}

func mustBeFlatStruct(entry any) {
	t := reflect.TypeOf(entry)
	if t.Kind() != reflect.Struct {
		panic("datarecording: entries must be structs")
	}

	for i := 0; i < t.NumField(); i++ {
		switch t.Field(i).Type.Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16,
			reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16,
			reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64,
			reflect.String:
		default:
			panic(fmt.Sprintf(
				"datarecording: field %s has unsupported type",
				t.Field(i).Name))
		}
	}
}
