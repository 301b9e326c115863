package analysis

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

// PerfAnalyzerBackend is the interface that can record performance data
// entries.
type PerfAnalyzerBackend interface {
	AddDataEntry(entry PerfAnalyzerEntry)
	Flush()
}

// CSVBackend is a PerfAnalyzerBackend that writes data entries to a CSV
// file.
type CSVBackend struct {
	file      *os.File
	csvWriter *csv.Writer
}

// NewCSVPerfAnalyzerBackend creates a new CSVBackend.
func NewCSVPerfAnalyzerBackend(filename string) *CSVBackend {
	p := &CSVBackend{}

	var err error
	p.file, err = os.Create(filename + ".csv")
	if err != nil {
		panic(err)
	}

	p.csvWriter = csv.NewWriter(p.file)

	header := []string{
		"Start", "End", "Where", "What", "EntryType", "Value", "Unit"}
	err = p.csvWriter.Write(header)
	if err != nil {
		panic(err)
	}

	atexit.Register(func() { p.Flush() })

	return p
}

// AddDataEntry adds a data entry to the CSV file.
func (p *CSVBackend) AddDataEntry(entry PerfAnalyzerEntry) {
	err := p.csvWriter.Write([]string{
		fmt.Sprintf("%d", entry.Start),
		fmt.Sprintf("%d", entry.End),
		entry.Where,
		entry.What,
		entry.EntryType,
		fmt.Sprintf("%.10f", entry.Value),
		entry.Unit,
	})
	if err != nil {
		panic(err)
	}
}

// Flush flushes the CSV writer.
func (p *CSVBackend) Flush() {
	p.csvWriter.Flush()
}

// SQLiteBackend is a PerfAnalyzerBackend that writes data entries to a
// SQLite database.
type SQLiteBackend struct {
	*sql.DB
	statement *sql.Stmt

	batchSize int
	entries   []PerfAnalyzerEntry
}

// NewSQLitePerfAnalyzerBackend creates a new SQLiteBackend.
func NewSQLitePerfAnalyzerBackend(filename string) *SQLiteBackend {
	p := &SQLiteBackend{
		batchSize: 50000,
	}

	p.createDatabase(filename + ".sqlite3")
	p.prepareStatement()

	atexit.Register(func() {
		p.Flush()
		err := p.Close()
		if err != nil {
			panic(err)
		}
	})

	return p
}

// AddDataEntry adds a data entry to the database, flushing when the batch is
// full.
func (p *SQLiteBackend) AddDataEntry(entry PerfAnalyzerEntry) {
	p.entries = append(p.entries, entry)
	if len(p.entries) >= p.batchSize {
		p.Flush()
	}
}

// Flush writes all the buffered entries in one transaction.
func (p *SQLiteBackend) Flush() {
	if len(p.entries) == 0 {
		return
	}

	tx, err := p.Begin()
	if err != nil {
		panic(err)
	}

	defer func() {
		innerErr := tx.Commit()
		if innerErr != nil {
			panic(innerErr)
		}
	}()

	for _, entry := range p.entries {
		_, err = tx.Stmt(p.statement).Exec(
			int64(entry.Start),
			int64(entry.End),
			entry.Where,
			entry.What,
			entry.EntryType,
			entry.Value,
			entry.Unit,
		)
		if err != nil {
			panic(err)
		}
	}

	p.entries = p.entries[:0]
}

func (p *SQLiteBackend) createDatabase(filename string) {
	var err error

	_, err = os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	p.DB, err = sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	p.createTable()
}

func (p *SQLiteBackend) createTable() {
	sqlStmt := `
	CREATE TABLE perf (
		id INTEGER NOT NULL PRIMARY KEY,
		start_tick INTEGER,
		end_tick INTEGER,
		location TEXT,
		what TEXT,
		entry_type TEXT,
		value REAL,
		unit TEXT
	);
	`

	_, err := p.Exec(sqlStmt)
	if err != nil {
		panic(err)
	}
}

func (p *SQLiteBackend) prepareStatement() {
	var err error

	sqlStmt := `
	INSERT INTO perf(start_tick, end_tick, location, what, entry_type, value, unit)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	`

	p.statement, err = p.Prepare(sqlStmt)
	if err != nil {
		panic(err)
	}
}
