package tracing

import (
	"database/sql"
	"fmt"

	"github.com/hdlab/svsim/sim"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

// TaskQuery describes a filter for reading tasks back from a trace
// database. Zero-valued fields do not constrain the query.
type TaskQuery struct {
	ID       string
	ParentID string
	Kind     string
	Where    string

	EnableTimeRange    bool
	StartTime, EndTime sim.SimTime

	EnableParentTask bool
}

// TraceReader reads tasks back from a trace database written by a DBTracer.
type TraceReader struct {
	*sql.DB
}

// NewTraceReader opens a trace database file.
func NewTraceReader(filename string) *TraceReader {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	return &TraceReader{DB: db}
}

// ListLocations returns the distinct locations that appear in the trace.
func (r *TraceReader) ListLocations() []string {
	return r.listDistinct("Location")
}

// ListKinds returns the distinct task kinds that appear in the trace.
func (r *TraceReader) ListKinds() []string {
	return r.listDistinct("Kind")
}

func (r *TraceReader) listDistinct(column string) []string {
	var values []string

	rows, err := r.Query(
		fmt.Sprintf("SELECT DISTINCT %s FROM trace", column))
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		err := rows.Scan(&value)
		if err != nil {
			panic(err)
		}
		values = append(values, value)
	}

	return values
}

// ListTasks returns the tasks that match the query.
func (r *TraceReader) ListTasks(query TaskQuery) []Task {
	sqlStr, args := r.prepareTaskQueryStr(query)

	rows, err := r.Query(sqlStr, args...)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t := Task{}
		pt := Task{}

		if query.EnableParentTask {
			t.ParentTask = &pt
			err := rows.Scan(
				&t.ID, &t.ParentID, &t.Kind, &t.What, &t.Where,
				&t.StartTime, &t.EndTime,
				&pt.ID, &pt.ParentID, &pt.Kind, &pt.What, &pt.Where,
				&pt.StartTime, &pt.EndTime,
			)
			if err != nil {
				panic(err)
			}
		} else {
			err := rows.Scan(
				&t.ID, &t.ParentID, &t.Kind, &t.What, &t.Where,
				&t.StartTime, &t.EndTime,
			)
			if err != nil {
				panic(err)
			}
		}

		tasks = append(tasks, t)
	}

	return tasks
}

// ListSteps returns the steps recorded for a task.
func (r *TraceReader) ListSteps(taskID string) []TaskStep {
	rows, err := r.Query(
		"SELECT Tick, What FROM trace_steps WHERE TaskID = ? ORDER BY Tick",
		taskID)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	steps := []TaskStep{}
	for rows.Next() {
		s := TaskStep{}
		err := rows.Scan(&s.Tick, &s.What)
		if err != nil {
			panic(err)
		}
		steps = append(steps, s)
	}

	return steps
}

func (r *TraceReader) prepareTaskQueryStr(query TaskQuery) (string, []any) {
	sqlStr := `
		SELECT
			t.ID,
			t.ParentID,
			t.Kind,
			t.What,
			t.Location,
			t.StartTime,
			t.EndTime
	`

	if query.EnableParentTask {
		sqlStr += `,
			pt.ID,
			pt.ParentID,
			pt.Kind,
			pt.What,
			pt.Location,
			pt.StartTime,
			pt.EndTime
		`
	}

	sqlStr += `
		FROM trace t
	`

	if query.EnableParentTask {
		sqlStr += `
			LEFT JOIN trace pt
			ON t.ParentID = pt.ID
		`
	}

	return r.addQueryConditionsToQueryStr(sqlStr, query)
}

func (r *TraceReader) addQueryConditionsToQueryStr(
	sqlStr string,
	query TaskQuery,
) (string, []any) {
	sqlStr += `
		WHERE 1=1
	`

	args := []any{}

	if query.ID != "" {
		sqlStr += " AND t.ID = ?"
		args = append(args, query.ID)
	}

	if query.ParentID != "" {
		sqlStr += " AND t.ParentID = ?"
		args = append(args, query.ParentID)
	}

	if query.Kind != "" {
		sqlStr += " AND t.Kind = ?"
		args = append(args, query.Kind)
	}

	if query.Where != "" {
		sqlStr += " AND t.Location = ?"
		args = append(args, query.Where)
	}

	if query.EnableTimeRange {
		sqlStr += " AND t.EndTime > ? AND t.StartTime < ?"
		args = append(args, uint64(query.StartTime), uint64(query.EndTime))
	}

	return sqlStr, args
}
