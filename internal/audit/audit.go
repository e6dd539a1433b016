// Package audit persists station lifecycle events (admission, removal,
// calibration, session end) to a SQLite database, a supplemented
// feature grounded on main/datalog.go's sql.Open("sqlite3", ...)
// pattern, trimmed to a fixed schema instead of that file's
// reflection-driven struct-to-table mapper: Genesis logs one event
// shape, not an open set of telemetry records.
package audit

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Kind is the category of an audit event.
type Kind string

const (
	KindAdmitted     Kind = "admitted"
	KindRejected     Kind = "rejected"
	KindRemoved      Kind = "removed"
	KindCalibrated   Kind = "calibrated"
	KindSessionEnded Kind = "session_ended"
)

// Log appends station lifecycle events to a SQLite database.
type Log struct {
	db *sql.DB
}

// Open creates path if necessary and ensures the events table exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS events (
		id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		kind TEXT NOT NULL,
		station TEXT NOT NULL,
		detail TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db: db}, nil
}

// Record inserts one event row.
func (l *Log) Record(kind Kind, stationAddr, detail string) error {
	_, err := l.db.Exec(
		"INSERT INTO events (ts, kind, station, detail) VALUES (?, ?, ?, ?)",
		time.Now().Unix(), string(kind), stationAddr, detail,
	)
	return err
}

// Close closes the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}
