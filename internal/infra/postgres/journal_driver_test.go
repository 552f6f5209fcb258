package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"qlweb/internal/domain"
)

type drvMode struct {
	schemaErr bool
	insertErr bool
	queryErr  bool
}

var (
	testDriverCounter atomic.Int64
	testMode          drvMode
	lastInsert        []driver.NamedValue
	schemaCalls       int
)

type fakeDriver struct{}

type fakeConn struct{}

type fakeRows struct {
	cols []string
	data [][]driver.Value
	i    int
}

func (d fakeDriver) Open(name string) (driver.Conn, error) { return fakeConn{}, nil }
func (c fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("not implemented")
}
func (c fakeConn) Close() error              { return nil }
func (c fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("not implemented") }

func (c fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if strings.Contains(query, "CREATE") {
		schemaCalls++
		if testMode.schemaErr {
			return nil, errors.New("schema failed")
		}
		return driver.RowsAffected(0), nil
	}
	if testMode.insertErr {
		return nil, errors.New("insert failed")
	}
	lastInsert = args
	return driver.RowsAffected(1), nil
}

func (c fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if testMode.queryErr {
		return nil, errors.New("query failed")
	}
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return &fakeRows{
		cols: []string{"request_id", "kind", "label_size", "model", "printer", "rows", "bytes", "dry_run", "success", "error", "created_at"},
		data: [][]driver.Value{
			{"r2", "grocy", "62", "QL-710W", "tcp://p", int64(180), int64(16500), false, false, "connection refused", at},
			{"r1", "text", "29x90", "QL-710W", "tcp://p", int64(991), int64(90000), true, true, "", at.Add(-time.Hour)},
		},
	}, nil
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	name := fmt.Sprintf("fakedrv_%d", testDriverCounter.Add(1))
	sql.Register(name, fakeDriver{})
	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Journal{DB: &DB{db: db, dsn: "x"}, DSN: "x"}
}

func TestJournal_RecordWritesAllColumns(t *testing.T) {
	testMode = drvMode{}
	schemaCalls = 0
	j := openTestJournal(t)

	rec := domain.PrintRecord{
		RequestID: "req-1",
		Kind:      domain.PrintText,
		LabelSize: "62",
		Model:     "QL-710W",
		Printer:   "tcp://printer",
		Rows:      120,
		Bytes:     11000,
		Success:   true,
	}
	if err := j.Record(context.Background(), rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.Record(context.Background(), rec); err != nil {
		t.Fatalf("second record: %v", err)
	}
	if schemaCalls != 2 {
		t.Fatalf("expected schema to be created once (2 statements), got %d", schemaCalls)
	}
	if len(lastInsert) != 11 {
		t.Fatalf("expected 11 insert args, got %d", len(lastInsert))
	}
	if lastInsert[0].Value != "req-1" || lastInsert[1].Value != "text" {
		t.Fatalf("unexpected insert args: %+v", lastInsert[:2])
	}
	if ts, ok := lastInsert[10].Value.(time.Time); !ok || ts.IsZero() {
		t.Fatalf("expected created_at to be filled, got %v", lastInsert[10].Value)
	}
}

func TestJournal_Errors(t *testing.T) {
	testMode = drvMode{schemaErr: true}
	j := openTestJournal(t)
	if err := j.Record(context.Background(), domain.PrintRecord{}); err == nil {
		t.Fatalf("expected schema error")
	}

	testMode = drvMode{insertErr: true}
	j = openTestJournal(t)
	if err := j.Record(context.Background(), domain.PrintRecord{}); err == nil {
		t.Fatalf("expected insert error")
	}

	testMode = drvMode{queryErr: true}
	j = openTestJournal(t)
	if _, err := j.Recent(context.Background(), 10); err == nil {
		t.Fatalf("expected query error")
	}
}

func TestJournal_SchemaRetriedAfterFailure(t *testing.T) {
	testMode = drvMode{schemaErr: true}
	schemaCalls = 0
	j := openTestJournal(t)

	if err := j.Record(context.Background(), domain.PrintRecord{RequestID: "early"}); err == nil {
		t.Fatalf("expected schema error while the database is down")
	}

	testMode = drvMode{}
	if err := j.Record(context.Background(), domain.PrintRecord{RequestID: "late"}); err != nil {
		t.Fatalf("record after recovery: %v", err)
	}
	if lastInsert[0].Value != "late" {
		t.Fatalf("unexpected insert args: %+v", lastInsert[:1])
	}
	if _, err := j.Recent(context.Background(), 5); err != nil {
		t.Fatalf("recent after recovery: %v", err)
	}
	// One failed CREATE, then the table and index once.
	if schemaCalls != 3 {
		t.Fatalf("expected 3 schema statements, got %d", schemaCalls)
	}
}

func TestJournal_Recent(t *testing.T) {
	testMode = drvMode{}
	j := openTestJournal(t)

	out, err := j.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Kind != domain.PrintGrocy || out[0].Success || out[0].Error != "connection refused" {
		t.Fatalf("unexpected first record: %+v", out[0])
	}
	if out[1].Rows != 991 || !out[1].DryRun {
		t.Fatalf("unexpected second record: %+v", out[1])
	}
}
