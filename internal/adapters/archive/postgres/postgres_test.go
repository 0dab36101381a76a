package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/vshulcz/Intfstat/internal/domain"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Archive, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	a := New(db)
	return db, mock, a, func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	}
}

func oneCounterSnapshot(value *uint64) domain.Snapshot {
	return domain.Snapshot{
		CapturedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		AllNamespaces: true,
		Ports: map[domain.InterfaceID]domain.PortCounters{
			"Ethernet0": {Counters: map[domain.CounterName]*uint64{domain.RxBytes: value}},
		},
	}
}

const insertPat = `INSERT INTO snapshot_counters \(tag, captured_at, all_namespaces, interface, counter, value\)`

func TestArchive_InsertsValue(t *testing.T) {
	_, mock, a, done := newMock(t)
	defer done()

	s := oneCounterSnapshot(domain.U64(12345))

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insertPat)
	prep.ExpectExec().
		WithArgs("latest", s.CapturedAt, true, "Ethernet0", "rx_bytes", "12345").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := a.Archive(context.TODO(), "latest", s); err != nil {
		t.Fatalf("Archive: %v", err)
	}
}

func TestArchive_AbsentBecomesNull(t *testing.T) {
	_, mock, a, done := newMock(t)
	defer done()

	s := oneCounterSnapshot(nil)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insertPat)
	prep.ExpectExec().
		WithArgs("latest", s.CapturedAt, true, "Ethernet0", "rx_bytes", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := a.Archive(context.TODO(), "latest", s); err != nil {
		t.Fatalf("Archive: %v", err)
	}
}

func TestArchive_RollsBackOnError(t *testing.T) {
	_, mock, a, done := newMock(t)
	defer done()

	s := oneCounterSnapshot(domain.U64(1))
	boom := errors.New("column does not exist")

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insertPat)
	prep.ExpectExec().WillReturnError(boom)
	mock.ExpectRollback()

	err := a.Archive(context.TODO(), "latest", s)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("syntax error"), false},
		{"connection failure code", &pq.Error{Code: pq.ErrorCode(pgerrcode.ConnectionFailure)}, true},
		{"deadlock code", &pq.Error{Code: pq.ErrorCode(pgerrcode.DeadlockDetected)}, true},
		{"class 08 prefix", &pq.Error{Code: "08P99"}, true},
		{"class 40 prefix", &pq.Error{Code: "40P99"}, true},
		{"unique violation", &pq.Error{Code: pq.ErrorCode(pgerrcode.UniqueViolation)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestEmbeddedMigrations_Present(t *testing.T) {
	entries, err := fs.ReadDir(embedMigrations, "migrations")
	if err != nil {
		t.Fatalf("cannot read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migrations found")
	}
}
