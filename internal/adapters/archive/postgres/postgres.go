// Package postgres implements a best-effort long-term archive of saved
// baseline snapshots, one row per interface counter.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/misc"
	"github.com/vshulcz/Intfstat/internal/ports"
)

// Archive persists snapshots in Postgres with retryable operations.
type Archive struct {
	db *sql.DB
}

var _ ports.SnapshotArchive = (*Archive)(nil)

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
	pgerrcode.QueryCanceled:                                 {},
}

// New returns a Postgres-backed archive.
func New(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// Archive inserts every counter of the snapshot in one transaction.
// Absent counters are stored as SQL NULL, so the absent-vs-zero
// distinction survives the archive as well.
func (a *Archive) Archive(ctx context.Context, tag string, s domain.Snapshot) error {
	const q = `
INSERT INTO snapshot_counters (tag, captured_at, all_namespaces, interface, counter, value)
VALUES ($1, $2, $3, $4, $5, $6);`

	op := func() (retErr error) {
		tx, err := a.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			if retErr != nil {
				_ = tx.Rollback()
			}
		}()

		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil && retErr == nil {
				retErr = cerr
			}
		}()

		for id, pc := range s.Ports {
			for name, v := range pc.Counters {
				var val any
				if v != nil {
					// NUMERIC column: format as text so a full-width
					// uint64 does not overflow int64 on the way in.
					val = strconv.FormatUint(*v, 10)
				}
				if _, err := stmt.ExecContext(ctx, tag, s.CapturedAt, s.AllNamespaces, string(id), string(name), val); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, IsRetryable, op); err != nil {
		return fmt.Errorf("archive snapshot %q: %w", tag, err)
	}
	return nil
}

// Ping verifies connectivity.
func (a *Archive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// IsRetryable reports whether the error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	if strings.HasPrefix(code, "08") {
		return true
	}
	if strings.HasPrefix(code, "40") {
		return true
	}
	return false
}
