package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/skilltree/internal/db"
	"github.com/stretchr/testify/require"
)

// NewDB opens a migrated in-memory skill tree database that lives as long
// as the test.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// ExecFault is a db.UnitOfWork whose transactions fail the Nth write
// statement, counting from 1, with Err. Reads are not counted. Gateway tests
// use it to break multi-statement writes halfway and check the rollback.
type ExecFault struct {
	DB  *sql.DB
	Nth int
	Err error
}

func (u *ExecFault) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	wrap := func(tx db.DBTX) db.DBTX { return &faultyExec{DBTX: tx, fault: u} }
	return db.RunTx(ctx, u.DB, wrap, fn)
}

type faultyExec struct {
	db.DBTX
	fault  *ExecFault
	writes int
}

func (f *faultyExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.writes++
	if f.writes == f.fault.Nth {
		return nil, f.fault.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
