// Package datasource implements the server-side collaborator for pgtop:
// version-aware queries over pg_stat_activity and pg_locks, plus the
// one-shot cancel/terminate signals. It delivers uniform, pre-normalized
// rows so the engine never sees SQL or server-version differences.
package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rileyhilliard/pgtop/internal/activity"
	"github.com/rileyhilliard/pgtop/internal/errors"
	"github.com/rileyhilliard/pgtop/internal/logger"
)

// Server version thresholds (server_version_num encoding).
const (
	versionWaitEvent    = 90600  // wait_event replaced the waiting boolean
	versionBackendType  = 100000 // backend_type column appeared
	versionBlockingPids = 90600  // pg_blocking_pids()
)

// querier is the subset of *pgx.Conn the data source needs. Narrowed so
// tests can substitute a fake.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Filters narrows fetches server-side. Zero values mean "no filter".
type Filters struct {
	Database    string
	User        string
	MinDuration float64 // seconds
}

// Postgres is the pgx-backed data source.
type Postgres struct {
	db      querier
	version int
	filters Filters
	log     logger.Logger
}

// New probes the server version and returns a ready data source.
func New(ctx context.Context, conn *pgx.Conn, filters Filters, log logger.Logger) (*Postgres, error) {
	if log == nil {
		log = logger.Noop()
	}
	var version int
	err := conn.QueryRow(ctx, "SELECT current_setting('server_version_num')::int").Scan(&version)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery,
			"Could not determine the server version",
			"pgtop needs SELECT on current_setting(); any role has that.")
	}
	log.Debug("server version %d", version)
	return &Postgres{db: conn, version: version, filters: filters, log: log}, nil
}

// newWithVersion skips the version probe; tests use it.
func newWithVersion(db querier, version int, filters Filters, log logger.Logger) *Postgres {
	if log == nil {
		log = logger.Noop()
	}
	return &Postgres{db: db, version: version, filters: filters, log: log}
}

// FetchRunning returns the currently active backends.
func (p *Postgres) FetchRunning(ctx context.Context) ([]activity.RunningRow, error) {
	sql, args := p.runningQuery()
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery,
			"Activity query failed", "")
	}
	defer rows.Close()

	var out []activity.RunningRow
	for rows.Next() {
		var r activity.RunningRow
		var state, waitEvent, backendType string
		if err := rows.Scan(&r.PID, &r.Database, &r.AppName, &r.User, &r.Client,
			&state, &waitEvent, &r.Query, &r.Duration, &backendType); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrQuery,
				"Unexpected activity row shape", "")
		}
		r.State = ParseState(state)
		r.Query = NormalizeQuery(r.Query)
		r.Duration = clampDuration(r.Duration)
		r.WaitEvent = waitEvent
		r.Waiting = waitEvent != ""
		r.ParallelWorker = backendType == "parallel worker"
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchWaiting returns backends waiting on an ungranted lock.
func (p *Postgres) FetchWaiting(ctx context.Context) ([]activity.LockRow, error) {
	sql, args := p.lockQuery(false)
	return p.fetchLocks(ctx, sql, args)
}

// FetchBlocking returns backends holding locks that others wait on.
func (p *Postgres) FetchBlocking(ctx context.Context) ([]activity.LockRow, error) {
	sql, args := p.lockQuery(true)
	return p.fetchLocks(ctx, sql, args)
}

func (p *Postgres) fetchLocks(ctx context.Context, sql string, args []any) ([]activity.LockRow, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery,
			"Lock query failed", "")
	}
	defer rows.Close()

	var out []activity.LockRow
	for rows.Next() {
		var r activity.LockRow
		var state, mode, lockType string
		if err := rows.Scan(&r.PID, &r.Database, &r.AppName, &r.User, &r.Client,
			&state, &r.Query, &r.Duration, &mode, &lockType, &r.Relation); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrQuery,
				"Unexpected lock row shape", "")
		}
		r.State = ParseState(state)
		r.Query = NormalizeQuery(r.Query)
		r.Duration = clampDuration(r.Duration)
		r.LockMode = activity.LockMode(mode)
		r.LockType = activity.LockType(lockType)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Cancel asks the server to interrupt the backend's current query.
func (p *Postgres) Cancel(ctx context.Context, pid int32) (bool, error) {
	return p.signal(ctx, "SELECT pg_cancel_backend($1)", pid)
}

// Terminate asks the server to kill the backend.
func (p *Postgres) Terminate(ctx context.Context, pid int32) (bool, error) {
	return p.signal(ctx, "SELECT pg_terminate_backend($1)", pid)
}

func (p *Postgres) signal(ctx context.Context, sql string, pid int32) (bool, error) {
	var ok bool
	if err := p.db.QueryRow(ctx, sql, pid).Scan(&ok); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Server refused the signal for backend %d", pid),
			"Signalling other roles' backends needs superuser or pg_signal_backend.")
	}
	return ok, nil
}

// runningQuery builds the pg_stat_activity query for this server version.
func (p *Postgres) runningQuery() (string, []any) {
	waitCol := "COALESCE(wait_event, '')"
	if p.version < versionWaitEvent {
		// Ancient servers only expose a boolean.
		waitCol = "CASE WHEN waiting THEN 'waiting' ELSE '' END"
	}
	typeCol := "COALESCE(backend_type, '')"
	if p.version < versionBackendType {
		typeCol = "''"
	}

	where, args := p.filterClauses("datname", "usename", "query_start")
	where = append([]string{
		"state IS NOT NULL",
		"state <> 'idle'",
		"pid <> pg_backend_pid()",
	}, where...)

	sql := fmt.Sprintf(`SELECT pid,
       COALESCE(datname, ''),
       COALESCE(application_name, ''),
       COALESCE(usename, ''),
       COALESCE(client_addr::text, ''),
       COALESCE(state, ''),
       %s,
       COALESCE(query, ''),
       COALESCE(EXTRACT(EPOCH FROM (clock_timestamp() - query_start)), 0),
       %s
  FROM pg_stat_activity
 WHERE %s
 ORDER BY query_start`, waitCol, typeCol, strings.Join(where, "\n   AND "))
	return sql, args
}

// lockQuery builds the pg_locks query: granted=false selects waiting
// backends, granted=true selects the blockers holding contested locks.
func (p *Postgres) lockQuery(blocking bool) (string, []any) {
	where, args := p.filterClauses("a.datname", "a.usename", "a.query_start")

	var grant string
	if blocking {
		if p.version >= versionBlockingPids {
			grant = `l.granted
   AND l.pid IN (SELECT unnest(pg_blocking_pids(b.pid))
                   FROM pg_stat_activity b
                  WHERE cardinality(pg_blocking_pids(b.pid)) > 0)`
		} else {
			// Classic self-join: a granted lock on the same resource
			// someone else is queued on.
			grant = `l.granted
   AND EXISTS (SELECT 1
                 FROM pg_locks w
                WHERE NOT w.granted
                  AND w.locktype = l.locktype
                  AND w.database IS NOT DISTINCT FROM l.database
                  AND w.relation IS NOT DISTINCT FROM l.relation
                  AND w.transactionid IS NOT DISTINCT FROM l.transactionid
                  AND w.pid <> l.pid)`
		}
	} else {
		grant = "NOT l.granted"
	}
	where = append([]string{grant, "a.pid <> pg_backend_pid()"}, where...)

	sql := fmt.Sprintf(`SELECT DISTINCT ON (l.pid) l.pid,
       COALESCE(a.datname, ''),
       COALESCE(a.application_name, ''),
       COALESCE(a.usename, ''),
       COALESCE(a.client_addr::text, ''),
       COALESCE(a.state, ''),
       COALESCE(a.query, ''),
       COALESCE(EXTRACT(EPOCH FROM (clock_timestamp() - a.query_start)), 0),
       l.mode,
       l.locktype,
       COALESCE(l.relation::regclass::text, '')
  FROM pg_locks l
  JOIN pg_stat_activity a ON a.pid = l.pid
 WHERE %s
 ORDER BY l.pid, a.query_start`, strings.Join(where, "\n   AND "))
	return sql, args
}

// filterClauses renders the configured filters as WHERE conditions with
// positional arguments.
func (p *Postgres) filterClauses(dbCol, userCol, startCol string) ([]string, []any) {
	var clauses []string
	var args []any

	if p.filters.Database != "" {
		args = append(args, p.filters.Database)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", dbCol, len(args)))
	}
	if p.filters.User != "" {
		args = append(args, p.filters.User)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", userCol, len(args)))
	}
	if p.filters.MinDuration > 0 {
		args = append(args, p.filters.MinDuration)
		clauses = append(clauses, fmt.Sprintf(
			"EXTRACT(EPOCH FROM (clock_timestamp() - %s)) >= $%d", startCol, len(args)))
	}
	return clauses, args
}

// ParseState maps a pg_stat_activity state string onto the engine's enum.
func ParseState(state string) activity.BackendState {
	switch state {
	case "active":
		return activity.StateActive
	case "idle":
		return activity.StateIdle
	case "idle in transaction":
		return activity.StateIdleInTx
	case "idle in transaction (aborted)":
		return activity.StateIdleInTxAborted
	default:
		return activity.StateOther
	}
}

// NormalizeQuery collapses runs of whitespace (including newlines) so a
// query renders on a single table row.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// clampDuration guards against server clock skew making query_start sit
// in the future.
func clampDuration(d float64) float64 {
	if d < 0 {
		return 0
	}
	return d
}
