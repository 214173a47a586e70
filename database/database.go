package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/Hamstertjie/Learn-With-Hamster-App/config"
	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

var (
	ErrDBNotFound        = errors.New("not found")
	ErrDBDuplicatedEntry = errors.New("duplicated entry")
)

//go:embed migrations/*.sql
var migrations embed.FS

func Open(cfg config.DB) (*sqlx.DB, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open("postgres", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	return db, nil
}

func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	var tmp bool
	return db.QueryRowContext(ctx, "SELECT true").Scan(&tmp)
}

// Migrate brings the schema up to the latest embedded migration.
func Migrate(db *sqlx.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("opening migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func Transaction(ctx context.Context, db *sqlx.DB, f func(tx sqlx.ExtContext) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := f(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rerr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Classify maps driver errors onto the package sentinels.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDBNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDBDuplicatedEntry
	}
	return err
}

func NamedExecContext(ctx context.Context, db sqlx.ExtContext, query string, data any) error {
	if _, err := sqlx.NamedExecContext(ctx, db, query, data); err != nil {
		return Classify(err)
	}
	return nil
}

func GetContext(ctx context.Context, db sqlx.QueryerContext, dest any, query string, args ...any) error {
	if err := sqlx.GetContext(ctx, db, dest, query, args...); err != nil {
		return Classify(err)
	}
	return nil
}

func SelectContext(ctx context.Context, db sqlx.QueryerContext, dest any, query string, args ...any) error {
	if err := sqlx.SelectContext(ctx, db, dest, query, args...); err != nil {
		return Classify(err)
	}
	return nil
}

// InsertReturningID runs a named INSERT ... RETURNING id and returns the id.
func InsertReturningID(ctx context.Context, db sqlx.ExtContext, query string, data any) (int64, error) {
	q, args, err := sqlx.Named(query, data)
	if err != nil {
		return 0, fmt.Errorf("binding named query: %w", err)
	}
	q = db.Rebind(q)

	var id int64
	if err := db.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
		return 0, Classify(err)
	}
	return id, nil
}

// MissingIDs returns the ids that have no row in table, in input order.
// table must be a trusted identifier.
func MissingIDs(ctx context.Context, db sqlx.QueryerContext, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []int64
	q := "SELECT id FROM " + table + " WHERE id = ANY($1)"
	if err := SelectContext(ctx, db, &found, q, pq.Array(ids)); err != nil {
		return nil, err
	}

	have := make(map[int64]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Count returns the number of rows in table.
func Count(ctx context.Context, db sqlx.QueryerContext, table string) (int64, error) {
	var n int64
	if err := GetContext(ctx, db, &n, "SELECT count(*) FROM "+table); err != nil {
		return 0, err
	}
	return n, nil
}

// SelectPage runs base (a SELECT without ORDER BY) for the slice req asks
// for. Paged requests also count the rows of table.
func SelectPage[T any](ctx context.Context, db sqlx.QueryerContext, base, table string, req page.Request, sortable map[string]string) (page.Page[T], error) {
	q := base + page.OrderBy(req.Sort, sortable)

	var args []any
	if !req.Unpaged {
		q += " LIMIT $1 OFFSET $2"
		args = append(args, req.Size, req.Offset())
	}

	var content []T
	if err := SelectContext(ctx, db, &content, q, args...); err != nil {
		return page.Page[T]{}, err
	}

	total := int64(len(content))
	if !req.Unpaged {
		n, err := Count(ctx, db, table)
		if err != nil {
			return page.Page[T]{}, err
		}
		total = n
	}

	return page.New(content, req, total), nil
}

// ExecAffected runs query and fails with ErrDBNotFound when no row changed.
func ExecAffected(ctx context.Context, db sqlx.ExecerContext, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDBNotFound
	}
	return nil
}

// NamedExecAffected is ExecAffected for named queries.
func NamedExecAffected(ctx context.Context, db sqlx.ExtContext, query string, data any) error {
	res, err := sqlx.NamedExecContext(ctx, db, query, data)
	if err != nil {
		return Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDBNotFound
	}
	return nil
}
