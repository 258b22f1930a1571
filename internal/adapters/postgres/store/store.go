package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/postgres"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

// DefaultAcquireTimeout matches the client timeout the benchmark was calibrated with.
const DefaultAcquireTimeout = 2 * time.Minute

// Store is a Postgres implementation of store.Store. Each call holds one
// pooled connection for its whole duration.
type Store struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	closed         atomic.Bool
}

func NewStore(pool *pgxpool.Pool, acquireTimeout time.Duration) *Store {
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	return &Store{pool: pool, acquireTimeout: acquireTimeout}
}

var _ store.Store = (*Store)(nil)

// Close releases the pool. Later calls fail with store.ErrClosed.
func (s *Store) Close() {
	if s.closed.Swap(true) {
		return
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// QueryResult is the raw outcome of RawQuery.
type QueryResult struct {
	RowCount int64
	Rows     [][]any
}

// RawQuery runs an arbitrary statement on one pooled connection.
func (s *Store) RawQuery(ctx context.Context, sql string, args ...any) (QueryResult, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return QueryResult{}, &store.Error{Op: "query", Err: err}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return QueryResult{}, &store.Error{Op: "query", Err: err}
	}
	defer rows.Close()

	var out QueryResult
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return QueryResult{}, &store.Error{Op: "query", Err: err}
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, &store.Error{Op: "query", Err: err}
	}
	out.RowCount = rows.CommandTag().RowsAffected()
	return out, nil
}

func (s *Store) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	if s.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	actx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()
	conn, err := s.pool.Acquire(actx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, store.ErrAcquireTimeout
		}
		return nil, err
	}
	return conn, nil
}

func table(st domain.Strategy, name string) (string, error) {
	if !st.Valid() {
		return "", store.ErrUnknownStrategy
	}
	return pgx.Identifier{st.Schema(), name}.Sanitize(), nil
}

func (s *Store) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func mapPgError(err error) error {
	if pe, ok := postgres.AsPgError(err); ok {
		switch pe.Code {
		case postgres.UniqueViolationCode:
			return fmt.Errorf("%w: %s", store.ErrDuplicate, pe.ConstraintName)
		case postgres.ForeignKeyViolationCode:
			return fmt.Errorf("%w: %s", store.ErrForeignKey, pe.ConstraintName)
		}
	}
	return err
}

func (s *Store) Insert(ctx context.Context, st domain.Strategy, rec domain.Record) (int64, error) {
	n, err := s.write(ctx, st, rec, false)
	if err != nil {
		return 0, &store.Error{Op: "insert", Strategy: st, Entity: kindOf(rec), ID: idOf(rec), Err: err}
	}
	return n, nil
}

func (s *Store) Update(ctx context.Context, st domain.Strategy, rec domain.Record) (int64, error) {
	n, err := s.write(ctx, st, rec, true)
	if err != nil {
		return 0, &store.Error{Op: "update", Strategy: st, Entity: kindOf(rec), ID: idOf(rec), Err: err}
	}
	return n, nil
}

func (s *Store) write(ctx context.Context, st domain.Strategy, rec domain.Record, update bool) (int64, error) {
	switch r := rec.(type) {
	case domain.Make:
		tbl, err := table(st, "make")
		if err != nil {
			return 0, err
		}
		id, err := uuid.Parse(string(r.ID))
		if err != nil {
			return 0, fmt.Errorf("invalid make id: %w", err)
		}
		if update {
			return s.exec(ctx, `UPDATE `+tbl+` SET make_name = $2 WHERE make_id = $1`, id, r.Name)
		}
		return s.exec(ctx, `INSERT INTO `+tbl+` (make_id, make_name) VALUES ($1, $2)`, id, r.Name)

	case domain.Model:
		tbl, err := table(st, "model")
		if err != nil {
			return 0, err
		}
		id, err := uuid.Parse(string(r.ID))
		if err != nil {
			return 0, fmt.Errorf("invalid model id: %w", err)
		}
		makeID, err := uuid.Parse(string(r.MakeID))
		if err != nil {
			return 0, fmt.Errorf("invalid make id: %w", err)
		}
		if update {
			return s.exec(ctx, `
				UPDATE `+tbl+`
				SET make_id = $2, model_name = $3, year = $4, model_type = $5
				WHERE model_id = $1
			`, id, makeID, r.Name, r.Year, string(r.Type))
		}
		return s.exec(ctx, `
			INSERT INTO `+tbl+` (model_id, make_id, model_name, year, model_type)
			VALUES ($1, $2, $3, $4, $5)
		`, id, makeID, r.Name, r.Year, string(r.Type))

	case domain.Trim:
		tbl, err := table(st, "trim")
		if err != nil {
			return 0, err
		}
		id, err := uuid.Parse(string(r.ID))
		if err != nil {
			return 0, fmt.Errorf("invalid trim id: %w", err)
		}
		modelID, err := uuid.Parse(string(r.ModelID))
		if err != nil {
			return 0, fmt.Errorf("invalid model id: %w", err)
		}
		if update {
			return s.exec(ctx, `
				UPDATE `+tbl+`
				SET model_id = $2, trim_name = $3, package_name = $4,
					model_code = $5, apx_code = $6, package_code = $7
				WHERE trim_id = $1
			`, id, modelID, r.Name, r.PackageName, r.ModelCode, r.APXCode, r.PackageCode)
		}
		return s.exec(ctx, `
			INSERT INTO `+tbl+` (trim_id, model_id, trim_name, package_name, model_code, apx_code, package_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, modelID, r.Name, r.PackageName, r.ModelCode, r.APXCode, r.PackageCode)

	case nil:
		return 0, errors.New("nil record")
	default:
		return 0, fmt.Errorf("unsupported record type %T", rec)
	}
}

func (s *Store) Delete(ctx context.Context, st domain.Strategy, kind domain.EntityKind, id string) (int64, error) {
	fail := func(err error) (int64, error) {
		return 0, &store.Error{Op: "delete", Strategy: st, Entity: kind, ID: id, Err: err}
	}
	if !kind.Valid() {
		return fail(fmt.Errorf("unsupported entity %q", kind))
	}
	tbl, err := table(st, string(kind))
	if err != nil {
		return fail(err)
	}
	key, err := uuid.Parse(id)
	if err != nil {
		return fail(fmt.Errorf("invalid %s id: %w", kind, err))
	}
	col := pgx.Identifier{string(kind) + "_id"}.Sanitize()
	n, err := s.exec(ctx, `DELETE FROM `+tbl+` WHERE `+col+` = $1`, key)
	if err != nil {
		return fail(err)
	}
	return n, nil
}

func (s *Store) Search(ctx context.Context, st domain.Strategy, q store.SearchQuery) (store.SearchResult, error) {
	fail := func(err error) (store.SearchResult, error) {
		return store.SearchResult{}, &store.Error{Op: "search", Strategy: st, Err: err}
	}
	if len(domain.SearchTokens(q.Terms)) == 0 {
		return fail(store.ErrEmptyQuery)
	}
	tbl, err := table(st, "vehicle_search")
	if err != nil {
		return fail(err)
	}

	match := `document @@ plainto_tsquery('simple', $1)`
	if st == domain.StrategyView {
		match = `to_tsvector('simple', document) @@ plainto_tsquery('simple', $1)`
	}
	where := []string{match}
	args := []any{q.Terms}
	if len(q.ModelIDs) > 0 {
		ids := make([]string, len(q.ModelIDs))
		for i, id := range q.ModelIDs {
			ids[i] = string(id)
		}
		args = append(args, ids)
		where = append(where, fmt.Sprintf("model_id = ANY($%d::uuid[])", len(args)))
	}
	if len(q.TrimIDs) > 0 {
		ids := make([]string, len(q.TrimIDs))
		for i, id := range q.TrimIDs {
			ids[i] = string(id)
		}
		args = append(args, ids)
		where = append(where, fmt.Sprintf("trim_id = ANY($%d::uuid[])", len(args)))
	}
	sql := `
		SELECT model_id, trim_id, count(*) OVER () AS total
		FROM ` + tbl + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY model_id, trim_id NULLS FIRST`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf("\n\t\tLIMIT $%d", len(args))
	}

	conn, err := s.acquire(ctx)
	if err != nil {
		return fail(err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return fail(err)
	}
	defer rows.Close()

	res := store.SearchResult{Hits: make([]store.SearchHit, 0)}
	for rows.Next() {
		var (
			modelID uuid.UUID
			trimID  pgtype.UUID
			total   int64
		)
		if err := rows.Scan(&modelID, &trimID, &total); err != nil {
			return fail(err)
		}
		res.MatchCount = int(total)
		hit := store.SearchHit{ModelID: domain.ModelID(modelID.String())}
		if trimID.Valid {
			hit.TrimID = domain.TrimID(uuid.UUID(trimID.Bytes).String())
		}
		res.Hits = append(res.Hits, hit)
	}
	if err := rows.Err(); err != nil {
		return fail(err)
	}
	return res, nil
}

func kindOf(rec domain.Record) domain.EntityKind {
	if rec == nil {
		return ""
	}
	return rec.Kind()
}

func idOf(rec domain.Record) string {
	if rec == nil {
		return ""
	}
	return rec.RecordID()
}
