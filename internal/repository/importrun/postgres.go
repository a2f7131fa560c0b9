package importrun

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wholesale-catalog/internal/domain"
)

const (
	severityError   = "error"
	severityWarning = "warning"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, run domain.ImportRun, sourceID string) error {
	const q = `
INSERT INTO import_runs (id, source_id, file_name, status, started_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5)
`
	_, err := r.pool.Exec(ctx, q, run.ID, sourceID, run.FileName, string(run.Status), run.StartedAt)
	return err
}

func (r *postgresRepo) Finish(ctx context.Context, id string, status domain.RunStatus, message string, summary *domain.RunSummary) error {
	var raw []byte
	if summary != nil {
		counters := *summary
		counters.Errors, counters.Warnings = nil, nil
		b, err := json.Marshal(counters)
		if err != nil {
			return err
		}
		raw = b
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
UPDATE import_runs
SET status = $2, message = $3, summary = $4::jsonb, finished_at = now()
WHERE id = $1::uuid
`
		tag, err := tx.Exec(ctx, q, id, string(status), message, raw)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if summary == nil {
			return nil
		}

		const ins = `
INSERT INTO import_run_errors (run_id, severity, item_key, stage, message)
VALUES ($1::uuid, $2, $3, $4, $5)
`
		batch := &pgx.Batch{}
		for _, e := range summary.Errors {
			batch.Queue(ins, id, severityError, e.Key, string(e.Stage), e.Message)
		}
		for _, w := range summary.Warnings {
			batch.Queue(ins, id, severityWarning, w.Key, string(w.Stage), w.Message)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

const selectRun = `
SELECT r.id::text, s.key, r.file_name, r.status, r.message, r.summary, r.started_at, r.finished_at
FROM import_runs r
JOIN import_sources s ON s.id = r.source_id
`

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.ImportRun, error) {
	row := r.pool.QueryRow(ctx, selectRun+`WHERE r.id = $1::uuid`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

func (r *postgresRepo) List(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, selectRun+`ORDER BY r.started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ImportRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func (r *postgresRepo) ListErrors(ctx context.Context, id string) ([]domain.ItemError, []domain.ItemError, error) {
	const q = `
SELECT severity, item_key, stage, message
FROM import_run_errors
WHERE run_id = $1::uuid
ORDER BY id ASC
`
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	errs, warnings := []domain.ItemError{}, []domain.ItemError{}
	for rows.Next() {
		var (
			severity, stage string
			item            domain.ItemError
		)
		if err := rows.Scan(&severity, &item.Key, &stage, &item.Message); err != nil {
			return nil, nil, err
		}
		item.Stage = domain.Stage(stage)
		if severity == severityWarning {
			warnings = append(warnings, item)
		} else {
			errs = append(errs, item)
		}
	}
	return errs, warnings, rows.Err()
}

func scanRun(row pgx.Row) (*domain.ImportRun, error) {
	var (
		run      domain.ImportRun
		status   string
		raw      []byte
		finished *time.Time
	)
	if err := row.Scan(&run.ID, &run.SourceKey, &run.FileName, &status, &run.Message, &raw, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	run.FinishedAt = finished
	if len(raw) > 0 {
		var s domain.RunSummary
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		run.Summary = &s
	}
	return &run, nil
}
