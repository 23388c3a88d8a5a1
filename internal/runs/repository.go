package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/ml-agent/internal/tasks"
	"github.com/JaimeStill/ml-agent/pkg/pagination"
	"github.com/google/uuid"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Record(ctx context.Context, result *tasks.Result) error {
	metadata, err := json.Marshal(result.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if result.Metadata == nil {
		metadata = []byte("{}")
	}

	q := `
		INSERT INTO runs(id, task_name, status, output, error, duration_ms, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.db.ExecContext(ctx, q,
		result.TaskID, result.TaskName, string(result.Status),
		result.Output, result.Error, result.DurationMS,
		metadata, result.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	r.logger.Debug("run recorded", "id", result.TaskID, "task", result.TaskName, "status", result.Status)
	return nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	where := ""
	args := []any{}
	if page.Search != nil {
		where = "WHERE task_name ILIKE $1"
		args = append(args, "%"+*page.Search+"%")
	}

	var total int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM runs %s", where)
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL := fmt.Sprintf(`
		SELECT id, task_name, status, output, error, duration_ms, metadata, created_at
		FROM runs %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Offset())

	rows, err := r.db.QueryContext(ctx, pageSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	paged := pagination.NewPageResult(result, total, page.Page, page.PageSize)
	return &paged, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q := `
		SELECT id, task_name, status, output, error, duration_ms, metadata, created_at
		FROM runs
		WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		metadata []byte
	)

	if err := row.Scan(
		&run.ID, &run.TaskName, &run.Status,
		&run.Output, &run.Error, &run.DurationMS,
		&metadata, &run.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &run.Metadata); err != nil {
			return run, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return run, nil
}
