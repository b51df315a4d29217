package vmbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Yearfield/lorien/internal/domain"
	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	builderRepo "github.com/Yearfield/lorien/internal/domain/repositories/vmbuilder"
	"github.com/Yearfield/lorien/internal/repository/postgres"
)

// PostgresDraftRepository implements the DraftRepository interface
type PostgresDraftRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(config *postgres.RepositoryConfig) builderRepo.DraftRepository {
	return &PostgresDraftRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a new draft
func (r *PostgresDraftRepository) Create(ctx context.Context, draft *models.Draft) error {
	children, plan, validation, metadata, err := marshalDraftBlobs(draft)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, parent_id, target_children, status, plan, validation,
			metadata, created_at, updated_at, published_at, published_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.tables.Drafts)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err = executor.Exec(ctx, query,
		draft.ID,
		draft.ParentID,
		children,
		string(draft.Status),
		plan,
		validation,
		metadata,
		draft.CreatedAt,
		draft.UpdatedAt,
		draft.PublishedAt,
		draft.PublishedBy,
	)
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}

	return nil
}

// GetByID retrieves a draft by ID
func (r *PostgresDraftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, target_children, status, plan, validation,
			metadata, created_at, updated_at, published_at, published_by
		FROM %s
		WHERE id = $1
	`, r.tables.Drafts)

	executor := postgres.GetExecutor(ctx, r.pool)
	draft, err := scanDraft(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("draft %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}

	return draft, nil
}

// List returns drafts newest-first, optionally filtered by status
func (r *PostgresDraftRepository) List(ctx context.Context, status models.DraftStatus) ([]models.Draft, error) {
	var query string
	var args []interface{}

	if status != "" {
		query = fmt.Sprintf(`
			SELECT id, parent_id, target_children, status, plan, validation,
				metadata, created_at, updated_at, published_at, published_by
			FROM %s
			WHERE status = $1
			ORDER BY created_at DESC
		`, r.tables.Drafts)
		args = []interface{}{string(status)}
	} else {
		query = fmt.Sprintf(`
			SELECT id, parent_id, target_children, status, plan, validation,
				metadata, created_at, updated_at, published_at, published_by
			FROM %s
			ORDER BY created_at DESC
		`, r.tables.Drafts)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, *draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}

	return drafts, nil
}

// Update rewrites the mutable fields of an existing draft
func (r *PostgresDraftRepository) Update(ctx context.Context, draft *models.Draft) error {
	children, plan, validation, metadata, err := marshalDraftBlobs(draft)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET target_children = $2, status = $3, plan = $4, validation = $5,
			metadata = $6, updated_at = $7, published_at = $8, published_by = $9
		WHERE id = $1
	`, r.tables.Drafts)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		draft.ID,
		children,
		string(draft.Status),
		plan,
		validation,
		metadata,
		draft.UpdatedAt,
		draft.PublishedAt,
		draft.PublishedBy,
	)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("draft %s: %w", draft.ID, domain.ErrNotFound)
	}

	return nil
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// marshalDraftBlobs encodes the draft's typed payloads for JSONB columns.
// Nil plan/validation/metadata become SQL NULLs.
func marshalDraftBlobs(draft *models.Draft) (children, plan, validation, metadata []byte, err error) {
	children, err = json.Marshal(draft.TargetChildren)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode target children: %w", err)
	}
	if draft.Plan != nil {
		plan, err = json.Marshal(draft.Plan)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode plan: %w", err)
		}
	}
	if draft.Validation != nil {
		validation, err = json.Marshal(draft.Validation)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode validation: %w", err)
		}
	}
	if draft.Metadata != nil {
		metadata, err = json.Marshal(draft.Metadata)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode metadata: %w", err)
		}
	}
	return children, plan, validation, metadata, nil
}

// scanDraft decodes one draft row, validating the status at the boundary so
// an illegal stored value surfaces immediately instead of leaking onward.
func scanDraft(row rowScanner) (*models.Draft, error) {
	var (
		draft      models.Draft
		status     string
		children   []byte
		plan       []byte
		validation []byte
		metadata   []byte
	)

	err := row.Scan(
		&draft.ID,
		&draft.ParentID,
		&children,
		&status,
		&plan,
		&validation,
		&metadata,
		&draft.CreatedAt,
		&draft.UpdatedAt,
		&draft.PublishedAt,
		&draft.PublishedBy,
	)
	if err != nil {
		return nil, err
	}

	draft.Status = models.DraftStatus(status)
	if !draft.Status.Valid() {
		return nil, fmt.Errorf("draft %s has unknown status %q", draft.ID, status)
	}

	if err := json.Unmarshal(children, &draft.TargetChildren); err != nil {
		return nil, fmt.Errorf("decode target children: %w", err)
	}
	if plan != nil {
		draft.Plan = &models.DiffPlan{}
		if err := json.Unmarshal(plan, draft.Plan); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
	}
	if validation != nil {
		if err := json.Unmarshal(validation, &draft.Validation); err != nil {
			return nil, fmt.Errorf("decode validation: %w", err)
		}
	}
	if metadata != nil {
		if err := json.Unmarshal(metadata, &draft.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return &draft, nil
}
