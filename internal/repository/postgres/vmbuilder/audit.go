package vmbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	builderRepo "github.com/Yearfield/lorien/internal/domain/repositories/vmbuilder"
	"github.com/Yearfield/lorien/internal/repository/postgres"
)

// PostgresAuditRepository implements the AuditRepository interface.
// Append-only: there is no update or delete statement in this file.
type PostgresAuditRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(config *postgres.RepositoryConfig) builderRepo.AuditRepository {
	return &PostgresAuditRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append writes one audit record
func (r *PostgresAuditRepository) Append(ctx context.Context, rec *models.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	var metadata []byte
	if rec.Metadata != nil {
		var err error
		metadata, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, draft_id, action, actor, ts, before_state,
			after_state, success, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.DraftAudit)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		rec.ID,
		rec.DraftID,
		string(rec.Action),
		rec.Actor,
		rec.Timestamp,
		[]byte(rec.Before),
		[]byte(rec.After),
		rec.Success,
		rec.Message,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}

	return nil
}

// ListByDraft returns a draft's records oldest-first
func (r *PostgresAuditRepository) ListByDraft(ctx context.Context, draftID string) ([]models.AuditRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, draft_id, action, actor, ts, before_state, after_state,
			success, message, metadata
		FROM %s
		WHERE draft_id = $1
		ORDER BY ts
	`, r.tables.DraftAudit)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []models.AuditRecord
	for rows.Next() {
		var (
			rec      models.AuditRecord
			action   string
			before   []byte
			after    []byte
			metadata []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.DraftID,
			&action,
			&rec.Actor,
			&rec.Timestamp,
			&before,
			&after,
			&rec.Success,
			&rec.Message,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}

		rec.Action = models.AuditAction(action)
		rec.Before = json.RawMessage(before)
		rec.After = json.RawMessage(after)
		if metadata != nil {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}

	return records, nil
}
