package vmbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	builderRepo "github.com/Yearfield/lorien/internal/domain/repositories/vmbuilder"
	"github.com/Yearfield/lorien/internal/repository/postgres"
)

// PostgresOperationLogger implements the OperationLogger interface against
// the shared audit_log table that the wider application also writes to.
type PostgresOperationLogger struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewOperationLogger creates a new operation logger
func NewOperationLogger(config *postgres.RepositoryConfig) builderRepo.OperationLogger {
	return &PostgresOperationLogger{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// LogOperation records one operation and returns its audit entry ID
func (r *PostgresOperationLogger) LogOperation(ctx context.Context, kind, targetID, actor string, payload map[string]any, undoable bool) (string, error) {
	id := uuid.NewString()

	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("encode operation payload: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, operation, target_id, actor, payload, undoable, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.AuditLog)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, id, kind, targetID, actor, encoded, undoable, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("log operation: %w", err)
	}

	return id, nil
}
