package tree

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Yearfield/lorien/internal/domain"
	models "github.com/Yearfield/lorien/internal/domain/models/tree"
	treeRepo "github.com/Yearfield/lorien/internal/domain/repositories/tree"
	"github.com/Yearfield/lorien/internal/repository/postgres"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *postgres.RepositoryConfig) treeRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, label, depth, slot, leaf, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Nodes)

	var node models.Node
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.ParentID,
		&node.Label,
		&node.Depth,
		&node.Slot,
		&node.Leaf,
		&node.CreatedAt,
		&node.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// ChildrenOf returns the children of a parent ordered by slot
func (r *PostgresNodeRepository) ChildrenOf(ctx context.Context, parentID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, label, depth, slot, leaf, created_at, updated_at
		FROM %s
		WHERE parent_id = $1
		ORDER BY slot, label
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		if err := rows.Scan(
			&node.ID,
			&node.ParentID,
			&node.Label,
			&node.Depth,
			&node.Slot,
			&node.Leaf,
			&node.CreatedAt,
			&node.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}

	return nodes, nil
}

// Roots returns all root nodes ordered by label
func (r *PostgresNodeRepository) Roots(ctx context.Context) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, label, depth, slot, leaf, created_at, updated_at
		FROM %s
		WHERE parent_id IS NULL
		ORDER BY label
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list roots: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		if err := rows.Scan(
			&node.ID,
			&node.ParentID,
			&node.Label,
			&node.Depth,
			&node.Slot,
			&node.Leaf,
			&node.CreatedAt,
			&node.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roots: %w", err)
	}

	return nodes, nil
}

// Insert creates a new node. The store assigns the ID when none is given.
func (r *PostgresNodeRepository) Insert(ctx context.Context, node *models.Node) error {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (id, parent_id, label, depth, slot, leaf, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		node.ID,
		node.ParentID,
		node.Label,
		node.Depth,
		node.Slot,
		node.Leaf,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}

	return nil
}

// Update rewrites label, slot and leaf flag on an existing node
func (r *PostgresNodeRepository) Update(ctx context.Context, id, label string, slot int, leaf bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET label = $2, slot = $3, leaf = $4, updated_at = $5
		WHERE id = $1
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, label, slot, leaf, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a node
func (r *PostgresNodeRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
