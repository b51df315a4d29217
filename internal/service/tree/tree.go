package tree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Yearfield/lorien/internal/domain"
	models "github.com/Yearfield/lorien/internal/domain/models/tree"
	treeRepo "github.com/Yearfield/lorien/internal/domain/repositories/tree"
	treeSvc "github.com/Yearfield/lorien/internal/domain/services/tree"
	"github.com/Yearfield/lorien/internal/hierarchy"
)

// treeService implements the TreeService interface
type treeService struct {
	nodeRepo treeRepo.NodeRepository
	registry *hierarchy.Registry
	logger   *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(
	nodeRepo treeRepo.NodeRepository,
	registry *hierarchy.Registry,
	logger *slog.Logger,
) treeSvc.TreeService {
	return &treeService{
		nodeRepo: nodeRepo,
		registry: registry,
		logger:   logger,
	}
}

// Children returns a parent's children ordered by slot, labeled with the
// hierarchy level they sit at.
func (s *treeService) Children(ctx context.Context, parentID string) (*treeSvc.ChildListing, error) {
	parent, err := s.nodeRepo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	childDepth := parent.Depth + 1
	levelName, err := s.registry.LevelName(childDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: node %s is a leaf and has no child level", domain.ErrValidation, parentID)
	}

	children, err := s.nodeRepo.ChildrenOf(ctx, parentID)
	if err != nil {
		return nil, err
	}

	return &treeSvc.ChildListing{
		ParentID:  parentID,
		Depth:     childDepth,
		LevelName: levelName,
		Children:  children,
	}, nil
}

// Roots returns all Vital Measurement root nodes
func (s *treeService) Roots(ctx context.Context) ([]models.Node, error) {
	return s.nodeRepo.Roots(ctx)
}
