package handler

import (
	"log/slog"
	"net/http"
	"time"

	treeSvc "github.com/Yearfield/lorien/internal/domain/services/tree"
	"github.com/Yearfield/lorien/internal/httputil"
)

// TreeHandler handles HTTP requests for tree read projections
type TreeHandler struct {
	treeService treeSvc.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService treeSvc.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// GetChildren returns a parent's children ordered by slot
// GET /api/tree/{id}/children
func (h *TreeHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	parentID, ok := PathParam(w, r, "id", "Node ID")
	if !ok {
		return
	}

	listing, err := h.treeService.Children(r.Context(), parentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// GetRoots returns all Vital Measurement root nodes
// GET /api/tree/roots
func (h *TreeHandler) GetRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := h.treeService.Roots(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, roots)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *TreeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
