package handler

import (
	"log/slog"
	"net/http"

	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	builderSvc "github.com/Yearfield/lorien/internal/domain/services/vmbuilder"
	"github.com/Yearfield/lorien/internal/httputil"
)

// DraftHandler handles HTTP requests for the draft/plan/publish lifecycle
// Follows Clean Architecture: handlers only communicate with services, never repositories
type DraftHandler struct {
	draftService builderSvc.DraftService
	publisher    builderSvc.Publisher
	auditReader  builderSvc.AuditReader
	logger       *slog.Logger
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(
	draftService builderSvc.DraftService,
	publisher builderSvc.Publisher,
	auditReader builderSvc.AuditReader,
	logger *slog.Logger,
) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		publisher:    publisher,
		auditReader:  auditReader,
		logger:       logger,
	}
}

// CreateDraft creates a new draft
// POST /api/drafts
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req builderSvc.CreateDraftRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Actor = httputil.GetActor(r)

	draft, err := h.draftService.CreateDraft(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, draft)
}

// GetDraft retrieves a draft with its last plan/validation snapshots
// GET /api/drafts/{id}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Draft ID")
	if !ok {
		return
	}

	draft, err := h.draftService.GetDraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// ListDrafts lists drafts, optionally filtered by status
// GET /api/drafts?status=:status
func (h *DraftHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	status := models.DraftStatus(r.URL.Query().Get("status"))

	drafts, err := h.draftService.ListDrafts(r.Context(), status)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, drafts)
}

// UpdateDraft replaces a draft's target children
// PUT /api/drafts/{id}
// Returns 409 when the draft is absent or no longer editable.
func (h *DraftHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Draft ID")
	if !ok {
		return
	}

	var req builderSvc.UpdateDraftRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Actor = httputil.GetActor(r)

	updated, err := h.draftService.UpdateDraft(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	if !updated {
		httputil.RespondError(w, http.StatusConflict, "draft is absent or no longer editable")
		return
	}

	draft, err := h.draftService.GetDraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// PlanDraft computes and persists a diff plan for the draft
// POST /api/drafts/{id}/plan
func (h *DraftHandler) PlanDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Draft ID")
	if !ok {
		return
	}

	plan, err := h.draftService.PlanDraft(r.Context(), id, httputil.GetActor(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, plan)
}

// PublishDraft applies the draft's plan to the tree
// POST /api/drafts/{id}/publish
func (h *DraftHandler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Draft ID")
	if !ok {
		return
	}

	req := builderSvc.PublishRequest{}
	if r.ContentLength != 0 {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	req.Actor = httputil.GetActor(r)

	result, err := h.publisher.Publish(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// GetAudit lists a draft's audit trail oldest-first
// GET /api/drafts/{id}/audit
func (h *DraftHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Draft ID")
	if !ok {
		return
	}

	records, err := h.auditReader.ListByDraft(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, records)
}
