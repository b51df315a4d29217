package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	"github.com/Yearfield/lorien/internal/hierarchy"
	"github.com/Yearfield/lorien/internal/middleware"
	treeService "github.com/Yearfield/lorien/internal/service/tree"
	builderService "github.com/Yearfield/lorien/internal/service/vmbuilder"
	"github.com/Yearfield/lorien/internal/testutil"
)

// newTestServer wires real services over in-memory fakes behind the same
// routes the server registers, with the header-based actor fallback.
func newTestServer(t *testing.T) (*httptest.Server, *testutil.FakeNodeStore) {
	t.Helper()

	registry, err := hierarchy.NewRegistry()
	require.NoError(t, err)

	nodes := testutil.NewFakeNodeStore()
	nodes.Seed(
		testutil.TreeNode("parent-1", "", "Pain Character", 4, 1, false),
		testutil.LeafNode("c1", "parent-1", "Chest Pain", 1),
		testutil.LeafNode("c2", "parent-1", "Fever", 2),
	)

	draftRepo := testutil.NewFakeDraftRepo()
	auditRepo := testutil.NewFakeAuditRepo()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	draftSvc := builderService.NewDraftService(draftRepo, nodes, auditRepo, registry, logger)
	publisher := builderService.NewPublisher(draftRepo, nodes, auditRepo,
		testutil.NewFakeTxManager(nodes), testutil.NewFakeOperationLog(), logger)
	auditReader := builderService.NewAuditReader(auditRepo)
	treeSvc := treeService.NewTreeService(nodes, registry, logger)

	draftHandler := NewDraftHandler(draftSvc, publisher, auditReader, logger)
	treeHandler := NewTreeHandler(treeSvc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/drafts", draftHandler.CreateDraft)
	mux.HandleFunc("GET /api/drafts", draftHandler.ListDrafts)
	mux.HandleFunc("GET /api/drafts/{id}", draftHandler.GetDraft)
	mux.HandleFunc("PUT /api/drafts/{id}", draftHandler.UpdateDraft)
	mux.HandleFunc("POST /api/drafts/{id}/plan", draftHandler.PlanDraft)
	mux.HandleFunc("POST /api/drafts/{id}/publish", draftHandler.PublishDraft)
	mux.HandleFunc("GET /api/drafts/{id}/audit", draftHandler.GetAudit)
	mux.HandleFunc("GET /api/tree/roots", treeHandler.GetRoots)
	mux.HandleFunc("GET /api/tree/{id}/children", treeHandler.GetChildren)

	server := httptest.NewServer(middleware.Auth(nil)(mux))
	t.Cleanup(server.Close)
	return server, nodes
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "clinician")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func createDraftOverHTTP(t *testing.T, server *httptest.Server, children []models.ChildNode) models.Draft {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/drafts", map[string]any{
		"parent_id":       "parent-1",
		"target_children": children,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var draft models.Draft
	require.NoError(t, json.Unmarshal(body, &draft))
	return draft
}

func TestDraftLifecycleOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)

	draft := createDraftOverHTTP(t, server, []models.ChildNode{
		testutil.Child("c1", "Angina", 1),
		testutil.Child("new-1", "Cough", 3),
	})
	assert.Equal(t, models.StatusDraft, draft.Status)

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/drafts/%s/plan", server.URL, draft.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var plan models.DiffPlan
	require.NoError(t, json.Unmarshal(body, &plan))
	assert.True(t, plan.CanPublish)
	assert.Equal(t, 3, plan.Summary.Total)

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/drafts/%s/publish", server.URL, draft.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result struct {
		Status      models.DraftStatus `json:"status"`
		PublishedBy string             `json:"published_by"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, models.StatusPublished, result.Status)
	assert.Equal(t, "clinician", result.PublishedBy, "actor comes from the X-Actor header")

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/tree/parent-1/children", server.URL), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var listing struct {
		LevelName string `json:"level_name"`
		Children  []struct {
			Label string `json:"label"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, "Node 5", listing.LevelName)
	require.Len(t, listing.Children, 2)
	assert.Equal(t, "Angina", listing.Children[0].Label)
	assert.Equal(t, "Cough", listing.Children[1].Label)

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/drafts/%s/audit", server.URL, draft.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []models.AuditRecord
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 3)
	assert.Equal(t, models.ActionCreateDraft, records[0].Action)
	assert.Equal(t, models.ActionPlanDraft, records[1].Action)
	assert.Equal(t, models.ActionPublishDraft, records[2].Action)
}

func TestDraftHandler_ErrorMapping(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("unknown draft is 404", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/drafts/missing", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid body is 400", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/api/drafts", bytes.NewBufferString("{"))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad slot is 400", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/drafts", map[string]any{
			"parent_id":       "parent-1",
			"target_children": []models.ChildNode{testutil.ChildAt("a", "A", 9, 5, true)},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("publish before planning is 409", func(t *testing.T) {
		draft := createDraftOverHTTP(t, server, []models.ChildNode{testutil.Child("new-1", "Cough", 3)})
		resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/drafts/%s/publish", server.URL, draft.ID), nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("update of published draft is 409", func(t *testing.T) {
		draft := createDraftOverHTTP(t, server, []models.ChildNode{
			testutil.Child("c1", "Chest Pain", 1),
			testutil.Child("c2", "Fever", 2),
			testutil.Child("new-a", "Cough", 3),
		})
		resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/drafts/%s/plan", server.URL, draft.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/drafts/%s/publish", server.URL, draft.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		resp, _ = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/drafts/%s", server.URL, draft.ID), map[string]any{
			"target_children": []models.ChildNode{testutil.Child("new-b", "Dizziness", 4)},
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("blocked publish is 422 with issues", func(t *testing.T) {
		draft := createDraftOverHTTP(t, server, []models.ChildNode{
			testutil.Child("c1", "Chest Pain", 1),
			testutil.Child("c2", "Fever", 2),
			testutil.Child("new-1", "Cough", 4),
			testutil.Child("new-2", "Dizziness", 4),
		})
		resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/drafts/%s/plan", server.URL, draft.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/drafts/%s/publish", server.URL, draft.ID), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var problem struct {
			Issues []models.ValidationIssue `json:"issues"`
		}
		require.NoError(t, json.Unmarshal(body, &problem))
		require.NotEmpty(t, problem.Issues)
		assert.Equal(t, models.CodeSlotConflict, problem.Issues[0].Code)
	})
}
