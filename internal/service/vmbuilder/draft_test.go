package vmbuilder

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yearfield/lorien/internal/domain"
	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	builderSvc "github.com/Yearfield/lorien/internal/domain/services/vmbuilder"
	"github.com/Yearfield/lorien/internal/hierarchy"
	"github.com/Yearfield/lorien/internal/testutil"
)

type draftFixture struct {
	service builderSvc.DraftService
	nodes   *testutil.FakeNodeStore
	drafts  *testutil.FakeDraftRepo
	audit   *testutil.FakeAuditRepo
}

func newDraftFixture(t *testing.T) *draftFixture {
	t.Helper()

	registry, err := hierarchy.NewRegistry()
	require.NoError(t, err)

	nodes := testutil.NewFakeNodeStore()
	// A depth-4 parent with two leaf children.
	nodes.Seed(
		testutil.TreeNode("parent-1", "", "Pain Character", 4, 1, false),
		testutil.LeafNode("c1", "parent-1", "Chest Pain", 1),
		testutil.LeafNode("c2", "parent-1", "Fever", 2),
	)

	drafts := testutil.NewFakeDraftRepo()
	audit := testutil.NewFakeAuditRepo()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return &draftFixture{
		service: NewDraftService(drafts, nodes, audit, registry, logger),
		nodes:   nodes,
		drafts:  drafts,
		audit:   audit,
	}
}

func (f *draftFixture) createDraft(t *testing.T, target []models.ChildNode) *models.Draft {
	t.Helper()
	draft, err := f.service.CreateDraft(context.Background(), &builderSvc.CreateDraftRequest{
		ParentID:       "parent-1",
		TargetChildren: target,
		Actor:          "clinician",
	})
	require.NoError(t, err)
	return draft
}

func TestDraftService_CreateDraft(t *testing.T) {
	f := newDraftFixture(t)

	draft := f.createDraft(t, []models.ChildNode{
		testutil.Child("c1", "Chest Pain", 1),
		testutil.Child("new-1", "Cough", 3),
	})

	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, models.StatusDraft, draft.Status)
	assert.Equal(t, "parent-1", draft.ParentID)
	assert.Nil(t, draft.Plan)

	stored, err := f.drafts.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.TargetChildren, stored.TargetChildren)

	records := f.audit.ByAction(models.ActionCreateDraft)
	require.Len(t, records, 1)
	assert.Equal(t, draft.ID, records[0].DraftID)
	assert.Equal(t, "clinician", records[0].Actor)
	assert.True(t, records[0].Success)
}

func TestDraftService_CreateDraft_ParentNotFound(t *testing.T) {
	f := newDraftFixture(t)

	_, err := f.service.CreateDraft(context.Background(), &builderSvc.CreateDraftRequest{
		ParentID: "missing",
		Actor:    "clinician",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDraftService_CreateDraft_LeafParentRejected(t *testing.T) {
	f := newDraftFixture(t)

	_, err := f.service.CreateDraft(context.Background(), &builderSvc.CreateDraftRequest{
		ParentID: "c1",
		Actor:    "clinician",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDraftService_CreateDraft_InvalidChildren(t *testing.T) {
	tests := []struct {
		name   string
		target []models.ChildNode
	}{
		{"slot zero", []models.ChildNode{testutil.ChildAt("a", "A", 0, 5, true)}},
		{"slot above limit", []models.ChildNode{testutil.ChildAt("a", "A", 6, 5, true)}},
		{"depth above limit", []models.ChildNode{testutil.ChildAt("a", "A", 1, 6, true)}},
		{"missing id", []models.ChildNode{testutil.Child("", "A", 1)}},
		{"too many children", []models.ChildNode{
			testutil.Child("a", "A", 1),
			testutil.Child("b", "B", 2),
			testutil.Child("c", "C", 3),
			testutil.Child("d", "D", 4),
			testutil.Child("e", "E", 5),
			testutil.Child("f", "F", 5),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDraftFixture(t)
			_, err := f.service.CreateDraft(context.Background(), &builderSvc.CreateDraftRequest{
				ParentID:       "parent-1",
				TargetChildren: tt.target,
				Actor:          "clinician",
			})
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestDraftService_ListDrafts_FiltersByStatus(t *testing.T) {
	f := newDraftFixture(t)
	f.createDraft(t, []models.ChildNode{testutil.Child("new-1", "Cough", 3)})

	all, err := f.service.ListDrafts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	published, err := f.service.ListDrafts(context.Background(), models.StatusPublished)
	require.NoError(t, err)
	assert.Empty(t, published)

	_, err = f.service.ListDrafts(context.Background(), "bogus")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDraftService_UpdateDraft(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.createDraft(t, []models.ChildNode{testutil.Child("new-1", "Cough", 3)})

	// Plan first so the update provably resets derived state.
	_, err := f.service.PlanDraft(context.Background(), draft.ID, "clinician")
	require.NoError(t, err)

	updated, err := f.service.UpdateDraft(context.Background(), draft.ID, &builderSvc.UpdateDraftRequest{
		TargetChildren: []models.ChildNode{testutil.Child("new-2", "Dizziness", 4)},
		Actor:          "clinician",
	})
	require.NoError(t, err)
	assert.True(t, updated)

	stored, err := f.drafts.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Nil(t, stored.Plan)
	assert.Nil(t, stored.Validation)
	require.Len(t, stored.TargetChildren, 1)
	assert.Equal(t, "new-2", stored.TargetChildren[0].ID)

	records := f.audit.ByAction(models.ActionUpdateDraft)
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].Before)
	assert.NotNil(t, records[0].After)
}

func TestDraftService_UpdateDraft_AbsentIsSilentNoOp(t *testing.T) {
	f := newDraftFixture(t)

	updated, err := f.service.UpdateDraft(context.Background(), "missing", &builderSvc.UpdateDraftRequest{
		TargetChildren: []models.ChildNode{testutil.Child("a", "A", 1)},
		Actor:          "clinician",
	})
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Empty(t, f.audit.Records)
}

func TestDraftService_UpdateDraft_IneligibleStatusIsSilentNoOp(t *testing.T) {
	for _, status := range []models.DraftStatus{
		models.StatusReadyToPublish,
		models.StatusPublishing,
		models.StatusPublished,
		models.StatusFailed,
		models.StatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newDraftFixture(t)
			draft := f.createDraft(t, []models.ChildNode{testutil.Child("new-1", "Cough", 3)})

			stored, err := f.drafts.GetByID(context.Background(), draft.ID)
			require.NoError(t, err)
			stored.Status = status
			require.NoError(t, f.drafts.Update(context.Background(), stored))
			auditBefore := len(f.audit.Records)

			updated, err := f.service.UpdateDraft(context.Background(), draft.ID, &builderSvc.UpdateDraftRequest{
				TargetChildren: []models.ChildNode{testutil.Child("a", "A", 1)},
				Actor:          "clinician",
			})
			require.NoError(t, err)
			assert.False(t, updated)
			assert.Len(t, f.audit.Records, auditBefore)

			after, err := f.drafts.GetByID(context.Background(), draft.ID)
			require.NoError(t, err)
			assert.Equal(t, status, after.Status)
		})
	}
}

func TestDraftService_PlanDraft_PublishableChangeset(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.createDraft(t, []models.ChildNode{
		testutil.Child("c1", "Chest Pain", 1),
		testutil.Child("new-1", "Cough", 3),
	})

	plan, err := f.service.PlanDraft(context.Background(), draft.ID, "clinician")
	require.NoError(t, err)

	// c2 deleted, new-1 created, c1 untouched.
	assert.Equal(t, 1, plan.Summary.Delete)
	assert.Equal(t, 1, plan.Summary.Create)
	assert.Equal(t, 0, plan.Summary.Update)
	assert.True(t, plan.CanPublish)

	stored, err := f.drafts.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyToPublish, stored.Status)
	require.NotNil(t, stored.Plan)
	assert.Equal(t, plan.Summary, stored.Plan.Summary)

	records := f.audit.ByAction(models.ActionPlanDraft)
	require.Len(t, records, 1)
	assert.True(t, records[0].Success)
}

func TestDraftService_PlanDraft_NoChangesStaysPlanning(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.createDraft(t, []models.ChildNode{
		testutil.Child("c1", "Chest Pain", 1),
		testutil.Child("c2", "Fever", 2),
	})

	plan, err := f.service.PlanDraft(context.Background(), draft.ID, "clinician")
	require.NoError(t, err)
	assert.False(t, plan.CanPublish)
	assert.Empty(t, plan.Operations)

	issues := plan.Issues
	require.Len(t, issues, 1)
	assert.Equal(t, models.CodeNoChanges, issues[0].Code)

	stored, err := f.drafts.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlanning, stored.Status)
}

// A blocking validation finding clears the plan's can_publish flag, while
// the status transition keys off the calculator's view of the diff alone.
func TestDraftService_PlanDraft_BlockingIssueClearsCanPublish(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.createDraft(t, []models.ChildNode{
		testutil.Child("new-1", "Cough", 3),
		testutil.Child("new-2", "Dizziness", 3),
	})

	plan, err := f.service.PlanDraft(context.Background(), draft.ID, "clinician")
	require.NoError(t, err)
	assert.False(t, plan.CanPublish)
	require.NotEmpty(t, plan.Issues)
	assert.True(t, models.HasBlocking(plan.Issues))

	stored, err := f.drafts.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyToPublish, stored.Status)
	assert.Equal(t, stored.Validation, plan.Issues)
}

func TestDraftService_PlanDraft_Replanning(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.createDraft(t, []models.ChildNode{testutil.Child("new-1", "Cough", 3)})

	first, err := f.service.PlanDraft(context.Background(), draft.ID, "clinician")
	require.NoError(t, err)
	second, err := f.service.PlanDraft(context.Background(), draft.ID, "clinician")
	require.NoError(t, err)

	assert.Equal(t, first.Operations, second.Operations)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Len(t, f.audit.ByAction(models.ActionPlanDraft), 2)
}

func TestDraftService_PlanDraft_TerminalStatusRejected(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.createDraft(t, []models.ChildNode{testutil.Child("new-1", "Cough", 3)})

	stored, err := f.drafts.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	stored.Status = models.StatusPublished
	require.NoError(t, f.drafts.Update(context.Background(), stored))

	_, err = f.service.PlanDraft(context.Background(), draft.ID, "clinician")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestDraftService_PlanDraft_NotFound(t *testing.T) {
	f := newDraftFixture(t)

	_, err := f.service.PlanDraft(context.Background(), "missing", "clinician")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
