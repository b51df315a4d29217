package vmbuilder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	"github.com/Yearfield/lorien/internal/testutil"
)

func TestDiffCalculator_Compute_MixedChangeset(t *testing.T) {
	calc := NewDiffCalculator()

	current := []models.ChildNode{
		testutil.Child("1", "Chest Pain", 1),
		testutil.Child("2", "Fever", 2),
		testutil.Child("3", "Cough", 3),
	}
	target := []models.ChildNode{
		testutil.Child("1", "Chest Pain", 1),
		testutil.Child("3", "Persistent Cough", 3),
		testutil.Child("new-1", "Dizziness", 4),
	}

	ops := calc.Compute(current, target)
	require.Len(t, ops, 3)

	// Deletions first, then updates, then creations.
	assert.Equal(t, models.OpDelete, ops[0].Kind)
	assert.Equal(t, "2", ops[0].NodeID)
	assert.Equal(t, models.ImpactHigh, ops[0].Impact)
	require.NotNil(t, ops[0].Old)
	assert.Equal(t, "Fever", ops[0].Old.Label)

	assert.Equal(t, models.OpUpdate, ops[1].Kind)
	assert.Equal(t, "3", ops[1].NodeID)
	assert.Equal(t, models.ImpactMedium, ops[1].Impact)
	require.NotNil(t, ops[1].New)
	assert.Equal(t, "Persistent Cough", ops[1].New.Label)

	assert.Equal(t, models.OpCreate, ops[2].Kind)
	assert.Equal(t, "new-1", ops[2].NodeID)
	assert.Equal(t, models.ImpactMedium, ops[2].Impact)
	assert.Nil(t, ops[2].Old)
}

func TestDiffCalculator_Compute_NoChanges(t *testing.T) {
	calc := NewDiffCalculator()

	children := []models.ChildNode{
		testutil.Child("1", "Chest Pain", 1),
		testutil.Child("2", "Fever", 2),
	}

	ops := calc.Compute(children, children)
	assert.Empty(t, ops)
}

func TestDiffCalculator_Compute_UpdateImpact(t *testing.T) {
	tests := []struct {
		name       string
		target     models.ChildNode
		wantImpact models.ImpactLevel
	}{
		{
			name:       "label only is medium",
			target:     testutil.Child("1", "Renamed", 1),
			wantImpact: models.ImpactMedium,
		},
		{
			name:       "slot change is high",
			target:     testutil.Child("1", "Chest Pain", 4),
			wantImpact: models.ImpactHigh,
		},
		{
			name:       "leaf change is high",
			target:     testutil.ChildAt("1", "Chest Pain", 1, 5, false),
			wantImpact: models.ImpactHigh,
		},
		{
			name:       "slot change dominates label change",
			target:     testutil.Child("1", "Renamed", 4),
			wantImpact: models.ImpactHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewDiffCalculator()
			current := []models.ChildNode{testutil.Child("1", "Chest Pain", 1)}

			ops := calc.Compute(current, []models.ChildNode{tt.target})
			require.Len(t, ops, 1)
			assert.Equal(t, models.OpUpdate, ops[0].Kind)
			assert.Equal(t, tt.wantImpact, ops[0].Impact)
		})
	}
}

func TestDiffCalculator_Compute_SingleOpCoversAllChangedFields(t *testing.T) {
	calc := NewDiffCalculator()

	current := []models.ChildNode{testutil.Child("1", "Chest Pain", 1)}
	target := []models.ChildNode{testutil.Child("1", "Angina", 2)}

	ops := calc.Compute(current, target)
	require.Len(t, ops, 1)
	assert.Contains(t, ops[0].Description, `label "Chest Pain" -> "Angina"`)
	assert.Contains(t, ops[0].Description, "slot 1 -> 2")
}

func TestDiffCalculator_Compute_Deterministic(t *testing.T) {
	calc := NewDiffCalculator()

	current := []models.ChildNode{
		testutil.Child("1", "A", 1),
		testutil.Child("2", "B", 2),
		testutil.Child("3", "C", 3),
	}
	target := []models.ChildNode{
		testutil.Child("2", "B2", 2),
		testutil.Child("4", "D", 4),
		testutil.Child("5", "E", 5),
	}

	first := calc.Compute(current, target)
	second := calc.Compute(current, target)
	assert.Equal(t, first, second)
}

func TestDiffCalculator_BuildPlan_Summary(t *testing.T) {
	calc := NewDiffCalculator()

	current := []models.ChildNode{
		testutil.Child("1", "A", 1),
		testutil.Child("2", "B", 2),
	}
	target := []models.ChildNode{
		testutil.Child("1", "A2", 1),
		testutil.Child("3", "C", 3),
	}

	plan := calc.BuildPlan("draft-1", "parent-1", calc.Compute(current, target))

	assert.Equal(t, "draft-1", plan.DraftID)
	assert.Equal(t, "parent-1", plan.ParentID)
	assert.Equal(t, 1, plan.Summary.Create)
	assert.Equal(t, 1, plan.Summary.Update)
	assert.Equal(t, 1, plan.Summary.Delete)
	assert.Equal(t, 3, plan.Summary.Total)
	assert.True(t, plan.CanPublish)
}

func TestDiffCalculator_BuildPlan_ImpactDominance(t *testing.T) {
	calc := NewDiffCalculator()

	createOnly := calc.Compute(nil, []models.ChildNode{testutil.Child("1", "A", 1)})
	plan := calc.BuildPlan("d", "p", createOnly)
	assert.Equal(t, models.ImpactMedium, plan.EstimatedImpact)

	withDelete := calc.Compute(
		[]models.ChildNode{testutil.Child("1", "A", 1)},
		[]models.ChildNode{testutil.Child("2", "B", 2)},
	)
	plan = calc.BuildPlan("d", "p", withDelete)
	assert.Equal(t, models.ImpactHigh, plan.EstimatedImpact)
}

func TestDiffCalculator_BuildPlan_EmptyPlanNotPublishable(t *testing.T) {
	calc := NewDiffCalculator()

	plan := calc.BuildPlan("d", "p", nil)
	assert.False(t, plan.CanPublish)
	assert.Equal(t, models.ImpactLow, plan.EstimatedImpact)
	assert.Zero(t, plan.Summary.Total)
}

func TestDiffCalculator_BuildPlan_Warnings(t *testing.T) {
	calc := NewDiffCalculator()

	// Eleven creations cross the large-changeset threshold. Creations are
	// medium impact, so no high-impact warning appears.
	var target []models.ChildNode
	for i := 1; i <= 11; i++ {
		target = append(target, models.ChildNode{
			ID: fmt.Sprintf("n%d", i), Label: fmt.Sprintf("L%d", i), Slot: i, Leaf: true, Depth: 5,
		})
	}
	plan := calc.BuildPlan("d", "p", calc.Compute(nil, target))
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "large changeset")
	assert.True(t, plan.CanPublish, "warnings never block publishing")

	// A deletion is high impact and draws the advisory warning.
	plan = calc.BuildPlan("d", "p", calc.Compute(
		[]models.ChildNode{testutil.Child("1", "A", 1)}, nil))
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "high-impact")
	assert.True(t, plan.CanPublish)
}
