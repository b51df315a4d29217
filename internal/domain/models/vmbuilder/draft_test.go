package vmbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDraftStatus(t *testing.T) {
	tests := []struct {
		status   DraftStatus
		valid    bool
		terminal bool
		editable bool
	}{
		{StatusDraft, true, false, true},
		{StatusPlanning, true, false, true},
		{StatusReadyToPublish, true, false, false},
		{StatusPublishing, true, false, false},
		{StatusPublished, true, true, false},
		{StatusFailed, true, true, false},
		{StatusCancelled, true, true, false},
		{DraftStatus("bogus"), false, false, false},
		{DraftStatus(""), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.Valid())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
			assert.Equal(t, tt.editable, tt.status.Editable())
		})
	}
}

func TestMaxImpact(t *testing.T) {
	assert.Equal(t, ImpactMedium, MaxImpact(ImpactLow, ImpactMedium))
	assert.Equal(t, ImpactHigh, MaxImpact(ImpactHigh, ImpactMedium))
	assert.Equal(t, ImpactCritical, MaxImpact(ImpactHigh, ImpactCritical))
	assert.Equal(t, ImpactLow, MaxImpact(ImpactLow, ImpactLow))
}

func TestSeverityBlocking(t *testing.T) {
	assert.False(t, SeverityInfo.Blocking())
	assert.False(t, SeverityWarning.Blocking())
	assert.True(t, SeverityError.Blocking())
	assert.True(t, SeverityCritical.Blocking())

	assert.False(t, HasBlocking(nil))
	assert.False(t, HasBlocking([]ValidationIssue{{Severity: SeverityWarning}}))
	assert.True(t, HasBlocking([]ValidationIssue{
		{Severity: SeverityWarning},
		{Severity: SeverityError},
	}))
}
