package vmbuilder

// Severity classifies one validation finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a member of the closed severity set.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// Blocking reports whether a finding of this severity prevents publishing
// without force. Warnings never block.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Machine-readable issue codes emitted by the validator.
const (
	CodeSlotConflict       = "slot_conflict"
	CodeLabelDuplicate     = "label_duplicate"
	CodeNoChanges          = "no_changes"
	CodeCriticalOperations = "critical_operations"
)

// ValidationIssue is one finding from the validator.
type ValidationIssue struct {
	Severity   Severity `json:"severity"`
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Field      string   `json:"field,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// HasBlocking reports whether any issue in the list is blocking.
func HasBlocking(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity.Blocking() {
			return true
		}
	}
	return false
}
