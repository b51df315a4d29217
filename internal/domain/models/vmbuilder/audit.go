package vmbuilder

import (
	"encoding/json"
	"time"
)

// AuditAction names one draft lifecycle action.
type AuditAction string

const (
	ActionCreateDraft  AuditAction = "create_draft"
	ActionUpdateDraft  AuditAction = "update_draft"
	ActionPlanDraft    AuditAction = "plan_draft"
	ActionPublishDraft AuditAction = "publish_draft"
)

// AuditRecord is one immutable line of the draft audit trail. Records are
// appended by every lifecycle-mutating call and never updated or deleted.
type AuditRecord struct {
	ID        string          `json:"id"`
	DraftID   string          `json:"draft_id"`
	Action    AuditAction     `json:"action"`
	Actor     string          `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}
