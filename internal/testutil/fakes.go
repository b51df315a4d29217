package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Yearfield/lorien/internal/domain"
	treeModels "github.com/Yearfield/lorien/internal/domain/models/tree"
	builderModels "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	"github.com/Yearfield/lorien/internal/domain/repositories"
)

// FakeNodeStore is an in-memory node repository with injectable failures.
// Paired with FakeTxManager it emulates transactional rollback for
// publisher tests.
type FakeNodeStore struct {
	mu    sync.Mutex
	Nodes map[string]treeModels.Node

	InsertErr error
	UpdateErr error
	DeleteErr error

	// FailDeleteID/FailUpdateID fail only the matching node, letting tests
	// place a failure mid-plan.
	FailDeleteID string
	FailUpdateID string
}

// NewFakeNodeStore creates an empty in-memory node store
func NewFakeNodeStore() *FakeNodeStore {
	return &FakeNodeStore{Nodes: make(map[string]treeModels.Node)}
}

// Seed inserts nodes directly, bypassing failure injection
func (s *FakeNodeStore) Seed(nodes ...treeModels.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		s.Nodes[n.ID] = n
	}
}

func (s *FakeNodeStore) GetByID(_ context.Context, id string) (*treeModels.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return &node, nil
}

func (s *FakeNodeStore) ChildrenOf(_ context.Context, parentID string) ([]treeModels.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var children []treeModels.Node
	for _, n := range s.Nodes {
		if n.ParentID != nil && *n.ParentID == parentID {
			children = append(children, n)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].Slot != children[j].Slot {
			return children[i].Slot < children[j].Slot
		}
		return children[i].Label < children[j].Label
	})
	return children, nil
}

func (s *FakeNodeStore) Roots(_ context.Context) ([]treeModels.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var roots []treeModels.Node
	for _, n := range s.Nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Label < roots[j].Label })
	return roots, nil
}

func (s *FakeNodeStore) Insert(_ context.Context, node *treeModels.Node) error {
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now
	s.Nodes[node.ID] = *node
	return nil
}

func (s *FakeNodeStore) Update(_ context.Context, id, label string, slot int, leaf bool) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if s.FailUpdateID == id {
		return fmt.Errorf("injected update failure on node %s", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.Nodes[id]
	if !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	node.Label = label
	node.Slot = slot
	node.Leaf = leaf
	node.UpdatedAt = time.Now().UTC()
	s.Nodes[id] = node
	return nil
}

func (s *FakeNodeStore) Delete(_ context.Context, id string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if s.FailDeleteID == id {
		return fmt.Errorf("injected delete failure on node %s", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	delete(s.Nodes, id)
	return nil
}

// snapshot copies the current node map
func (s *FakeNodeStore) snapshot() map[string]treeModels.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]treeModels.Node, len(s.Nodes))
	for k, v := range s.Nodes {
		snap[k] = v
	}
	return snap
}

// restore replaces the node map with a snapshot
func (s *FakeNodeStore) restore(snap map[string]treeModels.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nodes = snap
}

// FakeTxManager emulates transactional semantics over a FakeNodeStore:
// when fn fails, the store is restored to its pre-transaction state.
type FakeTxManager struct {
	Store     *FakeNodeStore
	Rollbacks int
	Commits   int
}

// NewFakeTxManager creates a transaction manager bound to the store
func NewFakeTxManager(store *FakeNodeStore) *FakeTxManager {
	return &FakeTxManager{Store: store}
}

func (tm *FakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	snap := tm.Store.snapshot()
	if err := fn(ctx); err != nil {
		tm.Store.restore(snap)
		tm.Rollbacks++
		return err
	}
	tm.Commits++
	return nil
}

// FakeDraftRepo is an in-memory draft repository. Drafts are stored as
// deep copies so callers cannot mutate persisted state through aliases.
type FakeDraftRepo struct {
	mu     sync.Mutex
	Drafts map[string]*builderModels.Draft

	CreateErr error
	UpdateErr error
}

// NewFakeDraftRepo creates an empty in-memory draft repository
func NewFakeDraftRepo() *FakeDraftRepo {
	return &FakeDraftRepo{Drafts: make(map[string]*builderModels.Draft)}
}

func (r *FakeDraftRepo) Create(_ context.Context, draft *builderModels.Draft) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Drafts[draft.ID] = cloneDraft(draft)
	return nil
}

func (r *FakeDraftRepo) GetByID(_ context.Context, id string) (*builderModels.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft, ok := r.Drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, domain.ErrNotFound)
	}
	return cloneDraft(draft), nil
}

func (r *FakeDraftRepo) List(_ context.Context, status builderModels.DraftStatus) ([]builderModels.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var drafts []builderModels.Draft
	for _, d := range r.Drafts {
		if status != "" && d.Status != status {
			continue
		}
		drafts = append(drafts, *cloneDraft(d))
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].CreatedAt.After(drafts[j].CreatedAt) })
	return drafts, nil
}

func (r *FakeDraftRepo) Update(_ context.Context, draft *builderModels.Draft) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Drafts[draft.ID]; !ok {
		return fmt.Errorf("draft %s: %w", draft.ID, domain.ErrNotFound)
	}
	r.Drafts[draft.ID] = cloneDraft(draft)
	return nil
}

func cloneDraft(draft *builderModels.Draft) *builderModels.Draft {
	data, err := json.Marshal(draft)
	if err != nil {
		panic(err)
	}
	var clone builderModels.Draft
	if err := json.Unmarshal(data, &clone); err != nil {
		panic(err)
	}
	return &clone
}

// FakeAuditRepo is an in-memory append-only audit trail
type FakeAuditRepo struct {
	mu      sync.Mutex
	Records []builderModels.AuditRecord

	AppendErr error
}

// NewFakeAuditRepo creates an empty in-memory audit repository
func NewFakeAuditRepo() *FakeAuditRepo {
	return &FakeAuditRepo{}
}

func (r *FakeAuditRepo) Append(_ context.Context, rec *builderModels.AuditRecord) error {
	if r.AppendErr != nil {
		return r.AppendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	r.Records = append(r.Records, *rec)
	return nil
}

func (r *FakeAuditRepo) ListByDraft(_ context.Context, draftID string) ([]builderModels.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []builderModels.AuditRecord
	for _, rec := range r.Records {
		if rec.DraftID == draftID {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ByAction returns the recorded entries for one action
func (r *FakeAuditRepo) ByAction(action builderModels.AuditAction) []builderModels.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []builderModels.AuditRecord
	for _, rec := range r.Records {
		if rec.Action == action {
			records = append(records, rec)
		}
	}
	return records
}

// LoggedOperation is one call captured by FakeOperationLog
type LoggedOperation struct {
	Kind     string
	TargetID string
	Actor    string
	Payload  map[string]any
	Undoable bool
}

// FakeOperationLog captures external audit subsystem calls
type FakeOperationLog struct {
	mu      sync.Mutex
	Entries []LoggedOperation

	Err error
}

// NewFakeOperationLog creates an empty operation log
func NewFakeOperationLog() *FakeOperationLog {
	return &FakeOperationLog{}
}

func (l *FakeOperationLog) LogOperation(_ context.Context, kind, targetID, actor string, payload map[string]any, undoable bool) (string, error) {
	if l.Err != nil {
		return "", l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LoggedOperation{
		Kind:     kind,
		TargetID: targetID,
		Actor:    actor,
		Payload:  payload,
		Undoable: undoable,
	})
	return uuid.NewString(), nil
}
