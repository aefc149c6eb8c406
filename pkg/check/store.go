package check

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

// Store is the persistence boundary for compliance checks. Implementations
// must keep history append-only: Update is only legal while a check is in a
// non-terminal state.
type Store interface {
	// Insert persists a new check.
	Insert(ctx context.Context, c *ComplianceCheck) error
	// Update replaces a non-terminal check's state. Updating a terminal
	// check is a store-level error.
	Update(ctx context.Context, c *ComplianceCheck) error
	// Get returns a check by id, or bylaw.ErrNotFound.
	Get(ctx context.Context, id string) (*ComplianceCheck, error)
	// ListByProject returns a project's checks ordered by check date
	// descending.
	ListByProject(ctx context.Context, projectID string) ([]*ComplianceCheck, error)
}

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu     sync.RWMutex
	checks map[string]*ComplianceCheck
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checks: make(map[string]*ComplianceCheck)}
}

func (s *MemoryStore) Insert(ctx context.Context, c *ComplianceCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.checks[c.ID]; exists {
		return &bylaw.StorageError{Op: "insert", Err: errDuplicateID(c.ID)}
	}
	s.checks[c.ID] = cloneCheck(c)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, c *ComplianceCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, exists := s.checks[c.ID]
	if !exists {
		return bylaw.ErrNotFound
	}
	if prev.Terminal() {
		return bylaw.ErrInvalidState
	}
	s.checks[c.ID] = cloneCheck(c)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*ComplianceCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checks[id]
	if !ok {
		return nil, bylaw.ErrNotFound
	}
	return cloneCheck(c), nil
}

func (s *MemoryStore) ListByProject(ctx context.Context, projectID string) ([]*ComplianceCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ComplianceCheck
	for _, c := range s.checks {
		if c.ProjectID == projectID {
			out = append(out, cloneCheck(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckDate.Equal(out[j].CheckDate) {
			return out[i].CheckDate.After(out[j].CheckDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// cloneCheck deep-copies through JSON so callers can never reach the stored
// record. Checks are small; the round trip is not on a hot path.
func cloneCheck(c *ComplianceCheck) *ComplianceCheck {
	raw, _ := json.Marshal(c)
	var out ComplianceCheck
	_ = json.Unmarshal(raw, &out)
	return &out
}

type errDuplicateID string

func (e errDuplicateID) Error() string { return "duplicate check id " + string(e) }
