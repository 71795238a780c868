package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/edforge/edforge/internal/model"
)

// RequestStore persists AI requests and their responses.
type RequestStore interface {
	CreateRequest(ctx context.Context, r AIRequest) (AIRequest, error)
	GetRequest(ctx context.Context, id string) (AIRequest, error)
	UpdateRequest(ctx context.Context, r AIRequest) error
	CreateResponse(ctx context.Context, resp AIResponse) (AIResponse, error)
	ListResponsesByRequest(ctx context.Context, requestID string) ([]AIResponse, error)
}

// MemoryRequestStore is an in-memory RequestStore for tests and local
// development.
type MemoryRequestStore struct {
	mu        sync.RWMutex
	requests  map[string]AIRequest
	responses map[string]AIResponse
}

// NewMemoryRequestStore creates an empty in-memory request store.
func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{
		requests:  make(map[string]AIRequest),
		responses: make(map[string]AIResponse),
	}
}

func (s *MemoryRequestStore) CreateRequest(_ context.Context, r AIRequest) (AIRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	s.requests[r.ID] = r
	return r, nil
}

func (s *MemoryRequestStore) GetRequest(_ context.Context, id string) (AIRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return AIRequest{}, fmt.Errorf("ai request %s: %w", id, model.ErrNotFound)
	}
	return r, nil
}

func (s *MemoryRequestStore) UpdateRequest(_ context.Context, r AIRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return fmt.Errorf("ai request %s: %w", r.ID, model.ErrNotFound)
	}
	s.requests[r.ID] = r
	return nil
}

func (s *MemoryRequestStore) CreateResponse(_ context.Context, resp AIResponse) (AIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp.ID = uuid.NewString()
	s.responses[resp.ID] = resp
	return resp, nil
}

func (s *MemoryRequestStore) ListResponsesByRequest(_ context.Context, requestID string) ([]AIResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AIResponse
	for _, resp := range s.responses {
		if resp.RequestID == requestID {
			out = append(out, resp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
