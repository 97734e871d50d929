package memstore

import (
	"context"
	"sync"

	"washbook/internal/domain/resource"
	"washbook/internal/domain/service"
	"washbook/internal/infra"

	"github.com/google/uuid"
)

// ReferenceStore holds the immutable resource/service reference data.
type ReferenceStore struct {
	mu        sync.RWMutex
	resources map[uuid.UUID]*resource.Resource
	services  map[uuid.UUID]*service.Service
}

func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{
		resources: make(map[uuid.UUID]*resource.Resource),
		services:  make(map[uuid.UUID]*service.Service),
	}
}

func (s *ReferenceStore) PutResource(r *resource.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID()] = r
}

func (s *ReferenceStore) PutService(svc *service.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID()] = svc
}

func (s *ReferenceStore) FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, infra.NewRepoErr("resource not found", infra.KindNotFound)
	}
	return r, nil
}

// Services returns a reader scoped to service lookups, since resource and
// service ports share the FindByID name.
func (s *ReferenceStore) Services() *ServiceReader {
	return &ServiceReader{store: s}
}

type ServiceReader struct {
	store *ReferenceStore
}

func (r *ServiceReader) FindByID(ctx context.Context, id uuid.UUID) (*service.Service, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	svc, ok := r.store.services[id]
	if !ok {
		return nil, infra.NewRepoErr("service not found", infra.KindNotFound)
	}
	return svc, nil
}
