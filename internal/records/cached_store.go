package records

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCacheSize = 1024
	// cachedListLen is how many records per project the cache holds.
	cachedListLen = 100
)

// CachedStore keeps recent per-project listings in an LRU in front of a
// slower Store. Writes invalidate the project's entry.
type CachedStore struct {
	next  Store
	lists *lru.Cache[string, []Record]
}

func NewCachedStore(next Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []Record](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{next: next, lists: cache}, nil
}

func (s *CachedStore) Put(ctx context.Context, rec Record) error {
	if err := s.next.Put(ctx, rec); err != nil {
		return err
	}
	s.lists.Remove(strings.TrimSpace(rec.ProjectName))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (Record, error) {
	return s.next.Get(ctx, id)
}

func (s *CachedStore) ListByProject(ctx context.Context, project string, limit int) ([]Record, error) {
	project = strings.TrimSpace(project)
	if limit > cachedListLen {
		return s.next.ListByProject(ctx, project, limit)
	}
	list, ok := s.lists.Get(project)
	if !ok {
		var err error
		list, err = s.next.ListByProject(ctx, project, cachedListLen)
		if err != nil {
			return nil, err
		}
		s.lists.Add(project, list)
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return append([]Record(nil), list...), nil
}

func (s *CachedStore) Close() error {
	s.lists.Purge()
	return s.next.Close()
}
