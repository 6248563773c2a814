// Package store persists land applications. Both implementations enforce the
// pending guard and the decision write as one conditional update.
package store

import (
	"context"
	"sort"
	"sync"

	"landledger/internal/land/models"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/platform/tx"
)

// InMemoryStore is safe for concurrent use and takes part in units of work
// through the tx journal.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.LandApplication
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{apps: make(map[id.ApplicationID]*models.LandApplication)}
}

func (s *InMemoryStore) Create(ctx context.Context, app *models.LandApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = app.Clone()
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		delete(s.apps, app.ID)
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appID id.ApplicationID) (*models.LandApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

// Decide applies d only if the application is still pending. A lost race
// yields sentinel.ErrConflict.
func (s *InMemoryStore) Decide(ctx context.Context, appID id.ApplicationID, d models.Decision) (*models.LandApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if app.Status != models.StatusPending {
		return nil, sentinel.ErrConflict
	}
	prev := app.Clone()
	app.Apply(d)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		s.apps[appID] = prev
		s.mu.Unlock()
	})
	return app.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter, page models.Page) ([]*models.LandApplication, int, error) {
	page = page.Normalize()
	s.mu.RLock()
	matched := make([]*models.LandApplication, 0, len(s.apps))
	for _, app := range s.apps {
		if matches(app, filter) {
			matched = append(matched, app.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SubmissionDate.Equal(matched[j].SubmissionDate) {
			return matched[i].SubmissionDate.After(matched[j].SubmissionDate)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := page.Offset()
	if start >= total {
		return []*models.LandApplication{}, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (models.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts models.StatusCounts
	for _, app := range s.apps {
		counts.Add(app.Status, 1)
	}
	return counts, nil
}

func matches(app *models.LandApplication, f models.ListFilter) bool {
	if f.Status != "" && app.Status != f.Status {
		return false
	}
	if f.Type != "" && app.Type != f.Type {
		return false
	}
	if !f.SubmittedBy.IsNil() && app.SubmittedBy != f.SubmittedBy {
		return false
	}
	return true
}
