package staging

import (
	"context"
	"time"
)

// Stager exposes photo bytes at a short-lived URL the gateway can fetch
type Stager struct {
	store   Store
	baseURL string
}

// NewStager serves entries at <publicBaseURL>/api/staged/<id>
func NewStager(store Store, publicBaseURL string) *Stager {
	return &Stager{store: store, baseURL: publicBaseURL}
}

// Stage stores the photo and returns its URL and a release func that removes it
func (s *Stager) Stage(ctx context.Context, contentType string, data []byte) (string, func(), error) {
	id, err := s.store.Put(ctx, Entry{ContentType: contentType, Data: data})
	if err != nil {
		return "", nil, err
	}

	release := func() {
		// the request context may already be done; expiry covers a failed delete
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.store.Delete(ctx, id)
	}

	return s.baseURL + "/api/staged/" + id, release, nil
}

// Lookup returns a staged photo by id
func (s *Stager) Lookup(ctx context.Context, id string) (*Entry, error) {
	return s.store.Get(ctx, id)
}
