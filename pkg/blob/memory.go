package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"village-registry-system/pkg/sentinel"
)

type object struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStore is a process-local blob store for development and tests. It
// serves its objects over HTTP so the URLs it hands out resolve when
// mounted under baseURL.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]object
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: strings.TrimSuffix(baseURL, "/"), objects: make(map[string]object)}
}

func (s *MemoryStore) Put(_ context.Context, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = object{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		modified:    time.Now(),
	}
	return s.baseURL + "/" + path, nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; !ok {
		return fmt.Errorf("%s: %w", path, sentinel.ErrNotFound)
	}
	delete(s.objects, path)
	return nil
}

func (s *MemoryStore) Has(path string) bool {
	_, ok := s.Object(path)
	return ok
}

// Object returns a copy of the bytes stored at path.
func (s *MemoryStore) Object(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// ServeHTTP serves the object named by the request path, relative to the
// mount point (strip the prefix before calling).
func (s *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/")
	s.mu.RLock()
	obj, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	http.ServeContent(w, r, path, obj.modified, bytes.NewReader(obj.data))
}
