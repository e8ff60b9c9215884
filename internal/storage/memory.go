package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStore is an in-process ObjectStore. Presigned URLs use the mem://
// scheme and carry the expiry as a unix timestamp.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
	seq     int
}

var _ ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject), now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = memoryObject{data: bytes.Clone(data), contentType: contentType, modified: m.now()}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Head(_ context.Context, key string) (*ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return &ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType, LastModified: obj.modified}, nil
}

func (m *MemoryStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// The signature only needs to differ between calls, like a real presigner's.
	m.seq++
	q := url.Values{}
	q.Set("expires", fmt.Sprint(m.now().Add(expiry).Unix()))
	q.Set("sig", fmt.Sprint(m.seq))
	return (&url.URL{Scheme: "mem", Host: "bucket", Path: "/" + key, RawQuery: q.Encode()}).String(), nil
}

// SetClock replaces the time source used for presigned expiries.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Keys lists stored keys in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve returns the bytes a presigned mem:// URL grants access to, failing
// when the URL has expired.
func (m *MemoryStore) Resolve(rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	var expires int64
	if _, err := fmt.Sscan(u.Query().Get("expires"), &expires); err != nil {
		return nil, fmt.Errorf("malformed expiry: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.now().Before(time.Unix(expires, 0)) {
		return nil, fmt.Errorf("url expired")
	}
	obj, ok := m.objects[u.Path[1:]]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return bytes.Clone(obj.data), nil
}
