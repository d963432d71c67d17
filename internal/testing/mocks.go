package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/desertthunder/tclive/internal/models"
)

// PermissionStore is an in-memory permission store.
type PermissionStore struct {
	mu    sync.Mutex
	perms map[string]models.Permission
}

func NewPermissionStore() *PermissionStore {
	return &PermissionStore{perms: make(map[string]models.Permission)}
}

func (s *PermissionStore) GetPermission(_ context.Context, backend string) (models.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.perms[backend]; ok {
		return p, nil
	}
	return models.PermissionDefault, nil
}

func (s *PermissionStore) SetPermission(_ context.Context, backend string, p models.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perms[backend] = p
	return nil
}

// SessionStore is an in-memory session store that ignores TTLs.
type SessionStore struct {
	mu     sync.Mutex
	values map[string]string
	Sets   int
}

func NewSessionStore() *SessionStore {
	return &SessionStore{values: make(map[string]string)}
}

func (s *SessionStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *SessionStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.Sets++
	return nil
}

// MockBackend is a scriptable notification backend.
type MockBackend struct {
	mu sync.Mutex

	BackendName string
	IsReady     bool
	Perm        models.Permission
	Grant       bool
	RequestErr  error
	SendErr     error
	TagErr      error

	Requests int
	Sent     []models.Notification
	Tags     map[string]string
}

func NewMockBackend(name string) *MockBackend {
	return &MockBackend{BackendName: name, IsReady: true, Perm: models.PermissionDefault, Grant: true}
}

func (m *MockBackend) Name() string { return m.BackendName }
func (m *MockBackend) Ready() bool  { return m.IsReady }

func (m *MockBackend) Permission(context.Context) (models.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Perm, nil
}

func (m *MockBackend) RequestPermission(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
	if m.RequestErr != nil {
		return false, m.RequestErr
	}
	if m.Grant {
		m.Perm = models.PermissionGranted
	}
	return m.Grant, nil
}

func (m *MockBackend) AddTags(_ context.Context, tags map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TagErr != nil {
		return m.TagErr
	}
	if m.Tags == nil {
		m.Tags = make(map[string]string)
	}
	for k, v := range tags {
		m.Tags[k] = v
	}
	return nil
}

func (m *MockBackend) Send(_ context.Context, n models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, n)
	return nil
}

// SentCount returns how many notifications were delivered.
func (m *MockBackend) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockToaster records toasts.
type MockToaster struct {
	mu     sync.Mutex
	Toasts []models.Toast
}

func (m *MockToaster) Toast(t models.Toast) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Toasts = append(m.Toasts, t)
}

// All returns a copy of the recorded toasts.
func (m *MockToaster) All() []models.Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Toast, len(m.Toasts))
	copy(out, m.Toasts)
	return out
}

// Last returns the most recent toast, or a zero toast.
func (m *MockToaster) Last() models.Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Toasts) == 0 {
		return models.Toast{}
	}
	return m.Toasts[len(m.Toasts)-1]
}

// MockPlayer records player loads and destroys.
type MockPlayer struct {
	mu       sync.Mutex
	Loads    []models.PlayerLoad
	Destroys int
}

func (m *MockPlayer) Load(videoID string, opts models.PlayerOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loads = append(m.Loads, models.PlayerLoad{VideoID: videoID, Options: opts})
}

func (m *MockPlayer) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Destroys++
}

// Counts returns the number of loads and destroys.
func (m *MockPlayer) Counts() (loads, destroys int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Loads), m.Destroys
}

// SearchResult is one scripted response of [MockSearcher].
type SearchResult struct {
	Video *models.LiveVideo
	Err   error
}

// Live is a shorthand for a successful search returning videoID.
func Live(videoID string) SearchResult {
	return SearchResult{Video: &models.LiveVideo{VideoID: videoID, Title: "Live " + videoID}}
}

// Offline is a shorthand for a successful empty search.
func Offline() SearchResult { return SearchResult{} }

// MockSearcher returns scripted results in order, repeating the last one.
type MockSearcher struct {
	mu      sync.Mutex
	results []SearchResult
	Calls   int
}

func NewMockSearcher(results ...SearchResult) *MockSearcher {
	return &MockSearcher{results: results}
}

func (m *MockSearcher) SearchLive(context.Context) (*models.LiveVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if len(m.results) == 0 {
		return nil, nil
	}
	r := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return r.Video, r.Err
}

// CallCount returns the number of searches performed.
func (m *MockSearcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockSink records published events.
type MockSink struct {
	mu     sync.Mutex
	Events []models.Event
	Err    error
}

func (m *MockSink) Publish(_ context.Context, e models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, e)
	return nil
}

// Kinds returns the kinds of recorded events in order.
func (m *MockSink) Kinds() []models.EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]models.EventKind, len(m.Events))
	for i, e := range m.Events {
		kinds[i] = e.Kind
	}
	return kinds
}

// ErrMock is a generic failure for scripted doubles.
var ErrMock = errors.New("mock failure")
