package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSource is an in-memory content source.
type fakeSource struct {
	mu     sync.Mutex
	docs   map[string]string
	mtimes map[string]time.Time
}

var _ driven.ContentSource = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{
		docs:   make(map[string]string),
		mtimes: make(map[string]time.Time),
	}
}

func (s *fakeSource) setDoc(path, content string, mtime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = content
	s.mtimes[path] = mtime
}

func (s *fakeSource) removeDoc(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	delete(s.mtimes, path)
}

func (s *fakeSource) List(_ context.Context) ([]domain.DocumentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.docs))
	for path := range s.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	refs := make([]domain.DocumentRef, len(paths))
	for i, path := range paths {
		refs[i] = domain.DocumentRef{Path: path}
	}
	return refs, nil
}

func (s *fakeSource) Read(_ context.Context, ref domain.DocumentRef) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.docs[ref.Path]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Path)
	}
	return content, nil
}

func (s *fakeSource) Stat(_ context.Context, ref domain.DocumentRef) (domain.FileStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.docs[ref.Path]
	if !ok {
		return domain.FileStat{}, fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Path)
	}
	return domain.FileStat{ModifiedTime: s.mtimes[ref.Path], ByteSize: int64(len(content))}, nil
}

func (s *fakeSource) Watch(_ context.Context) (<-chan domain.ChangeEvent, error) {
	return make(chan domain.ChangeEvent), nil
}

func (s *fakeSource) Close() error { return nil }

// fakePersistence is an in-memory index persistence.
type fakePersistence struct {
	mu        sync.Mutex
	loadIndex *domain.VaultIndex
	loadErr   error
	saved     *domain.VaultIndex
	saveCount int
}

var _ driven.IndexPersistence = (*fakePersistence)(nil)

func (p *fakePersistence) Load(_ context.Context) (*domain.VaultIndex, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if p.loadIndex == nil {
		return nil, domain.ErrNotFound
	}
	return p.loadIndex, nil
}

func (p *fakePersistence) Save(_ context.Context, index *domain.VaultIndex) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = index
	p.saveCount++
	return nil
}

func (p *fakePersistence) Path() string { return "memory" }
func (p *fakePersistence) Close() error { return nil }

// fakeEmbedder is a deterministic embedding service.
type fakeEmbedder struct {
	mu      sync.Mutex
	model   string
	calls   []string
	failOn  map[string]bool
	vectors map[string][]float32
	block   chan struct{}
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		model:   "fake-model",
		failOn:  make(map[string]bool),
		vectors: make(map[string][]float32),
	}
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, text)
	if e.failOn[text] {
		return nil, fmt.Errorf("embedding backend unavailable")
	}
	if vector, ok := e.vectors[text]; ok {
		return vector, nil
	}
	return []float32{float32(len(text)), 1}, nil
}

func (e *fakeEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *fakeEmbedder) ModelName() string            { return e.model }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { return nil }

// fakeLLM returns a canned reply and records the messages it saw.
type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	messages []driven.ChatMessage
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (l *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = messages
	return l.reply, nil
}

func (l *fakeLLM) ModelName() string { return "fake-chat" }
func (l *fakeLLM) Close() error      { return nil }
