package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/background"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeIndex struct {
	mu     sync.Mutex
	docs   map[int64]Document
	putErr error
	search func(ctx context.Context) error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[int64]Document)}
}

func (f *fakeIndex) Put(ctx context.Context, index string, doc Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) Delete(ctx context.Context, index string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, index string, q Query, req page.Request) (page.Page[json.RawMessage], error) {
	if f.search != nil {
		if err := f.search(ctx); err != nil {
			return page.Page[json.RawMessage]{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []json.RawMessage
	for _, d := range f.docs {
		out = append(out, d.Source)
	}
	return page.New(out, req, int64(len(out))), nil
}

func (f *fakeIndex) Count(ctx context.Context, index string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.docs)), nil
}

func (f *fakeIndex) IDs(ctx context.Context, index string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id := range f.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeIndex) Ping(ctx context.Context) error { return nil }

func (f *fakeIndex) has(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok
}

// fakeSource serves documents for the ids in rows.
type fakeSource struct {
	mu   sync.Mutex
	rows map[int64]string
}

func (s *fakeSource) Index() string { return "courses" }

func (s *fakeSource) Document(ctx context.Context, id int64) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	title, ok := s.rows[id]
	if !ok {
		return Document{}, database.ErrDBNotFound
	}
	return NewDocument(id, map[string]any{"id": id, "courseTitle": title})
}

func (s *fakeSource) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newBridge(t *testing.T, idx Index, log logrus.FieldLogger) *Bridge {
	t.Helper()
	bg := background.New(log, 2, 16)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		bg.Shutdown(ctx)
	})
	return NewBridge(idx, bg, log, time.Second)
}

func TestBridgeIndexAndDelete(t *testing.T) {
	log, _ := test.NewNullLogger()
	idx := newFakeIndex()
	src := &fakeSource{rows: map[int64]string{1: "Go basics"}}
	b := newBridge(t, idx, log)

	b.Index(src, 1)
	eventually(t, "document 1 to be indexed", func() bool { return idx.has(1) })

	src.remove(1)
	b.Delete(src, 1)
	eventually(t, "document 1 to be removed", func() bool { return !idx.has(1) })
}

func TestBridgeIndexOfVanishedEntityDeletes(t *testing.T) {
	log, _ := test.NewNullLogger()
	idx := newFakeIndex()
	idx.docs[5] = Document{ID: 5}
	src := &fakeSource{rows: map[int64]string{}}
	b := newBridge(t, idx, log)

	b.Index(src, 5)
	eventually(t, "stale document 5 to be removed", func() bool { return !idx.has(5) })
}

func TestBridgeLogsFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	idx := newFakeIndex()
	idx.putErr = unavailable(errors.New("connection refused"))
	src := &fakeSource{rows: map[int64]string{3: "Rust"}}
	b := newBridge(t, idx, log)

	b.Index(src, 3)

	eventually(t, "the failure to be logged", func() bool {
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel && e.Data["index"] == "courses" && e.Data["entity_id"] == int64(3) {
				return true
			}
		}
		return false
	})
	if idx.has(3) {
		t.Fatal("document must not be indexed")
	}
}

func TestBridgeSearchErrors(t *testing.T) {
	log, _ := test.NewNullLogger()
	idx := newFakeIndex()
	src := &fakeSource{}
	b := newBridge(t, idx, log)

	if _, err := b.Search(context.Background(), src, `"open`, page.Request{Unpaged: true}); !errors.Is(err, ErrMalformedQuery) {
		t.Fatalf("expected %v, got %v", ErrMalformedQuery, err)
	}

	idx.search = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	b.timeout = 20 * time.Millisecond

	_, err := b.Search(context.Background(), src, "go", page.Request{Unpaged: true})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected %v, got %v", ErrUnavailable, err)
	}

	idx.search = func(ctx context.Context) error {
		return unavailable(fmt.Errorf("dial tcp: refused"))
	}
	_, err = b.Search(context.Background(), src, "go", page.Request{Unpaged: true})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected %v, got %v", ErrUnavailable, err)
	}
}

func TestBridgeSearchEmptyIsNotAnError(t *testing.T) {
	log, _ := test.NewNullLogger()
	b := newBridge(t, newFakeIndex(), log)

	p, err := b.Search(context.Background(), &fakeSource{}, "go", page.Request{Unpaged: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Total != 0 || len(p.Content) != 0 {
		t.Fatalf("expected no results, got %d", p.Total)
	}
}

// blockingSource holds every Document call until release is closed.
type blockingSource struct {
	release chan struct{}
}

func (s blockingSource) Index() string { return "lessons" }

func (s blockingSource) Document(ctx context.Context, id int64) (Document, error) {
	<-s.release
	return NewDocument(id, map[string]any{"id": id})
}

func TestBridgePending(t *testing.T) {
	log, _ := test.NewNullLogger()
	idx := newFakeIndex()
	bg := background.New(log, 1, 4)
	b := NewBridge(idx, bg, log, time.Second)

	src := blockingSource{release: make(chan struct{})}
	for id := int64(1); id <= 3; id++ {
		b.Index(src, id)
	}
	eventually(t, "two writes queued behind the first", func() bool { return b.Pending() == 2 })

	close(src.release)
	if err := bg.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.Pending() != 0 || !idx.has(1) || !idx.has(3) {
		t.Fatalf("queue not drained: pending %d", b.Pending())
	}
}
