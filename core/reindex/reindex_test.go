package reindex

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/Hamstertjie/Learn-With-Hamster-App/core/search"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
)

type memIndex struct {
	docs map[int64]search.Document
}

func (m *memIndex) Put(_ context.Context, _ string, d search.Document) error {
	m.docs[d.ID] = d
	return nil
}

func (m *memIndex) Delete(_ context.Context, _ string, id int64) error {
	delete(m.docs, id)
	return nil
}

func (m *memIndex) Search(context.Context, string, search.Query, page.Request) (page.Page[json.RawMessage], error) {
	return page.Page[json.RawMessage]{}, errors.New("not used")
}

func (m *memIndex) Count(context.Context, string) (int64, error) {
	return int64(len(m.docs)), nil
}

func (m *memIndex) IDs(context.Context, string) ([]int64, error) {
	var ids []int64
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memIndex) Ping(context.Context) error { return nil }

func (m *memIndex) ids() []int64 {
	ids, _ := m.IDs(context.Background(), "")
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// store holds the ids of a table; gone ids are listed but vanish before
// they are read.
type store struct {
	ids  []int64
	gone map[int64]bool
	seen []int64
}

func (s *store) Index() string { return "courses" }

func (s *store) Document(_ context.Context, id int64) (search.Document, error) {
	if s.gone[id] {
		return search.Document{}, database.ErrDBNotFound
	}
	return search.NewDocument(id, map[string]any{"id": id})
}

func (s *store) list(_ context.Context, after int64, limit int) ([]int64, error) {
	var out []int64
	for _, id := range s.ids {
		if id > after && len(out) < limit {
			out = append(out, id)
		}
	}
	s.seen = append(s.seen, after)
	return out, nil
}

func TestRun(t *testing.T) {
	st := &store{gone: map[int64]bool{150: true}}
	for i := int64(1); i <= 250; i++ {
		st.ids = append(st.ids, i)
	}

	idx := &memIndex{docs: map[int64]search.Document{
		150: {ID: 150},
		900: {ID: 900},
	}}

	log, _ := test.NewNullLogger()
	stats, err := Run(context.Background(), idx, log, Target{Source: st, IDs: st.list})
	if err != nil {
		t.Fatal(err)
	}

	want := []Stats{{Index: "courses", Written: 249, Removed: 2}}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("unexpected stats: %s", diff)
	}
	if diff := cmp.Diff([]int64{0, 100, 200}, st.seen); diff != "" {
		t.Fatalf("unexpected batches: %s", diff)
	}

	got := idx.ids()
	if len(got) != 249 || got[0] != 1 || got[len(got)-1] != 250 {
		t.Fatalf("unexpected index content: %d ids", len(got))
	}
	for _, id := range got {
		if id == 150 || id == 900 {
			t.Fatalf("stale id %d kept", id)
		}
	}
}

func TestRunStopsOnListError(t *testing.T) {
	boom := errors.New("boom")
	st := &store{}
	fail := func(context.Context, int64, int) ([]int64, error) { return nil, boom }

	log, _ := test.NewNullLogger()
	_, err := Run(context.Background(), &memIndex{docs: map[int64]search.Document{}}, log, Target{Source: st, IDs: fail})
	if !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
}
