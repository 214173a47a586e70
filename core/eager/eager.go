// Package eager loads collection relationships one collection per query and
// merges the results back in the order the caller asked for.
package eager

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
)

// ErrOrderMismatch means a fetch step did not return exactly the requested
// ids. Both queries run against the same rows, so this is a bug, not a
// missing record.
var ErrOrderMismatch = errors.New("eager load returned a different id set")

// Fetch loads the entities with the given ids, each with one collection
// populated. The result order is unspecified.
type Fetch[T any] func(ctx context.Context, ids []int64) ([]T, error)

type step[T any] struct {
	fetch Fetch[T]
	merge func(into, from T)
}

type Loader[T any] struct {
	id    func(T) int64
	fetch Fetch[T]
	steps []step[T]
}

func New[T any](id func(T) int64, fetch Fetch[T]) *Loader[T] {
	return &Loader[T]{id: id, fetch: fetch}
}

// Then adds a step loading another collection. merge copies that collection
// from the freshly fetched entity into the one being returned.
func (l *Loader[T]) Then(fetch Fetch[T], merge func(into, from T)) *Loader[T] {
	cp := &Loader[T]{id: l.id, fetch: l.fetch}
	cp.steps = append(append(cp.steps, l.steps...), step[T]{fetch: fetch, merge: merge})
	return cp
}

// One loads a single entity with its relationships.
func (l *Loader[T]) One(ctx context.Context, id int64) (T, error) {
	var zero T

	got, err := l.fetch(ctx, []int64{id})
	if err != nil {
		return zero, err
	}
	if len(got) == 0 {
		return zero, database.ErrDBNotFound
	}
	if len(got) > 1 || l.id(got[0]) != id {
		return zero, fmt.Errorf("loading id %d: %w", id, ErrOrderMismatch)
	}

	out := got[:1]
	if err := l.rest(ctx, []int64{id}, out); err != nil {
		return zero, err
	}
	return out[0], nil
}

// List reloads items with their relationships, keeping the order of items.
func (l *Loader[T]) List(ctx context.Context, items []T) ([]T, error) {
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = l.id(it)
	}

	out, err := l.ordered(ctx, l.fetch, ids)
	if err != nil {
		return nil, err
	}
	if err := l.rest(ctx, ids, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Page is List on the page content; the paging metadata is kept.
func (l *Loader[T]) Page(ctx context.Context, p page.Page[T]) (page.Page[T], error) {
	content, err := l.List(ctx, p.Content)
	if err != nil {
		return page.Page[T]{}, err
	}
	return p.WithContent(content), nil
}

func (l *Loader[T]) rest(ctx context.Context, ids []int64, out []T) error {
	for _, s := range l.steps {
		more, err := l.ordered(ctx, s.fetch, ids)
		if err != nil {
			return err
		}
		for i := range out {
			s.merge(out[i], more[i])
		}
	}
	return nil
}

// ordered runs fetch and sorts its result by the position of each id in ids.
func (l *Loader[T]) ordered(ctx context.Context, fetch Fetch[T], ids []int64) ([]T, error) {
	pos := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}

	got, err := fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(got) != len(pos) {
		return nil, fmt.Errorf("asked for %d ids, got %d: %w", len(pos), len(got), ErrOrderMismatch)
	}

	seen := make(map[int64]struct{}, len(got))
	for _, it := range got {
		id := l.id(it)
		if _, ok := pos[id]; !ok {
			return nil, fmt.Errorf("unexpected id %d: %w", id, ErrOrderMismatch)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("id %d returned twice: %w", id, ErrOrderMismatch)
		}
		seen[id] = struct{}{}
	}
	sort.SliceStable(got, func(i, j int) bool {
		return pos[l.id(got[i])] < pos[l.id(got[j])]
	})

	if len(got) == len(ids) {
		return got, nil
	}

	// Duplicate input ids map onto the single fetched entity.
	byID := make(map[int64]T, len(got))
	for _, it := range got {
		byID[l.id(it)] = it
	}
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out, nil
}
