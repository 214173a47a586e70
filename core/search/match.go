package search

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
)

type idSet map[int64]struct{}

func intersect(a, b idSet) idSet {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(idSet, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func minus(a, b idSet) idSet {
	out := make(idSet, len(a))
	for id := range a {
		if _, ok := b[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func clauseSet(c Clause, sets map[term]idSet, universe idSet) idSet {
	if c.All {
		return universe
	}
	var acc idSet
	for i, t := range c.terms() {
		if i == 0 {
			acc = sets[t]
			continue
		}
		acc = intersect(acc, sets[t])
	}
	return acc
}

// match evaluates q and scores every hit by the number of positive query
// terms it contains. sets holds the ids of every term of q; universe holds
// every id and is only read when q needs it.
func match(q Query, sets map[term]idSet, universe idSet) map[int64]int {
	hits := make(map[int64]int)
	positive := make(map[term]struct{})

	for _, g := range q.Groups {
		var acc idSet
		started := false
		for _, c := range g {
			if c.Negate {
				continue
			}
			for _, t := range c.terms() {
				positive[t] = struct{}{}
			}
			cs := clauseSet(c, sets, universe)
			if !started {
				acc, started = cs, true
				continue
			}
			acc = intersect(acc, cs)
		}
		if !started {
			acc = universe
		}
		for _, c := range g {
			if c.Negate {
				acc = minus(acc, clauseSet(c, sets, universe))
			}
		}
		for id := range acc {
			hits[id] = 0
		}
	}

	for t := range positive {
		for id := range sets[t] {
			if _, ok := hits[id]; ok {
				hits[id]++
			}
		}
	}
	return hits
}

// rank orders hits by score, best first, then by id.
func rank(hits map[int64]int) []int64 {
	ids := make([]int64, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, sj := hits[ids[i]], hits[ids[j]]
		if si != sj {
			return si > sj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// sortByFields orders ids by top level payload fields. Missing or null
// values sort last; ties fall back to id.
func sortByFields(ids []int64, payloads map[int64]map[string]any, orders []page.Order) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := payloads[ids[i]], payloads[ids[j]]
		for _, o := range orders {
			c := compareValues(a[o.Field], b[o.Field])
			if c == 0 {
				continue
			}
			if a[o.Field] == nil || b[o.Field] == nil {
				return c < 0
			}
			if o.Direction == page.Desc {
				return c > 0
			}
			return c < 0
		}
		return ids[i] < ids[j]
	})
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	switch x := a.(type) {
	case json.Number:
		if y, ok := b.(json.Number); ok {
			fx, _ := x.Float64()
			fy, _ := y.Float64()
			switch {
			case fx < fy:
				return -1
			case fx > fy:
				return 1
			}
			return 0
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}
	return 0
}
