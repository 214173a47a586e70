// Package reindex rebuilds the search projection from the record store.
package reindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hamstertjie/Learn-With-Hamster-App/core/search"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const BatchSize = 100

// Lister returns up to limit ids greater than after, ascending.
type Lister func(ctx context.Context, after int64, limit int) ([]int64, error)

// TableIDs lists the ids of table. table must be a trusted identifier.
func TableIDs(db sqlx.QueryerContext, table string) Lister {
	q := "SELECT id FROM " + table + " WHERE id > $1 ORDER BY id LIMIT $2"

	return func(ctx context.Context, after int64, limit int) ([]int64, error) {
		var ids []int64
		if err := database.SelectContext(ctx, db, &ids, q, after, limit); err != nil {
			return nil, fmt.Errorf("listing %s ids: %w", table, err)
		}
		return ids, nil
	}
}

type Target struct {
	Source search.Source
	IDs    Lister
}

type Stats struct {
	Index   string
	Written int
	Removed int
}

// Run writes the document of every stored entity of each target and drops
// projection entries whose entity is gone. A failing target stops the run.
func Run(ctx context.Context, idx search.Index, log logrus.FieldLogger, targets ...Target) ([]Stats, error) {
	var out []Stats
	for _, t := range targets {
		st, err := run(ctx, idx, t)
		if err != nil {
			return out, fmt.Errorf("reindexing %s: %w", t.Source.Index(), err)
		}
		log.WithFields(logrus.Fields{
			"index":   st.Index,
			"written": st.Written,
			"removed": st.Removed,
		}).Info("reindexed")
		out = append(out, st)
	}
	return out, nil
}

func run(ctx context.Context, idx search.Index, t Target) (Stats, error) {
	name := t.Source.Index()
	st := Stats{Index: name}
	seen := make(map[int64]struct{})

	var after int64
	for {
		ids, err := t.IDs(ctx, after, BatchSize)
		if err != nil {
			return st, err
		}

		for _, id := range ids {
			doc, err := t.Source.Document(ctx, id)
			if errors.Is(err, database.ErrDBNotFound) {
				continue
			}
			if err != nil {
				return st, fmt.Errorf("reading %d: %w", id, err)
			}
			if err := idx.Put(ctx, name, doc); err != nil {
				return st, fmt.Errorf("writing %d: %w", id, err)
			}
			seen[id] = struct{}{}
			st.Written++
		}

		if len(ids) < BatchSize {
			break
		}
		after = ids[len(ids)-1]
	}

	indexed, err := idx.IDs(ctx, name)
	if err != nil {
		return st, err
	}
	for _, id := range indexed {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := idx.Delete(ctx, name, id); err != nil {
			return st, fmt.Errorf("removing %d: %w", id, err)
		}
		st.Removed++
	}
	return st, nil
}
