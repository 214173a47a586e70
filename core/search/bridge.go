package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/background"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
	"github.com/sirupsen/logrus"
)

// Bridge propagates record store writes to the projection. Writes run on the
// background pool and never report back to the caller; failures are logged.
// Two quick updates of one entity may land out of order until the next
// update or a reindex.
type Bridge struct {
	idx     Index
	bg      *background.Background
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewBridge(idx Index, bg *background.Background, log logrus.FieldLogger, timeout time.Duration) *Bridge {
	return &Bridge{idx: idx, bg: bg, log: log, timeout: timeout}
}

// Index schedules a reread of the entity and a write of its document. An
// entity that no longer exists is removed from the projection instead.
func (b *Bridge) Index(src Source, id int64) {
	log := b.log.WithFields(logrus.Fields{"index": src.Index(), "entity_id": id})

	task := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		doc, err := src.Document(ctx, id)
		if errors.Is(err, database.ErrDBNotFound) {
			if err := b.idx.Delete(ctx, src.Index(), id); err != nil {
				log.WithError(err).Error("removing vanished entity from search index")
			}
			return nil
		}
		if err != nil {
			log.WithError(err).Error("reading entity for search index")
			return nil
		}

		if err := b.idx.Put(ctx, src.Index(), doc); err != nil {
			log.WithError(err).Error("writing search document")
		}
		return nil
	}

	if err := b.bg.Submit(fmt.Sprintf("index %s/%d", src.Index(), id), task); err != nil {
		log.WithError(err).Error("search index update dropped")
	}
}

// Delete schedules the removal of the document with id.
func (b *Bridge) Delete(src Source, id int64) {
	log := b.log.WithFields(logrus.Fields{"index": src.Index(), "entity_id": id})

	task := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		if err := b.idx.Delete(ctx, src.Index(), id); err != nil {
			log.WithError(err).Error("deleting search document")
		}
		return nil
	}

	if err := b.bg.Submit(fmt.Sprintf("delete %s/%d", src.Index(), id), task); err != nil {
		log.WithError(err).Error("search index delete dropped")
	}
}

// Search runs raw against the projection of src. A malformed query yields
// ErrMalformedQuery; an unreachable or slow backend yields ErrUnavailable.
func (b *Bridge) Search(ctx context.Context, src Source, raw string, req page.Request) (page.Page[json.RawMessage], error) {
	q, err := Parse(raw)
	if err != nil {
		return page.Page[json.RawMessage]{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	p, err := b.idx.Search(ctx, src.Index(), q, req)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, ErrUnavailable):
		return page.Page[json.RawMessage]{}, err
	case errors.Is(err, context.DeadlineExceeded):
		return page.Page[json.RawMessage]{}, unavailable(err)
	}
	return page.Page[json.RawMessage]{}, fmt.Errorf("searching %s: %w", src.Index(), err)
}

// Ping reports whether the projection answers within the query timeout.
func (b *Bridge) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.idx.Ping(ctx)
}

// Pending is the number of projection writes waiting for a worker.
func (b *Bridge) Pending() int {
	return b.bg.Pending()
}

// WebError maps search failures onto client responses: malformed queries are
// bad requests, anything else from the projection is a 503.
func WebError(err error) error {
	switch {
	case errors.Is(err, ErrMalformedQuery):
		return weberr.SearchMalformed(err)
	case errors.Is(err, ErrUnavailable):
		return weberr.SearchUnavailable(err)
	}
	return err
}
