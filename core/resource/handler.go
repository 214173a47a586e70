package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/catalog"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/search"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
	"github.com/jmoiron/sqlx"
)

type parents interface {
	CheckParents() error
}

// checkParents rejects payloads naming several owners or an owner that does
// not exist.
func checkParents(ctx context.Context, db sqlx.QueryerContext, p parents, d, pr, c, l *catalog.Ref) error {
	if err := p.CheckParents(); err != nil {
		return weberr.Invalid(err, catalog.KeyMultipleParents)
	}

	refs := []struct {
		table string
		ref   *catalog.Ref
	}{
		{"discipline", d},
		{"program", pr},
		{"course", c},
		{"lesson", l},
	}
	for _, r := range refs {
		if r.ref == nil {
			continue
		}
		if err := catalog.CheckRefs(ctx, db, r.table, []int64{r.ref.ID}); err != nil {
			return err
		}
	}
	return nil
}

func HandleCreate(db *sqlx.DB, br *search.Bridge) web.Handler {
	src := NewSource(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var n catalog.ResourceNew
		if err := web.Decode(w, r, &n); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := catalog.CheckCreate(n.ID); err != nil {
			return err
		}
		if err := catalog.CheckValid(n); err != nil {
			return err
		}
		if err := checkParents(ctx, db, n, n.Discipline, n.Program, n.Course, n.Lesson); err != nil {
			return err
		}

		res := n.Resource()
		if err := Create(ctx, db, res); err != nil {
			return fmt.Errorf("creating resource: %w", err)
		}

		br.Index(src, res.ID)

		return web.RespondCreated(ctx, w, fmt.Sprintf("/api/resources/%d", res.ID), res)
	}
}

func HandleUpdate(db *sqlx.DB, br *search.Bridge) web.Handler {
	src := NewSource(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := catalog.PathID(r)
		if err != nil {
			return err
		}

		var n catalog.ResourceNew
		if err := web.Decode(w, r, &n); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := catalog.CheckUpdate(ctx, db, Table, id, n.ID); err != nil {
			return err
		}
		if err := catalog.CheckValid(n); err != nil {
			return err
		}
		if err := checkParents(ctx, db, n, n.Discipline, n.Program, n.Course, n.Lesson); err != nil {
			return err
		}

		res := n.Resource()
		res.ID = id
		if err := Update(ctx, db, res); err != nil {
			return catalog.NotFoundOnUpdate(err)
		}

		br.Index(src, id)

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandlePatch(db *sqlx.DB, br *search.Bridge) web.Handler {
	src := NewSource(db)
	load := Loader(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := catalog.PathID(r)
		if err != nil {
			return err
		}

		var u catalog.ResourceUp
		if err := web.Decode(w, r, &u); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := catalog.CheckUpdate(ctx, db, Table, id, u.ID); err != nil {
			return err
		}
		if err := catalog.CheckValid(u); err != nil {
			return err
		}
		if err := checkParents(ctx, db, u, u.Discipline, u.Program, u.Course, u.Lesson); err != nil {
			return err
		}

		res, err := load.One(ctx, id)
		if err != nil {
			return catalog.NotFoundOnUpdate(err)
		}
		u.Apply(res)

		if err := Update(ctx, db, res); err != nil {
			return catalog.NotFoundOnUpdate(err)
		}

		br.Index(src, id)

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		req, err := page.Parse(r.URL.Query(), Sortable)
		if err != nil {
			return weberr.BadRequest(err)
		}

		p, err := List(ctx, db, req)
		if err != nil {
			return err
		}

		if !req.Unpaged {
			page.WriteHeaders(w, r.URL, p)
		}
		return web.Respond(ctx, w, p.Content, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	load := Loader(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := catalog.PathID(r)
		if err != nil {
			return err
		}

		res, err := load.One(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(fmt.Errorf("resource[%d] not found", id), weberr.WithEntity(IndexName, id))
			}
			return fmt.Errorf("fetching resource[%d]: %w", id, err)
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB, br *search.Bridge) web.Handler {
	src := NewSource(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := catalog.PathID(r)
		if err != nil {
			return err
		}

		if err := Delete(ctx, db, id); err != nil {
			return err
		}
		br.Delete(src, id)

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleSearch(db *sqlx.DB, br *search.Bridge) web.Handler {
	src := NewSource(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		req, err := page.Parse(r.URL.Query(), Sortable)
		if err != nil {
			return weberr.BadRequest(err)
		}

		p, err := br.Search(ctx, src, r.URL.Query().Get("query"), req)
		if err != nil {
			return search.WebError(err)
		}

		if !req.Unpaged {
			page.WriteHeaders(w, r.URL, p)
		}
		return web.Respond(ctx, w, p.Content, http.StatusOK)
	}
}
