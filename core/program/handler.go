package program

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

func location(id int64) string {
	return fmt.Sprintf("/api/programs/%d", id)
}

func HandleCreate(db *sqlx.DB, br *search.Bridge) web.Handler {
	src := NewSource(db)
	load := Loader(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var n catalog.ProgramNew
		if err := web.Decode(w, r, &n); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := catalog.CheckCreate(n.ID); err != nil {
			return err
		}
		if err := catalog.CheckValid(n); err != nil {
			return err
		}
		if err := catalog.CheckRefs(ctx, db, "course", catalog.RefIDs(n.Courses)); err != nil {
			return err
		}

		p := n.Program()
		err := database.Transaction(ctx, db, func(tx sqlx.ExtContext) error {
			return Create(ctx, tx, p)
		})
		if err != nil {
			return fmt.Errorf("creating program: %w", err)
		}

		br.Index(src, p.ID)

		out, err := load.One(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("reloading program[%d]: %w", p.ID, err)
		}

		return web.RespondCreated(ctx, w, location(p.ID), out)
	}
}

func HandleUpdate(db *sqlx.DB, br *search.Bridge) web.Handler {
	src := NewSource(db)
	load := Loader(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := catalog.PathID(r)
		if err != nil {
			return err
		}

		var n catalog.ProgramNew
		if err := web.Decode(w, r, &n); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := catalog.CheckUpdate(ctx, db, Table, id, n.ID); err != nil {
			return err
		}
		if err := catalog.CheckValid(n); err != nil {
			return err
		}
		if err := catalog.CheckRefs(ctx, db, "course", catalog.RefIDs(n.Courses)); err != nil {
			return err
		}

		p := n.Program()
		p.ID = id
		err = database.Transaction(ctx, db, func(tx sqlx.ExtContext) error {
			return Update(ctx, tx, p)
		})
		if err != nil {
			return catalog.NotFoundOnUpdate(err)
		}

		br.Index(src, id)

		out, err := load.One(ctx, id)
		if err != nil {
			return fmt.Errorf("reloading program[%d]: %w", id, err)
		}

		return web.Respond(ctx, w, out, http.StatusOK)
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

		var u catalog.ProgramUp
		if err := web.Decode(w, r, &u); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := catalog.CheckUpdate(ctx, db, Table, id, u.ID); err != nil {
			return err
		}
		if err := catalog.CheckValid(u); err != nil {
			return err
		}
		if err := catalog.CheckRefs(ctx, db, "course", catalog.RefIDs(u.Courses)); err != nil {
			return err
		}

		p, err := load.One(ctx, id)
		if err != nil {
			return catalog.NotFoundOnUpdate(err)
		}
		u.Apply(p)

		err = database.Transaction(ctx, db, func(tx sqlx.ExtContext) error {
			return Update(ctx, tx, p)
		})
		if err != nil {
			return catalog.NotFoundOnUpdate(err)
		}

		br.Index(src, id)

		out, err := load.One(ctx, id)
		if err != nil {
			return fmt.Errorf("reloading program[%d]: %w", id, err)
		}

		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	load := Loader(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		req, err := page.Parse(r.URL.Query(), Sortable)
		if err != nil {
			return weberr.BadRequest(err)
		}

		eagerload, err := web.QueryBool(r, "eagerload", false)
		if err != nil {
			return weberr.BadRequest(err)
		}

		p, err := List(ctx, db, req)
		if err != nil {
			return err
		}

		if eagerload {
			if p, err = load.Page(ctx, p); err != nil {
				return fmt.Errorf("loading courses: %w", err)
			}
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

		p, err := load.One(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(fmt.Errorf("program[%d] not found", id), weberr.WithEntity(IndexName, id))
			}
			return fmt.Errorf("fetching program[%d]: %w", id, err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
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
