package enrollment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/catalog"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/claims"
	"github.com/jmoiron/sqlx"
)

func courseID(r *http.Request) (int64, error) {
	id, err := web.ParamInt64(r, "courseId")
	if err != nil {
		return 0, weberr.BadRequest(err)
	}
	return id, nil
}

func HandleEnroll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		u, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var n EnrollNew
		if err := web.Decode(w, r, &n); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := catalog.CheckValid(n); err != nil {
			return err
		}

		e, err := Enroll(ctx, db, u, n.CourseID, time.Now())
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, e, http.StatusOK)
	}
}

func HandleUnenroll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		u, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		id, err := courseID(r)
		if err != nil {
			return err
		}

		if err := Unenroll(ctx, db, u, id); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		u, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		es, err := List(ctx, db, u)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, es, http.StatusOK)
	}
}

func HandleCheck(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		u, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		id, err := courseID(r)
		if err != nil {
			return err
		}

		ok, err := IsEnrolled(ctx, db, u, id)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ok, http.StatusOK)
	}
}
