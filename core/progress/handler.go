package progress

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

func HandleMark(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		u, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var n MarkNew
		if err := web.Decode(w, r, &n); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := catalog.CheckValid(n); err != nil {
			return err
		}

		p, err := Mark(ctx, db, u, n.LessonID, n.CourseID, time.Now())
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		u, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		id, err := web.ParamInt64(r, "courseId")
		if err != nil {
			return weberr.BadRequest(err)
		}

		ps, err := ForCourse(ctx, db, u, id)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}
