package api

import (
	"context"
	"net/http"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/middleware"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/auth"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/course"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/discipline"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/enrollment"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/lesson"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/program"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/progress"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/resource"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/search"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	Log      logrus.FieldLogger
	DB       *sqlx.DB
	Bridge   *search.Bridge
	Verifier *auth.Verifier
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

// family is the uniform REST surface of one entity kind.
type family struct {
	path   string
	create web.Handler
	update web.Handler
	patch  web.Handler
	list   web.Handler
	show   web.Handler
	delete web.Handler
	search web.Handler
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	a.Handle(http.MethodGet, "/health", handleHealth(cfg.DB, cfg.Bridge))

	authen := auth.Authenticate(cfg.Verifier)
	db, br := cfg.DB, cfg.Bridge

	families := []family{
		{
			path:   "/api/courses",
			create: course.HandleCreate(db, br),
			update: course.HandleUpdate(db, br),
			patch:  course.HandlePatch(db, br),
			list:   course.HandleList(db),
			show:   course.HandleShow(db),
			delete: course.HandleDelete(db, br),
			search: course.HandleSearch(db, br),
		},
		{
			path:   "/api/lessons",
			create: lesson.HandleCreate(db, br),
			update: lesson.HandleUpdate(db, br),
			patch:  lesson.HandlePatch(db, br),
			list:   lesson.HandleList(db),
			show:   lesson.HandleShow(db),
			delete: lesson.HandleDelete(db, br),
			search: lesson.HandleSearch(db, br),
		},
		{
			path:   "/api/programs",
			create: program.HandleCreate(db, br),
			update: program.HandleUpdate(db, br),
			patch:  program.HandlePatch(db, br),
			list:   program.HandleList(db),
			show:   program.HandleShow(db),
			delete: program.HandleDelete(db, br),
			search: program.HandleSearch(db, br),
		},
		{
			path:   "/api/disciplines",
			create: discipline.HandleCreate(db, br),
			update: discipline.HandleUpdate(db, br),
			patch:  discipline.HandlePatch(db, br),
			list:   discipline.HandleList(db),
			show:   discipline.HandleShow(db),
			delete: discipline.HandleDelete(db, br),
			search: discipline.HandleSearch(db, br),
		},
		{
			path:   "/api/resources",
			create: resource.HandleCreate(db, br),
			update: resource.HandleUpdate(db, br),
			patch:  resource.HandlePatch(db, br),
			list:   resource.HandleList(db),
			show:   resource.HandleShow(db),
			delete: resource.HandleDelete(db, br),
			search: resource.HandleSearch(db, br),
		},
	}

	for _, f := range families {
		// _search has to be registered ahead of {id}.
		a.Handle(http.MethodGet, f.path+"/_search", f.search, authen)
		a.Handle(http.MethodPost, f.path, f.create, authen)
		a.Handle(http.MethodGet, f.path, f.list, authen)
		a.Handle(http.MethodPut, f.path+"/{id}", f.update, authen)
		a.Handle(http.MethodPatch, f.path+"/{id}", f.patch, authen)
		a.Handle(http.MethodGet, f.path+"/{id}", f.show, authen)
		a.Handle(http.MethodDelete, f.path+"/{id}", f.delete, authen)
	}

	a.Handle(http.MethodPost, "/api/user-course-enrollment/enroll", enrollment.HandleEnroll(db), authen)
	a.Handle(http.MethodGet, "/api/user-course-enrollment/check/{courseId}", enrollment.HandleCheck(db), authen)
	a.Handle(http.MethodGet, "/api/user-course-enrollment", enrollment.HandleList(db), authen)
	a.Handle(http.MethodDelete, "/api/user-course-enrollment/{courseId}", enrollment.HandleUnenroll(db), authen)

	a.Handle(http.MethodPost, "/api/user-lesson-progress/mark", progress.HandleMark(db), authen)
	a.Handle(http.MethodGet, "/api/user-lesson-progress/course/{courseId}", progress.HandleCourse(db), authen)

	return a.Router
}

type health struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Search string `json:"search"`
	Queued int    `json:"queued"`
}

// handleHealth fails only when the record store is down; the projection is
// reported but optional. Queued counts projection writes not yet started.
func handleHealth(db *sqlx.DB, br *search.Bridge) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		h := health{Status: "UP", DB: "UP", Search: "UP", Queued: br.Pending()}
		status := http.StatusOK

		if err := database.StatusCheck(ctx, db); err != nil {
			h.Status, h.DB = "DOWN", "DOWN"
			status = http.StatusServiceUnavailable
		}
		if err := br.Ping(ctx); err != nil {
			h.Search = "DOWN"
		}

		return web.Respond(ctx, w, h, status)
	}
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
