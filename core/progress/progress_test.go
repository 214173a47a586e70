package progress

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/claims"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database/dbtest"
)

func ptr[T any](v T) *T { return &v }

func TestAnonymousRejected(t *testing.T) {
	ctx := context.Background()

	if _, err := Mark(ctx, nil, claims.User{}, 1, nil, time.Now()); !errors.Is(err, claims.ErrUnauthenticated) {
		t.Errorf("mark: got %v", err)
	}
	if _, err := ForCourse(ctx, nil, claims.User{}, 1); !errors.Is(err, claims.ErrUnauthenticated) {
		t.Errorf("course progress: got %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/user-lesson-progress/mark", strings.NewReader(`{"lessonId":1}`))
	err := HandleMark(nil)(r.Context(), httptest.NewRecorder(), r)
	if _, status, ok := weberr.Response(err); !ok || status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%v)", status, err)
	}
}

func TestMarkBackfillsCourseOnce(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := claims.User{Login: "hamster"}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	p, err := Mark(ctx, db, u, 11, nil, now)
	if err != nil {
		t.Fatal(err)
	}
	if p.CourseID != nil {
		t.Fatalf("course id set to %d", *p.CourseID)
	}

	p, err = Mark(ctx, db, u, 11, ptr(int64(5)), now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if p.CourseID == nil || *p.CourseID != 5 {
		t.Fatalf("course id not backfilled: %+v", p)
	}

	p, err = Mark(ctx, db, u, 11, ptr(int64(9)), now.Add(2*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if *p.CourseID != 5 {
		t.Fatalf("course id overwritten with %d", *p.CourseID)
	}
	if p.Completed == nil || !*p.Completed {
		t.Fatal("lesson not completed")
	}
	if !p.StartedAt.Equal(now) {
		t.Fatalf("started at moved to %v", p.StartedAt)
	}

	if _, err := Mark(ctx, db, u, 12, ptr(int64(5)), now); err != nil {
		t.Fatal(err)
	}
	if _, err := Mark(ctx, db, u, 13, ptr(int64(7)), now); err != nil {
		t.Fatal(err)
	}

	ps, err := ForCourse(ctx, db, u, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 || ps[0].LessonID != 11 || ps[1].LessonID != 12 {
		t.Fatalf("unexpected course progress: %+v", ps)
	}
}
