package enrollment

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
	"github.com/google/go-cmp/cmp"
)

func TestAnonymousRejected(t *testing.T) {
	ctx := context.Background()
	var anon claims.User

	if _, err := Enroll(ctx, nil, anon, 1, time.Now()); !errors.Is(err, claims.ErrUnauthenticated) {
		t.Errorf("enroll: got %v", err)
	}
	if err := Unenroll(ctx, nil, anon, 1); !errors.Is(err, claims.ErrUnauthenticated) {
		t.Errorf("unenroll: got %v", err)
	}
	if _, err := IsEnrolled(ctx, nil, anon, 1); !errors.Is(err, claims.ErrUnauthenticated) {
		t.Errorf("check: got %v", err)
	}
	if _, err := List(ctx, nil, anon); !errors.Is(err, claims.ErrUnauthenticated) {
		t.Errorf("list: got %v", err)
	}
}

func TestHandleEnrollAnonymous(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/user-course-enrollment/enroll", strings.NewReader(`{"courseId":1}`))
	w := httptest.NewRecorder()

	err := HandleEnroll(nil)(r.Context(), w, r)
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, status, ok := weberr.Response(err); !ok || status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%v)", status, err)
	}
}

func TestEnrollment(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := claims.User{Login: "hamster"}

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e1, err := Enroll(ctx, db, u, 5, first)
	if err != nil {
		t.Fatal(err)
	}

	e2, err := Enroll(ctx, db, u, 5, first.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if e1.ID != e2.ID || !e2.EnrolledAt.Equal(first) {
		t.Fatalf("re-enrolling changed the row: %+v then %+v", e1, e2)
	}

	if _, err := Enroll(ctx, db, u, 6, first); err != nil {
		t.Fatal(err)
	}
	if _, err := Enroll(ctx, db, claims.User{Login: "other"}, 5, first); err != nil {
		t.Fatal(err)
	}

	es, err := List(ctx, db, u)
	if err != nil {
		t.Fatal(err)
	}
	var courses []int64
	for _, e := range es {
		courses = append(courses, e.CourseID)
	}
	if diff := cmp.Diff([]int64{5, 6}, courses); diff != "" {
		t.Fatalf("unexpected enrollments: %s", diff)
	}

	if err := Unenroll(ctx, db, u, 5); err != nil {
		t.Fatal(err)
	}
	if err := Unenroll(ctx, db, u, 5); err != nil {
		t.Fatalf("unenrolling twice: %v", err)
	}

	ok, err := IsEnrolled(ctx, db, u, 5)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("still enrolled after unenroll")
	}
	if ok, _ := IsEnrolled(ctx, db, u, 6); !ok {
		t.Fatal("enrollment in course 6 lost")
	}
}
