package test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type enrollmentOut struct {
	ID         int64     `json:"id"`
	UserLogin  string    `json:"userLogin"`
	CourseID   int64     `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

type progressOut struct {
	LessonID  int64  `json:"lessonId"`
	CourseID  *int64 `json:"courseId"`
	Completed *bool  `json:"completed"`
}

func TestTracking(t *testing.T) {
	env := NewTestEnv(t)

	for _, path := range []string{
		"/api/user-course-enrollment",
		"/api/user-course-enrollment/check/1",
		"/api/user-lesson-progress/course/1",
	} {
		if w := env.Do(t, http.MethodGet, path, nil, ""); w.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s anonymously: expected 401, got %s", path, w.Status)
		}
	}
	if w := env.Do(t, http.MethodPost, "/api/user-course-enrollment/enroll", map[string]any{"courseId": 1}, ""); w.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous enroll: expected 401, got %s", w.Status)
	}

	var e1, e2 enrollmentOut
	env.Expect(t, http.MethodPost, "/api/user-course-enrollment/enroll", map[string]any{"courseId": 3}, http.StatusOK, &e1)
	env.Expect(t, http.MethodPost, "/api/user-course-enrollment/enroll", map[string]any{"courseId": 3}, http.StatusOK, &e2)
	if diff := cmp.Diff(e1, e2); diff != "" {
		t.Fatalf("second enroll changed the enrollment: %s", diff)
	}
	if e1.UserLogin != "hamster" {
		t.Fatalf("enrollment owned by %q", e1.UserLogin)
	}

	env.ExpectInvalid(t, http.MethodPost, "/api/user-course-enrollment/enroll", map[string]any{}, "validation")

	var enrolled bool
	env.Expect(t, http.MethodGet, "/api/user-course-enrollment/check/3", nil, http.StatusOK, &enrolled)
	if !enrolled {
		t.Fatal("check reports not enrolled")
	}

	var list []enrollmentOut
	env.Expect(t, http.MethodGet, "/api/user-course-enrollment", nil, http.StatusOK, &list)
	if len(list) != 1 {
		t.Fatalf("expected one enrollment, got %+v", list)
	}

	env.Expect(t, http.MethodDelete, "/api/user-course-enrollment/3", nil, http.StatusNoContent, nil)
	env.Expect(t, http.MethodDelete, "/api/user-course-enrollment/3", nil, http.StatusNoContent, nil)
	env.Expect(t, http.MethodGet, "/api/user-course-enrollment/check/3", nil, http.StatusOK, &enrolled)
	if enrolled {
		t.Fatal("still enrolled after unenroll")
	}

	var p progressOut
	env.Expect(t, http.MethodPost, "/api/user-lesson-progress/mark", map[string]any{"lessonId": 7}, http.StatusOK, &p)
	env.Expect(t, http.MethodPost, "/api/user-lesson-progress/mark", map[string]any{"lessonId": 7, "courseId": 5}, http.StatusOK, &p)
	env.Expect(t, http.MethodPost, "/api/user-lesson-progress/mark", map[string]any{"lessonId": 7, "courseId": 9}, http.StatusOK, &p)
	if p.CourseID == nil || *p.CourseID != 5 || p.Completed == nil || !*p.Completed {
		t.Fatalf("unexpected progress %+v", p)
	}

	var ps []progressOut
	env.Expect(t, http.MethodGet, "/api/user-lesson-progress/course/5", nil, http.StatusOK, &ps)
	if len(ps) != 1 || ps[0].LessonID != 7 {
		t.Fatalf("unexpected course progress %+v", ps)
	}
}
