// Package progress records the lessons a user has completed.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/core/claims"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/jmoiron/sqlx"
)

type Progress struct {
	ID        int64     `json:"id" db:"id"`
	UserLogin string    `json:"userLogin" db:"user_login"`
	LessonID  int64     `json:"lessonId" db:"lesson_id"`
	CourseID  *int64    `json:"courseId" db:"course_id"`
	StartedAt time.Time `json:"startedAt" db:"started_at"`
	Completed *bool     `json:"completed" db:"completed"`
}

type MarkNew struct {
	LessonID int64  `json:"lessonId" validate:"required,gt=0"`
	CourseID *int64 `json:"courseId" validate:"omitempty,gt=0"`
}

const columns = `id, user_login, lesson_id, course_id, started_at, completed`

// Mark records lessonID as completed by u. The first row for (u, lessonID) is
// started at now. A course id is only ever filled in once: a row that already
// has one keeps it.
func Mark(ctx context.Context, db sqlx.ExtContext, u claims.User, lessonID int64, courseID *int64, now time.Time) (Progress, error) {
	if !u.Authenticated() {
		return Progress{}, claims.ErrUnauthenticated
	}

	q := `
	INSERT INTO user_lesson_progress (user_login, lesson_id, course_id, started_at, completed)
	VALUES ($1, $2, $3, $4, true)
	ON CONFLICT (user_login, lesson_id) DO UPDATE SET
		completed = true,
		course_id = COALESCE(user_lesson_progress.course_id, EXCLUDED.course_id)
	RETURNING ` + columns

	var p Progress
	if err := database.GetContext(ctx, db, &p, q, u.Login, lessonID, courseID, now.UTC()); err != nil {
		return Progress{}, fmt.Errorf("marking lesson[%d] for %s: %w", lessonID, u.Login, err)
	}
	return p, nil
}

// ForCourse returns the progress rows of u that belong to courseID.
func ForCourse(ctx context.Context, db sqlx.QueryerContext, u claims.User, courseID int64) ([]Progress, error) {
	if !u.Authenticated() {
		return nil, claims.ErrUnauthenticated
	}

	out := []Progress{}
	q := `SELECT ` + columns + ` FROM user_lesson_progress WHERE user_login = $1 AND course_id = $2 ORDER BY id`
	if err := database.SelectContext(ctx, db, &out, q, u.Login, courseID); err != nil {
		return nil, fmt.Errorf("listing progress of %s in course[%d]: %w", u.Login, courseID, err)
	}
	return out, nil
}
