// Package enrollment records which courses a user has enrolled in.
package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/core/claims"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/jmoiron/sqlx"
)

type Enrollment struct {
	ID         int64     `json:"id" db:"id"`
	UserLogin  string    `json:"userLogin" db:"user_login"`
	CourseID   int64     `json:"courseId" db:"course_id"`
	EnrolledAt time.Time `json:"enrolledAt" db:"enrolled_at"`
}

type EnrollNew struct {
	CourseID int64 `json:"courseId" validate:"required,gt=0"`
}

const columns = `id, user_login, course_id, enrolled_at`

// Enroll returns the enrollment of u in courseID, creating it at now when it
// does not exist yet. An existing enrollment keeps its timestamp.
func Enroll(ctx context.Context, db sqlx.ExtContext, u claims.User, courseID int64, now time.Time) (Enrollment, error) {
	if !u.Authenticated() {
		return Enrollment{}, claims.ErrUnauthenticated
	}

	const ins = `
	INSERT INTO user_course_enrollment (user_login, course_id, enrolled_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_login, course_id) DO NOTHING`

	if _, err := db.ExecContext(ctx, ins, u.Login, courseID, now.UTC()); err != nil {
		return Enrollment{}, fmt.Errorf("enrolling %s in course[%d]: %w", u.Login, courseID, database.Classify(err))
	}

	var e Enrollment
	q := `SELECT ` + columns + ` FROM user_course_enrollment WHERE user_login = $1 AND course_id = $2`
	if err := database.GetContext(ctx, db, &e, q, u.Login, courseID); err != nil {
		return Enrollment{}, fmt.Errorf("reading enrollment of %s in course[%d]: %w", u.Login, courseID, err)
	}
	return e, nil
}

// Unenroll removes the enrollment if there is one.
func Unenroll(ctx context.Context, db sqlx.ExecerContext, u claims.User, courseID int64) error {
	if !u.Authenticated() {
		return claims.ErrUnauthenticated
	}

	const q = `DELETE FROM user_course_enrollment WHERE user_login = $1 AND course_id = $2`
	if _, err := db.ExecContext(ctx, q, u.Login, courseID); err != nil {
		return fmt.Errorf("unenrolling %s from course[%d]: %w", u.Login, courseID, err)
	}
	return nil
}

func IsEnrolled(ctx context.Context, db sqlx.QueryerContext, u claims.User, courseID int64) (bool, error) {
	if !u.Authenticated() {
		return false, claims.ErrUnauthenticated
	}

	const q = `SELECT EXISTS (SELECT 1 FROM user_course_enrollment WHERE user_login = $1 AND course_id = $2)`

	var ok bool
	if err := database.GetContext(ctx, db, &ok, q, u.Login, courseID); err != nil {
		return false, fmt.Errorf("checking enrollment of %s in course[%d]: %w", u.Login, courseID, err)
	}
	return ok, nil
}

func List(ctx context.Context, db sqlx.QueryerContext, u claims.User) ([]Enrollment, error) {
	if !u.Authenticated() {
		return nil, claims.ErrUnauthenticated
	}

	out := []Enrollment{}
	q := `SELECT ` + columns + ` FROM user_course_enrollment WHERE user_login = $1 ORDER BY id`
	if err := database.SelectContext(ctx, db, &out, q, u.Login); err != nil {
		return nil, fmt.Errorf("listing enrollments of %s: %w", u.Login, err)
	}
	return out, nil
}
