package course

import (
	"context"
	"fmt"

	"github.com/Hamstertjie/Learn-With-Hamster-App/core/catalog"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/eager"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/search"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	Table     = "course"
	IndexName = "courses"
)

// Sortable maps payload field names to columns.
var Sortable = map[string]string{
	"id":                "id",
	"courseTitle":       "course_title",
	"courseDescription": "course_description",
	"coursePrice":       "course_price",
	"courseLevel":       "course_level",
}

const columns = `id, course_title, course_description, course_price, course_level`

func Create(ctx context.Context, db sqlx.ExtContext, c *catalog.Course) error {
	const q = `
	INSERT INTO course (course_title, course_description, course_price, course_level)
	VALUES (:course_title, :course_description, :course_price, :course_level)
	RETURNING id`

	id, err := database.InsertReturningID(ctx, db, q, c)
	if err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	c.ID = id

	return replaceLessons(ctx, db, c.ID, catalog.LessonIDs(c.Lessons))
}

func Update(ctx context.Context, db sqlx.ExtContext, c *catalog.Course) error {
	const q = `
	UPDATE course SET
		course_title = :course_title,
		course_description = :course_description,
		course_price = :course_price,
		course_level = :course_level
	WHERE id = :id`

	if err := database.NamedExecAffected(ctx, db, q, c); err != nil {
		return fmt.Errorf("updating course[%d]: %w", c.ID, err)
	}

	return replaceLessons(ctx, db, c.ID, catalog.LessonIDs(c.Lessons))
}

func replaceLessons(ctx context.Context, db sqlx.ExtContext, id int64, lessons []int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM rel_course__lessons WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("clearing lessons of course[%d]: %w", id, err)
	}
	if len(lessons) == 0 {
		return nil
	}

	const q = `
	INSERT INTO rel_course__lessons (course_id, lessons_id)
	SELECT $1, unnest($2::bigint[])
	ON CONFLICT DO NOTHING`

	if _, err := db.ExecContext(ctx, q, id, pq.Array(lessons)); err != nil {
		return fmt.Errorf("linking lessons of course[%d]: %w", id, database.Classify(err))
	}
	return nil
}

// Delete removes the course. A missing course is not an error.
func Delete(ctx context.Context, db sqlx.ExecerContext, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting course[%d]: %w", id, err)
	}
	return nil
}

// List returns courses without their lessons.
func List(ctx context.Context, db sqlx.QueryerContext, req page.Request) (page.Page[*catalog.Course], error) {
	p, err := database.SelectPage[*catalog.Course](ctx, db, `SELECT `+columns+` FROM course`, Table, req, Sortable)
	if err != nil {
		return page.Page[*catalog.Course]{}, fmt.Errorf("listing courses: %w", err)
	}
	return p, nil
}

type lessonRow struct {
	catalog.Course
	LessonID          *int64            `db:"l_id"`
	LessonTitle       *string           `db:"l_lesson_title"`
	LessonDescription *string           `db:"l_lesson_description"`
	Language          *catalog.Language `db:"l_language"`
}

// WithLessons fetches courses joined with their lessons only.
func WithLessons(db sqlx.QueryerContext) eager.Fetch[*catalog.Course] {
	const q = `
	SELECT
		c.id, c.course_title, c.course_description, c.course_price, c.course_level,
		l.id AS l_id,
		l.lesson_title AS l_lesson_title,
		l.lesson_description AS l_lesson_description,
		l.language AS l_language
	FROM course c
	LEFT JOIN rel_course__lessons r ON r.course_id = c.id
	LEFT JOIN lesson l ON l.id = r.lessons_id
	WHERE c.id = ANY($1)
	ORDER BY c.id, l.id`

	return func(ctx context.Context, ids []int64) ([]*catalog.Course, error) {
		var rows []lessonRow
		if err := database.SelectContext(ctx, db, &rows, q, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("fetching courses with lessons: %w", err)
		}

		var out []*catalog.Course
		byID := make(map[int64]*catalog.Course)
		for _, r := range rows {
			c, ok := byID[r.ID]
			if !ok {
				cp := r.Course
				cp.Lessons = []*catalog.Lesson{}
				c = &cp
				byID[c.ID] = c
				out = append(out, c)
			}
			if r.LessonID == nil {
				continue
			}
			l := &catalog.Lesson{
				ID:          *r.LessonID,
				Description: r.LessonDescription,
				Language:    r.Language,
			}
			if r.LessonTitle != nil {
				l.Title = *r.LessonTitle
			}
			c.AddLesson(l)
		}
		return out, nil
	}
}

func courseID(c *catalog.Course) int64 { return c.ID }

// Loader loads courses with their lessons.
func Loader(db sqlx.QueryerContext) *eager.Loader[*catalog.Course] {
	return eager.New(courseID, WithLessons(db))
}

// Source feeds the courses search index.
type Source struct {
	load *eager.Loader[*catalog.Course]
}

func NewSource(db sqlx.QueryerContext) Source {
	return Source{load: Loader(db)}
}

func (Source) Index() string { return IndexName }

func (s Source) Document(ctx context.Context, id int64) (search.Document, error) {
	c, err := s.load.One(ctx, id)
	if err != nil {
		return search.Document{}, err
	}
	return search.NewDocument(c.ID, c)
}
