package lesson

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
	Table     = "lesson"
	IndexName = "lessons"
)

var Sortable = map[string]string{
	"id":                "id",
	"lessonTitle":       "lesson_title",
	"lessonDescription": "lesson_description",
	"language":          "language",
}

const columns = `id, lesson_title, lesson_description, language`

func Create(ctx context.Context, db sqlx.ExtContext, l *catalog.Lesson) error {
	const q = `
	INSERT INTO lesson (lesson_title, lesson_description, language)
	VALUES (:lesson_title, :lesson_description, :language)
	RETURNING id`

	id, err := database.InsertReturningID(ctx, db, q, l)
	if err != nil {
		return fmt.Errorf("inserting lesson: %w", err)
	}
	l.ID = id
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, l *catalog.Lesson) error {
	const q = `
	UPDATE lesson SET
		lesson_title = :lesson_title,
		lesson_description = :lesson_description,
		language = :language
	WHERE id = :id`

	if err := database.NamedExecAffected(ctx, db, q, l); err != nil {
		return fmt.Errorf("updating lesson[%d]: %w", l.ID, err)
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExecerContext, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM lesson WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting lesson[%d]: %w", id, err)
	}
	return nil
}

func List(ctx context.Context, db sqlx.QueryerContext, req page.Request) (page.Page[*catalog.Lesson], error) {
	p, err := database.SelectPage[*catalog.Lesson](ctx, db, `SELECT `+columns+` FROM lesson`, Table, req, Sortable)
	if err != nil {
		return page.Page[*catalog.Lesson]{}, fmt.Errorf("listing lessons: %w", err)
	}
	return p, nil
}

// FetchByIDs loads lessons. Lessons own no eager collection, so this is the
// only step of their loader.
func FetchByIDs(db sqlx.QueryerContext) eager.Fetch[*catalog.Lesson] {
	q := `SELECT ` + columns + ` FROM lesson WHERE id = ANY($1)`

	return func(ctx context.Context, ids []int64) ([]*catalog.Lesson, error) {
		var out []*catalog.Lesson
		if err := database.SelectContext(ctx, db, &out, q, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("fetching lessons: %w", err)
		}
		return out, nil
	}
}

func lessonID(l *catalog.Lesson) int64 { return l.ID }

func Loader(db sqlx.QueryerContext) *eager.Loader[*catalog.Lesson] {
	return eager.New(lessonID, FetchByIDs(db))
}

type Source struct {
	load *eager.Loader[*catalog.Lesson]
}

func NewSource(db sqlx.QueryerContext) Source {
	return Source{load: Loader(db)}
}

func (Source) Index() string { return IndexName }

func (s Source) Document(ctx context.Context, id int64) (search.Document, error) {
	l, err := s.load.One(ctx, id)
	if err != nil {
		return search.Document{}, err
	}
	return search.NewDocument(l.ID, l)
}
