package program

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
	Table     = "program"
	IndexName = "programs"
)

var Sortable = map[string]string{
	"id":                 "id",
	"programName":        "program_name",
	"programDescription": "program_description",
	"programPrice":       "program_price",
}

const columns = `id, program_name, program_description, program_price`

func Create(ctx context.Context, db sqlx.ExtContext, p *catalog.Program) error {
	const q = `
	INSERT INTO program (program_name, program_description, program_price)
	VALUES (:program_name, :program_description, :program_price)
	RETURNING id`

	id, err := database.InsertReturningID(ctx, db, q, p)
	if err != nil {
		return fmt.Errorf("inserting program: %w", err)
	}
	p.ID = id

	return replaceCourses(ctx, db, p.ID, catalog.CourseIDs(p.Courses))
}

func Update(ctx context.Context, db sqlx.ExtContext, p *catalog.Program) error {
	const q = `
	UPDATE program SET
		program_name = :program_name,
		program_description = :program_description,
		program_price = :program_price
	WHERE id = :id`

	if err := database.NamedExecAffected(ctx, db, q, p); err != nil {
		return fmt.Errorf("updating program[%d]: %w", p.ID, err)
	}

	return replaceCourses(ctx, db, p.ID, catalog.CourseIDs(p.Courses))
}

func replaceCourses(ctx context.Context, db sqlx.ExtContext, id int64, courses []int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM rel_program__courses WHERE program_id = $1`, id); err != nil {
		return fmt.Errorf("clearing courses of program[%d]: %w", id, err)
	}
	if len(courses) == 0 {
		return nil
	}

	const q = `
	INSERT INTO rel_program__courses (program_id, courses_id)
	SELECT $1, unnest($2::bigint[])
	ON CONFLICT DO NOTHING`

	if _, err := db.ExecContext(ctx, q, id, pq.Array(courses)); err != nil {
		return fmt.Errorf("linking courses of program[%d]: %w", id, database.Classify(err))
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExecerContext, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM program WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting program[%d]: %w", id, err)
	}
	return nil
}

func List(ctx context.Context, db sqlx.QueryerContext, req page.Request) (page.Page[*catalog.Program], error) {
	p, err := database.SelectPage[*catalog.Program](ctx, db, `SELECT `+columns+` FROM program`, Table, req, Sortable)
	if err != nil {
		return page.Page[*catalog.Program]{}, fmt.Errorf("listing programs: %w", err)
	}
	return p, nil
}

type courseRow struct {
	catalog.Program
	CourseID          *int64         `db:"c_id"`
	CourseTitle       *string        `db:"c_course_title"`
	CourseDescription *string        `db:"c_course_description"`
	CoursePrice       *int64         `db:"c_course_price"`
	CourseLevel       *catalog.Level `db:"c_course_level"`
}

// WithCourses fetches programs joined with their courses only.
func WithCourses(db sqlx.QueryerContext) eager.Fetch[*catalog.Program] {
	const q = `
	SELECT
		p.id, p.program_name, p.program_description, p.program_price,
		c.id AS c_id,
		c.course_title AS c_course_title,
		c.course_description AS c_course_description,
		c.course_price AS c_course_price,
		c.course_level AS c_course_level
	FROM program p
	LEFT JOIN rel_program__courses r ON r.program_id = p.id
	LEFT JOIN course c ON c.id = r.courses_id
	WHERE p.id = ANY($1)
	ORDER BY p.id, c.id`

	return func(ctx context.Context, ids []int64) ([]*catalog.Program, error) {
		var rows []courseRow
		if err := database.SelectContext(ctx, db, &rows, q, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("fetching programs with courses: %w", err)
		}

		var out []*catalog.Program
		byID := make(map[int64]*catalog.Program)
		for _, r := range rows {
			p, ok := byID[r.ID]
			if !ok {
				cp := r.Program
				cp.Courses = []*catalog.Course{}
				p = &cp
				byID[p.ID] = p
				out = append(out, p)
			}
			if r.CourseID == nil {
				continue
			}
			c := &catalog.Course{
				ID:          *r.CourseID,
				Description: r.CourseDescription,
				Price:       r.CoursePrice,
				Level:       r.CourseLevel,
			}
			if r.CourseTitle != nil {
				c.Title = *r.CourseTitle
			}
			p.AddCourse(c)
		}
		return out, nil
	}
}

type disciplineRow struct {
	catalog.Program
	DisciplineID   *int64  `db:"d_id"`
	DisciplineName *string `db:"d_discipline_name"`
}

// WithDisciplines fetches programs joined with the disciplines that list
// them.
func WithDisciplines(db sqlx.QueryerContext) eager.Fetch[*catalog.Program] {
	const q = `
	SELECT
		p.id, p.program_name, p.program_description, p.program_price,
		d.id AS d_id,
		d.discipline_name AS d_discipline_name
	FROM program p
	LEFT JOIN rel_discipline__programs r ON r.programs_id = p.id
	LEFT JOIN discipline d ON d.id = r.discipline_id
	WHERE p.id = ANY($1)
	ORDER BY p.id, d.id`

	return func(ctx context.Context, ids []int64) ([]*catalog.Program, error) {
		var rows []disciplineRow
		if err := database.SelectContext(ctx, db, &rows, q, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("fetching programs with disciplines: %w", err)
		}

		var out []*catalog.Program
		byID := make(map[int64]*catalog.Program)
		for _, r := range rows {
			p, ok := byID[r.ID]
			if !ok {
				cp := r.Program
				cp.Disciplines = []*catalog.Discipline{}
				p = &cp
				byID[p.ID] = p
				out = append(out, p)
			}
			if r.DisciplineID == nil {
				continue
			}
			d := &catalog.Discipline{ID: *r.DisciplineID}
			if r.DisciplineName != nil {
				d.Name = *r.DisciplineName
			}
			p.AddDiscipline(d)
		}
		return out, nil
	}
}

func programID(p *catalog.Program) int64 { return p.ID }

// Loader loads programs with their courses, then their disciplines.
func Loader(db sqlx.QueryerContext) *eager.Loader[*catalog.Program] {
	return eager.New(programID, WithCourses(db)).Then(WithDisciplines(db), func(into, from *catalog.Program) {
		for _, d := range from.Disciplines {
			into.AddDiscipline(&catalog.Discipline{ID: d.ID, Name: d.Name})
		}
	})
}

type disciplineSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"disciplineName"`
}

// document is the searchable shape of a program: the payload plus the
// names of the disciplines it belongs to.
type document struct {
	*catalog.Program
	Disciplines []disciplineSummary `json:"disciplines"`
}

type Source struct {
	load *eager.Loader[*catalog.Program]
}

func NewSource(db sqlx.QueryerContext) Source {
	return Source{load: Loader(db)}
}

func (Source) Index() string { return IndexName }

func (s Source) Document(ctx context.Context, id int64) (search.Document, error) {
	p, err := s.load.One(ctx, id)
	if err != nil {
		return search.Document{}, err
	}

	doc := document{Program: p, Disciplines: []disciplineSummary{}}
	for _, d := range p.Disciplines {
		doc.Disciplines = append(doc.Disciplines, disciplineSummary{ID: d.ID, Name: d.Name})
	}
	return search.NewDocument(p.ID, doc)
}
