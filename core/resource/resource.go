package resource

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
	Table     = "resource"
	IndexName = "resources"
)

var Sortable = map[string]string{
	"id":                   "id",
	"resourceName":         "resource_name",
	"resourceDescription":  "resource_description",
	"resourceURL":          "resource_url",
	"resourcePreviewImage": "resource_preview_image",
	"resourceType":         "resource_type",
	"weight":               "weight",
}

const columns = `id, resource_name, resource_description, resource_url, resource_preview_image,
	resource_type, weight, discipline_id, program_id, course_id, lesson_id`

// row is a resource as stored: the entity columns plus the owner keys.
type row struct {
	catalog.Resource
	DisciplineID *int64 `db:"discipline_id"`
	ProgramID    *int64 `db:"program_id"`
	CourseID     *int64 `db:"course_id"`
	LessonID     *int64 `db:"lesson_id"`
}

func toRow(r *catalog.Resource) row {
	out := row{Resource: *r}
	out.DisciplineID, out.ProgramID, out.CourseID, out.LessonID = r.ParentIDs()
	return out
}

// resource rebuilds the entity, attaching it to a stub of its owner.
func (r row) resource() *catalog.Resource {
	res := new(catalog.Resource)
	*res = r.Resource

	switch {
	case r.DisciplineID != nil:
		(&catalog.Discipline{ID: *r.DisciplineID}).AddResource(res)
	case r.ProgramID != nil:
		(&catalog.Program{ID: *r.ProgramID}).AddResource(res)
	case r.CourseID != nil:
		(&catalog.Course{ID: *r.CourseID}).AddResource(res)
	case r.LessonID != nil:
		(&catalog.Lesson{ID: *r.LessonID}).AddResource(res)
	}
	return res
}

func resources(rows []row) []*catalog.Resource {
	out := make([]*catalog.Resource, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.resource())
	}
	return out
}

func Create(ctx context.Context, db sqlx.ExtContext, r *catalog.Resource) error {
	const q = `
	INSERT INTO resource (
		resource_name, resource_description, resource_url, resource_preview_image,
		resource_type, weight, discipline_id, program_id, course_id, lesson_id)
	VALUES (
		:resource_name, :resource_description, :resource_url, :resource_preview_image,
		:resource_type, :weight, :discipline_id, :program_id, :course_id, :lesson_id)
	RETURNING id`

	id, err := database.InsertReturningID(ctx, db, q, toRow(r))
	if err != nil {
		return fmt.Errorf("inserting resource: %w", err)
	}
	r.ID = id
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, r *catalog.Resource) error {
	const q = `
	UPDATE resource SET
		resource_name = :resource_name,
		resource_description = :resource_description,
		resource_url = :resource_url,
		resource_preview_image = :resource_preview_image,
		resource_type = :resource_type,
		weight = :weight,
		discipline_id = :discipline_id,
		program_id = :program_id,
		course_id = :course_id,
		lesson_id = :lesson_id
	WHERE id = :id`

	if err := database.NamedExecAffected(ctx, db, q, toRow(r)); err != nil {
		return fmt.Errorf("updating resource[%d]: %w", r.ID, err)
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExecerContext, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM resource WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting resource[%d]: %w", id, err)
	}
	return nil
}

func List(ctx context.Context, db sqlx.QueryerContext, req page.Request) (page.Page[*catalog.Resource], error) {
	p, err := database.SelectPage[row](ctx, db, `SELECT `+columns+` FROM resource`, Table, req, Sortable)
	if err != nil {
		return page.Page[*catalog.Resource]{}, fmt.Errorf("listing resources: %w", err)
	}
	return page.New(resources(p.Content), req, p.Total), nil
}

func FetchByIDs(db sqlx.QueryerContext) eager.Fetch[*catalog.Resource] {
	q := `SELECT ` + columns + ` FROM resource WHERE id = ANY($1)`

	return func(ctx context.Context, ids []int64) ([]*catalog.Resource, error) {
		var rows []row
		if err := database.SelectContext(ctx, db, &rows, q, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("fetching resources: %w", err)
		}
		return resources(rows), nil
	}
}

func resourceID(r *catalog.Resource) int64 { return r.ID }

func Loader(db sqlx.QueryerContext) *eager.Loader[*catalog.Resource] {
	return eager.New(resourceID, FetchByIDs(db))
}

type Source struct {
	load *eager.Loader[*catalog.Resource]
}

func NewSource(db sqlx.QueryerContext) Source {
	return Source{load: Loader(db)}
}

func (Source) Index() string { return IndexName }

func (s Source) Document(ctx context.Context, id int64) (search.Document, error) {
	r, err := s.load.One(ctx, id)
	if err != nil {
		return search.Document{}, err
	}
	return search.NewDocument(r.ID, r)
}
