package discipline

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
	Table     = "discipline"
	IndexName = "disciplines"
)

var Sortable = map[string]string{
	"id":                    "id",
	"disciplineName":        "discipline_name",
	"disciplineDescription": "discipline_description",
	"disciplinePrice":       "discipline_price",
}

const columns = `id, discipline_name, discipline_description, discipline_price`

func Create(ctx context.Context, db sqlx.ExtContext, d *catalog.Discipline) error {
	const q = `
	INSERT INTO discipline (discipline_name, discipline_description, discipline_price)
	VALUES (:discipline_name, :discipline_description, :discipline_price)
	RETURNING id`

	id, err := database.InsertReturningID(ctx, db, q, d)
	if err != nil {
		return fmt.Errorf("inserting discipline: %w", err)
	}
	d.ID = id

	return replacePrograms(ctx, db, d.ID, catalog.ProgramIDs(d.Programs))
}

func Update(ctx context.Context, db sqlx.ExtContext, d *catalog.Discipline) error {
	const q = `
	UPDATE discipline SET
		discipline_name = :discipline_name,
		discipline_description = :discipline_description,
		discipline_price = :discipline_price
	WHERE id = :id`

	if err := database.NamedExecAffected(ctx, db, q, d); err != nil {
		return fmt.Errorf("updating discipline[%d]: %w", d.ID, err)
	}

	return replacePrograms(ctx, db, d.ID, catalog.ProgramIDs(d.Programs))
}

func replacePrograms(ctx context.Context, db sqlx.ExtContext, id int64, programs []int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM rel_discipline__programs WHERE discipline_id = $1`, id); err != nil {
		return fmt.Errorf("clearing programs of discipline[%d]: %w", id, err)
	}
	if len(programs) == 0 {
		return nil
	}

	const q = `
	INSERT INTO rel_discipline__programs (discipline_id, programs_id)
	SELECT $1, unnest($2::bigint[])
	ON CONFLICT DO NOTHING`

	if _, err := db.ExecContext(ctx, q, id, pq.Array(programs)); err != nil {
		return fmt.Errorf("linking programs of discipline[%d]: %w", id, database.Classify(err))
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExecerContext, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM discipline WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting discipline[%d]: %w", id, err)
	}
	return nil
}

func List(ctx context.Context, db sqlx.QueryerContext, req page.Request) (page.Page[*catalog.Discipline], error) {
	p, err := database.SelectPage[*catalog.Discipline](ctx, db, `SELECT `+columns+` FROM discipline`, Table, req, Sortable)
	if err != nil {
		return page.Page[*catalog.Discipline]{}, fmt.Errorf("listing disciplines: %w", err)
	}
	return p, nil
}

type programRow struct {
	catalog.Discipline
	ProgramID          *int64  `db:"p_id"`
	ProgramName        *string `db:"p_program_name"`
	ProgramDescription *string `db:"p_program_description"`
	ProgramPrice       *int64  `db:"p_program_price"`
}

// WithPrograms fetches disciplines joined with their programs only.
func WithPrograms(db sqlx.QueryerContext) eager.Fetch[*catalog.Discipline] {
	const q = `
	SELECT
		d.id, d.discipline_name, d.discipline_description, d.discipline_price,
		p.id AS p_id,
		p.program_name AS p_program_name,
		p.program_description AS p_program_description,
		p.program_price AS p_program_price
	FROM discipline d
	LEFT JOIN rel_discipline__programs r ON r.discipline_id = d.id
	LEFT JOIN program p ON p.id = r.programs_id
	WHERE d.id = ANY($1)
	ORDER BY d.id, p.id`

	return func(ctx context.Context, ids []int64) ([]*catalog.Discipline, error) {
		var rows []programRow
		if err := database.SelectContext(ctx, db, &rows, q, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("fetching disciplines with programs: %w", err)
		}

		var out []*catalog.Discipline
		byID := make(map[int64]*catalog.Discipline)
		for _, r := range rows {
			d, ok := byID[r.ID]
			if !ok {
				cp := r.Discipline
				cp.Programs = []*catalog.Program{}
				d = &cp
				byID[d.ID] = d
				out = append(out, d)
			}
			if r.ProgramID == nil {
				continue
			}
			p := &catalog.Program{
				ID:          *r.ProgramID,
				Description: r.ProgramDescription,
				Price:       r.ProgramPrice,
			}
			if r.ProgramName != nil {
				p.Name = *r.ProgramName
			}
			d.AddProgram(p)
		}
		return out, nil
	}
}

func disciplineID(d *catalog.Discipline) int64 { return d.ID }

func Loader(db sqlx.QueryerContext) *eager.Loader[*catalog.Discipline] {
	return eager.New(disciplineID, WithPrograms(db))
}

type Source struct {
	load *eager.Loader[*catalog.Discipline]
}

func NewSource(db sqlx.QueryerContext) Source {
	return Source{load: Loader(db)}
}

func (Source) Index() string { return IndexName }

func (s Source) Document(ctx context.Context, id int64) (search.Document, error) {
	d, err := s.load.One(ctx, id)
	if err != nil {
		return search.Document{}, err
	}
	return search.NewDocument(d.ID, d)
}
