package catalog

type Discipline struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"disciplineName" db:"discipline_name"`
	Description *string `json:"disciplineDescription" db:"discipline_description"`
	Price       *int64  `json:"disciplinePrice" db:"discipline_price"`

	Programs  []*Program  `json:"programs" db:"-"`
	Resources []*Resource `json:"-" db:"-"`
}

func (d *Discipline) Equal(o *Discipline) bool {
	if d == nil || o == nil {
		return false
	}
	return d == o || (d.ID != 0 && d.ID == o.ID)
}

func (d *Discipline) AddResource(r *Resource) {
	if !r.Discipline.Equal(d) {
		r.detach()
	}
	d.Resources = appendUnique(d.Resources, r, (*Resource).Equal)
	r.Discipline = d
}

func (d *Discipline) RemoveResource(r *Resource) {
	d.Resources = without(d.Resources, r, (*Resource).Equal)
	if r.Discipline.Equal(d) {
		r.Discipline = nil
	}
}

func (d *Discipline) SetResources(rs []*Resource) {
	for _, r := range d.Resources {
		if r.Discipline.Equal(d) {
			r.Discipline = nil
		}
	}
	d.Resources = nil
	for _, r := range rs {
		d.AddResource(r)
	}
}

func (d *Discipline) AddProgram(p *Program) {
	d.Programs = appendUnique(d.Programs, p, (*Program).Equal)
	p.Disciplines = appendUnique(p.Disciplines, d, (*Discipline).Equal)
}

func (d *Discipline) RemoveProgram(p *Program) {
	d.Programs = without(d.Programs, p, (*Program).Equal)
	p.Disciplines = without(p.Disciplines, d, (*Discipline).Equal)
}

func (d *Discipline) SetPrograms(ps []*Program) {
	for _, p := range d.Programs {
		p.Disciplines = without(p.Disciplines, d, (*Discipline).Equal)
	}
	d.Programs = nil
	for _, p := range ps {
		d.AddProgram(p)
	}
}

type DisciplineNew struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"disciplineName" validate:"required"`
	Description *string `json:"disciplineDescription"`
	Price       *int64  `json:"disciplinePrice" validate:"omitempty,gte=0"`
	Programs    []Ref   `json:"programs" validate:"omitempty,dive"`
}

func (n DisciplineNew) Discipline() *Discipline {
	d := &Discipline{
		Description: n.Description,
		Price:       n.Price,
	}
	if n.Name != nil {
		d.Name = *n.Name
	}
	for _, r := range n.Programs {
		d.AddProgram(&Program{ID: r.ID})
	}
	return d
}

type DisciplineUp struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"disciplineName"`
	Description *string `json:"disciplineDescription"`
	Price       *int64  `json:"disciplinePrice" validate:"omitempty,gte=0"`
	Programs    []Ref   `json:"programs" validate:"omitempty,dive"`
}

func (u DisciplineUp) Apply(d *Discipline) {
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Description != nil {
		d.Description = u.Description
	}
	if u.Price != nil {
		d.Price = u.Price
	}
	if u.Programs != nil {
		ps := make([]*Program, 0, len(u.Programs))
		for _, r := range u.Programs {
			ps = append(ps, &Program{ID: r.ID})
		}
		d.SetPrograms(ps)
	}
}

func ProgramIDs(ps []*Program) []int64 {
	ids := make([]int64, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}
