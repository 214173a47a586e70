package catalog

type Program struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"programName" db:"program_name"`
	Description *string `json:"programDescription" db:"program_description"`
	Price       *int64  `json:"programPrice" db:"program_price"`

	Courses     []*Course     `json:"courses" db:"-"`
	Resources   []*Resource   `json:"-" db:"-"`
	Disciplines []*Discipline `json:"-" db:"-"`
}

func (p *Program) Equal(o *Program) bool {
	if p == nil || o == nil {
		return false
	}
	return p == o || (p.ID != 0 && p.ID == o.ID)
}

func (p *Program) AddResource(r *Resource) {
	if !r.Program.Equal(p) {
		r.detach()
	}
	p.Resources = appendUnique(p.Resources, r, (*Resource).Equal)
	r.Program = p
}

func (p *Program) RemoveResource(r *Resource) {
	p.Resources = without(p.Resources, r, (*Resource).Equal)
	if r.Program.Equal(p) {
		r.Program = nil
	}
}

func (p *Program) SetResources(rs []*Resource) {
	for _, r := range p.Resources {
		if r.Program.Equal(p) {
			r.Program = nil
		}
	}
	p.Resources = nil
	for _, r := range rs {
		p.AddResource(r)
	}
}

func (p *Program) AddCourse(c *Course) {
	p.Courses = appendUnique(p.Courses, c, (*Course).Equal)
	c.Programs = appendUnique(c.Programs, p, (*Program).Equal)
}

func (p *Program) RemoveCourse(c *Course) {
	p.Courses = without(p.Courses, c, (*Course).Equal)
	c.Programs = without(c.Programs, p, (*Program).Equal)
}

func (p *Program) SetCourses(cs []*Course) {
	for _, c := range p.Courses {
		c.Programs = without(c.Programs, p, (*Program).Equal)
	}
	p.Courses = nil
	for _, c := range cs {
		p.AddCourse(c)
	}
}

// AddDiscipline is the inverse side of Discipline.AddProgram.
func (p *Program) AddDiscipline(d *Discipline) {
	d.AddProgram(p)
}

func (p *Program) RemoveDiscipline(d *Discipline) {
	d.RemoveProgram(p)
}

type ProgramNew struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"programName" validate:"required"`
	Description *string `json:"programDescription"`
	Price       *int64  `json:"programPrice" validate:"omitempty,gte=0"`
	Courses     []Ref   `json:"courses" validate:"omitempty,dive"`
}

func (n ProgramNew) Program() *Program {
	p := &Program{
		Description: n.Description,
		Price:       n.Price,
	}
	if n.Name != nil {
		p.Name = *n.Name
	}
	for _, r := range n.Courses {
		p.AddCourse(&Course{ID: r.ID})
	}
	return p
}

type ProgramUp struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"programName"`
	Description *string `json:"programDescription"`
	Price       *int64  `json:"programPrice" validate:"omitempty,gte=0"`
	Courses     []Ref   `json:"courses" validate:"omitempty,dive"`
}

func (u ProgramUp) Apply(p *Program) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = u.Description
	}
	if u.Price != nil {
		p.Price = u.Price
	}
	if u.Courses != nil {
		cs := make([]*Course, 0, len(u.Courses))
		for _, r := range u.Courses {
			cs = append(cs, &Course{ID: r.ID})
		}
		p.SetCourses(cs)
	}
}

func CourseIDs(cs []*Course) []int64 {
	ids := make([]int64, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}
