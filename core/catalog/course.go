package catalog

type Course struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"courseTitle" db:"course_title"`
	Description *string `json:"courseDescription" db:"course_description"`
	Price       *int64  `json:"coursePrice" db:"course_price"`
	Level       *Level  `json:"courseLevel" db:"course_level"`

	Lessons   []*Lesson   `json:"lessons" db:"-"`
	Resources []*Resource `json:"-" db:"-"`
	Programs  []*Program  `json:"-" db:"-"`
}

// Equal reports identity equality. Courses that were never persisted are
// never equal to anything but themselves.
func (c *Course) Equal(o *Course) bool {
	if c == nil || o == nil {
		return false
	}
	return c == o || (c.ID != 0 && c.ID == o.ID)
}

func (c *Course) AddResource(r *Resource) {
	if !r.Course.Equal(c) {
		r.detach()
	}
	c.Resources = appendUnique(c.Resources, r, (*Resource).Equal)
	r.Course = c
}

func (c *Course) RemoveResource(r *Resource) {
	c.Resources = without(c.Resources, r, (*Resource).Equal)
	if r.Course.Equal(c) {
		r.Course = nil
	}
}

// SetResources replaces the owned resources, detaching the previous ones.
func (c *Course) SetResources(rs []*Resource) {
	for _, r := range c.Resources {
		if r.Course.Equal(c) {
			r.Course = nil
		}
	}
	c.Resources = nil
	for _, r := range rs {
		c.AddResource(r)
	}
}

func (c *Course) AddLesson(l *Lesson) {
	c.Lessons = appendUnique(c.Lessons, l, (*Lesson).Equal)
	l.Courses = appendUnique(l.Courses, c, (*Course).Equal)
}

func (c *Course) RemoveLesson(l *Lesson) {
	c.Lessons = without(c.Lessons, l, (*Lesson).Equal)
	l.Courses = without(l.Courses, c, (*Course).Equal)
}

// SetLessons replaces the lessons, updating the inverse side of both the
// dropped and the added lessons.
func (c *Course) SetLessons(ls []*Lesson) {
	for _, l := range c.Lessons {
		l.Courses = without(l.Courses, c, (*Course).Equal)
	}
	c.Lessons = nil
	for _, l := range ls {
		c.AddLesson(l)
	}
}

func (c *Course) AddProgram(p *Program) {
	p.AddCourse(c)
}

func (c *Course) RemoveProgram(p *Program) {
	p.RemoveCourse(c)
}

type CourseNew struct {
	ID          *int64  `json:"id"`
	Title       *string `json:"courseTitle" validate:"required"`
	Description *string `json:"courseDescription"`
	Price       *int64  `json:"coursePrice" validate:"omitempty,gte=0"`
	Level       *Level  `json:"courseLevel" validate:"omitempty,oneof=NOVICE BEGINNER INTERMEDIATE ADVANCED PROFESSIONAL"`
	Lessons     []Ref   `json:"lessons" validate:"omitempty,dive"`
}

// Course builds the entity the request describes. The id is left to the
// caller.
func (n CourseNew) Course() *Course {
	c := &Course{
		Description: n.Description,
		Price:       n.Price,
		Level:       n.Level,
	}
	if n.Title != nil {
		c.Title = *n.Title
	}
	for _, r := range n.Lessons {
		c.AddLesson(&Lesson{ID: r.ID})
	}
	return c
}

// CourseUp is a merge patch: nil fields are left untouched.
type CourseUp struct {
	ID          *int64  `json:"id"`
	Title       *string `json:"courseTitle"`
	Description *string `json:"courseDescription"`
	Price       *int64  `json:"coursePrice" validate:"omitempty,gte=0"`
	Level       *Level  `json:"courseLevel" validate:"omitempty,oneof=NOVICE BEGINNER INTERMEDIATE ADVANCED PROFESSIONAL"`
	Lessons     []Ref   `json:"lessons" validate:"omitempty,dive"`
}

func (u CourseUp) Apply(c *Course) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		c.Description = u.Description
	}
	if u.Price != nil {
		c.Price = u.Price
	}
	if u.Level != nil {
		c.Level = u.Level
	}
	if u.Lessons != nil {
		ls := make([]*Lesson, 0, len(u.Lessons))
		for _, r := range u.Lessons {
			ls = append(ls, &Lesson{ID: r.ID})
		}
		c.SetLessons(ls)
	}
}

func LessonIDs(ls []*Lesson) []int64 {
	ids := make([]int64, 0, len(ls))
	for _, l := range ls {
		ids = append(ids, l.ID)
	}
	return ids
}
