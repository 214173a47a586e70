package catalog

type Lesson struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"lessonTitle" db:"lesson_title"`
	Description *string   `json:"lessonDescription" db:"lesson_description"`
	Language    *Language `json:"language" db:"language"`

	Resources []*Resource `json:"-" db:"-"`
	Courses   []*Course   `json:"-" db:"-"`
}

func (l *Lesson) Equal(o *Lesson) bool {
	if l == nil || o == nil {
		return false
	}
	return l == o || (l.ID != 0 && l.ID == o.ID)
}

func (l *Lesson) AddResource(r *Resource) {
	if !r.Lesson.Equal(l) {
		r.detach()
	}
	l.Resources = appendUnique(l.Resources, r, (*Resource).Equal)
	r.Lesson = l
}

func (l *Lesson) RemoveResource(r *Resource) {
	l.Resources = without(l.Resources, r, (*Resource).Equal)
	if r.Lesson.Equal(l) {
		r.Lesson = nil
	}
}

func (l *Lesson) SetResources(rs []*Resource) {
	for _, r := range l.Resources {
		if r.Lesson.Equal(l) {
			r.Lesson = nil
		}
	}
	l.Resources = nil
	for _, r := range rs {
		l.AddResource(r)
	}
}

// AddCourse is the inverse side of Course.AddLesson.
func (l *Lesson) AddCourse(c *Course) {
	c.AddLesson(l)
}

func (l *Lesson) RemoveCourse(c *Course) {
	c.RemoveLesson(l)
}

type LessonNew struct {
	ID          *int64    `json:"id"`
	Title       *string   `json:"lessonTitle" validate:"required"`
	Description *string   `json:"lessonDescription"`
	Language    *Language `json:"language" validate:"omitempty,oneof=ENGLISH SPANISH FRENCH GERMAN ITALIAN PORTUGUESE RUSSIAN CHINESE JAPANESE"`
}

func (n LessonNew) Lesson() *Lesson {
	l := &Lesson{
		Description: n.Description,
		Language:    n.Language,
	}
	if n.Title != nil {
		l.Title = *n.Title
	}
	return l
}

type LessonUp struct {
	ID          *int64    `json:"id"`
	Title       *string   `json:"lessonTitle"`
	Description *string   `json:"lessonDescription"`
	Language    *Language `json:"language" validate:"omitempty,oneof=ENGLISH SPANISH FRENCH GERMAN ITALIAN PORTUGUESE RUSSIAN CHINESE JAPANESE"`
}

func (u LessonUp) Apply(l *Lesson) {
	if u.Title != nil {
		l.Title = *u.Title
	}
	if u.Description != nil {
		l.Description = u.Description
	}
	if u.Language != nil {
		l.Language = u.Language
	}
}
