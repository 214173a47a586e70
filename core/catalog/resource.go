package catalog

import (
	"encoding/json"
	"errors"
)

// ErrMultipleParents rejects a resource that names more than one owner.
var ErrMultipleParents = errors.New("a resource can belong to one of discipline, program, course or lesson")

type Resource struct {
	ID           int64         `json:"id" db:"id"`
	Name         *string       `json:"resourceName" db:"resource_name"`
	Description  *string       `json:"resourceDescription" db:"resource_description"`
	URL          *string       `json:"resourceURL" db:"resource_url"`
	PreviewImage *string       `json:"resourcePreviewImage" db:"resource_preview_image"`
	Type         *ResourceType `json:"resourceType" db:"resource_type"`
	Weight       *int          `json:"weight" db:"weight"`

	Discipline *Discipline `json:"-" db:"-"`
	Program    *Program    `json:"-" db:"-"`
	Course     *Course     `json:"-" db:"-"`
	Lesson     *Lesson     `json:"-" db:"-"`
}

func (r *Resource) Equal(o *Resource) bool {
	if r == nil || o == nil {
		return false
	}
	return r == o || (r.ID != 0 && r.ID == o.ID)
}

// detach removes r from whichever owner currently holds it.
func (r *Resource) detach() {
	if r.Discipline != nil {
		r.Discipline.RemoveResource(r)
	}
	if r.Program != nil {
		r.Program.RemoveResource(r)
	}
	if r.Course != nil {
		r.Course.RemoveResource(r)
	}
	if r.Lesson != nil {
		r.Lesson.RemoveResource(r)
	}
}

func (r *Resource) MarshalJSON() ([]byte, error) {
	type resource Resource
	return json.Marshal(struct {
		*resource
		Discipline *Ref `json:"discipline"`
		Program    *Ref `json:"program"`
		Course     *Ref `json:"course"`
		Lesson     *Ref `json:"lesson"`
	}{
		resource:   (*resource)(r),
		Discipline: refOf(r.Discipline),
		Program:    refOf(r.Program),
		Course:     refOf(r.Course),
		Lesson:     refOf(r.Lesson),
	})
}

func refOf[T Discipline | Program | Course | Lesson](v *T) *Ref {
	if v == nil {
		return nil
	}
	var id int64
	switch e := any(v).(type) {
	case *Discipline:
		id = e.ID
	case *Program:
		id = e.ID
	case *Course:
		id = e.ID
	case *Lesson:
		id = e.ID
	}
	return &Ref{ID: id}
}

type ResourceNew struct {
	ID           *int64        `json:"id"`
	Name         *string       `json:"resourceName"`
	Description  *string       `json:"resourceDescription"`
	URL          *string       `json:"resourceURL"`
	PreviewImage *string       `json:"resourcePreviewImage"`
	Type         *ResourceType `json:"resourceType" validate:"omitempty,oneof=VIDEO IMAGE TUTORIAL PAGE PARTIAL TOOL"`
	Weight       *int          `json:"weight"`
	Discipline   *Ref          `json:"discipline"`
	Program      *Ref          `json:"program"`
	Course       *Ref          `json:"course"`
	Lesson       *Ref          `json:"lesson"`
}

func countRefs(refs ...*Ref) int {
	n := 0
	for _, r := range refs {
		if r != nil {
			n++
		}
	}
	return n
}

// CheckParents enforces that at most one owner is named.
func (n ResourceNew) CheckParents() error {
	if countRefs(n.Discipline, n.Program, n.Course, n.Lesson) > 1 {
		return ErrMultipleParents
	}
	return nil
}

func (n ResourceNew) Resource() *Resource {
	r := &Resource{
		Name:         n.Name,
		Description:  n.Description,
		URL:          n.URL,
		PreviewImage: n.PreviewImage,
		Type:         n.Type,
		Weight:       n.Weight,
	}
	attach(r, n.Discipline, n.Program, n.Course, n.Lesson)
	return r
}

func attach(r *Resource, d, p, c, l *Ref) {
	switch {
	case d != nil:
		(&Discipline{ID: d.ID}).AddResource(r)
	case p != nil:
		(&Program{ID: p.ID}).AddResource(r)
	case c != nil:
		(&Course{ID: c.ID}).AddResource(r)
	case l != nil:
		(&Lesson{ID: l.ID}).AddResource(r)
	}
}

type ResourceUp struct {
	ID           *int64        `json:"id"`
	Name         *string       `json:"resourceName"`
	Description  *string       `json:"resourceDescription"`
	URL          *string       `json:"resourceURL"`
	PreviewImage *string       `json:"resourcePreviewImage"`
	Type         *ResourceType `json:"resourceType" validate:"omitempty,oneof=VIDEO IMAGE TUTORIAL PAGE PARTIAL TOOL"`
	Weight       *int          `json:"weight"`
	Discipline   *Ref          `json:"discipline"`
	Program      *Ref          `json:"program"`
	Course       *Ref          `json:"course"`
	Lesson       *Ref          `json:"lesson"`
}

func (u ResourceUp) CheckParents() error {
	if countRefs(u.Discipline, u.Program, u.Course, u.Lesson) > 1 {
		return ErrMultipleParents
	}
	return nil
}

// Apply merges the patch. Naming a new owner moves the resource to it.
func (u ResourceUp) Apply(r *Resource) {
	if u.Name != nil {
		r.Name = u.Name
	}
	if u.Description != nil {
		r.Description = u.Description
	}
	if u.URL != nil {
		r.URL = u.URL
	}
	if u.PreviewImage != nil {
		r.PreviewImage = u.PreviewImage
	}
	if u.Type != nil {
		r.Type = u.Type
	}
	if u.Weight != nil {
		r.Weight = u.Weight
	}
	attach(r, u.Discipline, u.Program, u.Course, u.Lesson)
}

// ParentIDs returns the owner columns of r, nil where unset.
func (r *Resource) ParentIDs() (discipline, program, course, lesson *int64) {
	if ref := refOf(r.Discipline); ref != nil {
		discipline = &ref.ID
	}
	if ref := refOf(r.Program); ref != nil {
		program = &ref.ID
	}
	if ref := refOf(r.Course); ref != nil {
		course = &ref.ID
	}
	if ref := refOf(r.Lesson); ref != nil {
		lesson = &ref.ID
	}
	return
}
