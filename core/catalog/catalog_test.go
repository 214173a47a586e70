package catalog

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func resourceIDs(rs []*Resource) []int64 {
	ids := []int64{}
	for _, r := range rs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestEqualIsIdentity(t *testing.T) {
	a, b := &Course{Title: "same"}, &Course{Title: "same"}
	if a.Equal(b) {
		t.Fatal("unsaved courses must not be equal")
	}
	if !a.Equal(a) {
		t.Fatal("a course must equal itself")
	}

	a.ID, b.ID = 4, 4
	b.Title = "different"
	if !a.Equal(b) {
		t.Fatal("courses with the same id must be equal")
	}

	b.ID = 5
	if a.Equal(b) {
		t.Fatal("courses with different ids must not be equal")
	}

	var nilc *Course
	if nilc.Equal(a) || a.Equal(nil) {
		t.Fatal("nil course must not be equal to anything")
	}
}

func TestCourseResources(t *testing.T) {
	c := &Course{ID: 1}
	r1, r2, r3 := &Resource{ID: 10}, &Resource{ID: 11}, &Resource{ID: 12}

	c.AddResource(r1)
	c.AddResource(r2)
	c.AddResource(r1)

	if diff := cmp.Diff([]int64{10, 11}, resourceIDs(c.Resources)); diff != "" {
		t.Fatalf("resources after add mismatch:\n%s", diff)
	}
	if r1.Course != c || r2.Course != c {
		t.Fatal("added resources must point at the course")
	}

	c.RemoveResource(r1)
	if r1.Course != nil {
		t.Fatal("removed resource must not point at the course")
	}
	if diff := cmp.Diff([]int64{11}, resourceIDs(c.Resources)); diff != "" {
		t.Fatalf("resources after remove mismatch:\n%s", diff)
	}

	c.SetResources([]*Resource{r1, r3})
	if r2.Course != nil {
		t.Fatal("replaced resource must be detached")
	}
	if r1.Course != c || r3.Course != c {
		t.Fatal("new resources must point at the course")
	}
	if diff := cmp.Diff([]int64{10, 12}, resourceIDs(c.Resources)); diff != "" {
		t.Fatalf("resources after set mismatch:\n%s", diff)
	}
}

func TestResourceMovesBetweenOwners(t *testing.T) {
	c := &Course{ID: 1}
	l := &Lesson{ID: 2}
	r := &Resource{ID: 3}

	c.AddResource(r)
	l.AddResource(r)

	if r.Course != nil || r.Lesson != l {
		t.Fatalf("resource owners: course=%v lesson=%v", r.Course, r.Lesson)
	}
	if len(c.Resources) != 0 {
		t.Fatalf("course still holds %d resources", len(c.Resources))
	}
}

func TestCourseLessons(t *testing.T) {
	c := &Course{ID: 1}
	l1, l2 := &Lesson{ID: 7}, &Lesson{ID: 8}

	c.AddLesson(l1)
	l2.AddCourse(c)

	if diff := cmp.Diff([]int64{7, 8}, LessonIDs(c.Lessons)); diff != "" {
		t.Fatalf("lessons mismatch:\n%s", diff)
	}
	if len(l1.Courses) != 1 || len(l2.Courses) != 1 {
		t.Fatal("lessons must reference the course")
	}

	c.SetLessons([]*Lesson{l2})
	if len(l1.Courses) != 0 {
		t.Fatal("dropped lesson must not reference the course")
	}

	l2.RemoveCourse(c)
	if len(c.Lessons) != 0 || len(l2.Courses) != 0 {
		t.Fatal("remove must update both sides")
	}
}

func TestProgramCoursesAndDisciplines(t *testing.T) {
	p := &Program{ID: 1}
	c := &Course{ID: 2}
	d := &Discipline{ID: 3}

	c.AddProgram(p)
	p.AddDiscipline(d)

	if diff := cmp.Diff([]int64{2}, CourseIDs(p.Courses)); diff != "" {
		t.Fatalf("program courses mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1}, ProgramIDs(d.Programs)); diff != "" {
		t.Fatalf("discipline programs mismatch:\n%s", diff)
	}
	if len(c.Programs) != 1 || len(p.Disciplines) != 1 {
		t.Fatal("inverse sides not updated")
	}

	p.RemoveCourse(c)
	d.RemoveProgram(p)
	if len(c.Programs) != 0 || len(p.Courses) != 0 || len(p.Disciplines) != 0 || len(d.Programs) != 0 {
		t.Fatal("removal must update both sides")
	}
}

func TestResourceParents(t *testing.T) {
	n := ResourceNew{Course: &Ref{ID: 5}, Lesson: &Ref{ID: 6}}
	if err := n.CheckParents(); err != ErrMultipleParents {
		t.Fatalf("expected %v, got %v", ErrMultipleParents, err)
	}

	n.Lesson = nil
	if err := n.CheckParents(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := n.Resource()
	_, _, course, lesson := r.ParentIDs()
	if course == nil || *course != 5 || lesson != nil {
		t.Fatalf("parent ids: course=%v lesson=%v", course, lesson)
	}

	ResourceUp{Lesson: &Ref{ID: 9}}.Apply(r)
	_, _, course, lesson = r.ParentIDs()
	if course != nil || lesson == nil || *lesson != 9 {
		t.Fatalf("parent ids after patch: course=%v lesson=%v", course, lesson)
	}
}

func TestResourceJSON(t *testing.T) {
	name := "intro"
	r := &Resource{ID: 3, Name: &name}
	(&Course{ID: 5, Title: "Go"}).AddResource(r)

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}

	exp := map[string]any{
		"id":                   float64(3),
		"resourceName":         "intro",
		"resourceDescription":  nil,
		"resourceURL":          nil,
		"resourcePreviewImage": nil,
		"resourceType":         nil,
		"weight":               nil,
		"discipline":           nil,
		"program":              nil,
		"course":               map[string]any{"id": float64(5)},
		"lesson":               nil,
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("resource json mismatch:\n%s", diff)
	}
}

func TestPatchKeepsUnsetFields(t *testing.T) {
	desc := "keep me"
	c := &Course{ID: 1, Title: "old", Description: &desc}
	c.AddLesson(&Lesson{ID: 2})

	title := "new"
	CourseUp{Title: &title}.Apply(c)

	if c.Title != "new" || c.Description == nil || *c.Description != "keep me" {
		t.Fatalf("unexpected course after patch: %+v", c)
	}
	if diff := cmp.Diff([]int64{2}, LessonIDs(c.Lessons)); diff != "" {
		t.Fatalf("lessons must survive a patch without lessons:\n%s", diff)
	}

	CourseUp{Lessons: []Ref{}}.Apply(c)
	if len(c.Lessons) != 0 {
		t.Fatal("an empty lesson list must clear the lessons")
	}
}
