// Package catalog holds the learning catalog entities and the functions that
// keep both sides of their relationships in step.
package catalog

import "encoding/json"

type Level string

const (
	Novice       Level = "NOVICE"
	Beginner     Level = "BEGINNER"
	Intermediate Level = "INTERMEDIATE"
	Advanced     Level = "ADVANCED"
	Professional Level = "PROFESSIONAL"
)

type Language string

const (
	English    Language = "ENGLISH"
	Spanish    Language = "SPANISH"
	French     Language = "FRENCH"
	German     Language = "GERMAN"
	Italian    Language = "ITALIAN"
	Portuguese Language = "PORTUGUESE"
	Russian    Language = "RUSSIAN"
	Chinese    Language = "CHINESE"
	Japanese   Language = "JAPANESE"
)

type ResourceType string

const (
	Video    ResourceType = "VIDEO"
	Image    ResourceType = "IMAGE"
	Tutorial ResourceType = "TUTORIAL"
	Page     ResourceType = "PAGE"
	Partial  ResourceType = "PARTIAL"
	Tool     ResourceType = "TOOL"
)

// Ref points at another entity by id in request and response payloads.
type Ref struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// UnmarshalJSON reads only the id, so a full entity sent back by a client is
// accepted as a reference.
func (r *Ref) UnmarshalJSON(b []byte) error {
	var v struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	r.ID = v.ID
	return nil
}

func RefIDs(refs []Ref) []int64 {
	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids
}

func indexOf[T any](s []*T, x *T, eq func(a, b *T) bool) int {
	for i, v := range s {
		if v == x || eq(v, x) {
			return i
		}
	}
	return -1
}

func appendUnique[T any](s []*T, x *T, eq func(a, b *T) bool) []*T {
	if indexOf(s, x, eq) >= 0 {
		return s
	}
	return append(s, x)
}

func without[T any](s []*T, x *T, eq func(a, b *T) bool) []*T {
	i := indexOf(s, x, eq)
	if i < 0 {
		return s
	}
	out := make([]*T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
