// Package search keeps a denormalized, full text searchable copy of catalog
// entities next to the record store.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
)

var (
	// ErrUnavailable means the projection could not be reached or did not
	// answer in time. It is never used for "no results".
	ErrUnavailable = errors.New("search backend unavailable")

	ErrMalformedQuery = errors.New("malformed search query")
)

// allField holds the tokens of every field of a document.
const allField = "_all"

// Index is the search projection store. Index names partition documents by
// entity kind.
type Index interface {
	Put(ctx context.Context, index string, doc Document) error
	Delete(ctx context.Context, index string, id int64) error
	Search(ctx context.Context, index string, q Query, req page.Request) (page.Page[json.RawMessage], error)
	Count(ctx context.Context, index string) (int64, error)
	IDs(ctx context.Context, index string) ([]int64, error)
	Ping(ctx context.Context) error
}

// Source produces projection documents for one entity kind.
type Source interface {
	Index() string
	Document(ctx context.Context, id int64) (Document, error)
}

type Document struct {
	ID     int64
	Fields map[string][]string
	Source json.RawMessage
}

// NewDocument renders v as the stored payload and collects its searchable
// fields. Nested objects are flattened into dotted lower case names, so a
// course's lessons are searchable as lessons.lessontitle.
func NewDocument(id int64, v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("encoding document %d: %w", id, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return Document{}, fmt.Errorf("decoding document %d: %w", id, err)
	}

	doc := Document{ID: id, Fields: make(map[string][]string), Source: raw}
	flatten(doc.Fields, "", tree)
	return doc, nil
}

func flatten(fields map[string][]string, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			name := strings.ToLower(k)
			if prefix != "" {
				name = prefix + "." + name
			}
			flatten(fields, name, sub)
		}
	case []any:
		for _, sub := range t {
			flatten(fields, prefix, sub)
		}
	case string:
		fields[prefix] = append(fields[prefix], t)
	case json.Number:
		fields[prefix] = append(fields[prefix], t.String())
	case bool:
		if t {
			fields[prefix] = append(fields[prefix], "true")
		} else {
			fields[prefix] = append(fields[prefix], "false")
		}
	}
}

// Tokenize lower cases s and splits it on anything that is not a letter or a
// digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// terms returns the distinct (field, token) pairs of doc, including the
// catch-all field.
func (d Document) terms() []term {
	seen := make(map[term]struct{})
	var out []term
	add := func(t term) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for field, values := range d.Fields {
		for _, v := range values {
			for _, tok := range Tokenize(v) {
				add(term{field: field, token: tok})
				add(term{field: allField, token: tok})
			}
		}
	}
	return out
}
