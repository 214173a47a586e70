package search

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		exp   Query
	}{
		{
			name:  "single term",
			query: "golang",
			exp:   Query{Groups: []Group{{{Tokens: []string{"golang"}}}}},
		},
		{
			name:  "implicit and",
			query: "Go  Basics",
			exp: Query{Groups: []Group{{
				{Tokens: []string{"go"}},
				{Tokens: []string{"basics"}},
			}}},
		},
		{
			name:  "explicit and",
			query: "go AND basics",
			exp: Query{Groups: []Group{{
				{Tokens: []string{"go"}},
				{Tokens: []string{"basics"}},
			}}},
		},
		{
			name:  "or",
			query: "go OR rust",
			exp: Query{Groups: []Group{
				{{Tokens: []string{"go"}}},
				{{Tokens: []string{"rust"}}},
			}},
		},
		{
			name:  "negation",
			query: "go -advanced NOT expert",
			exp: Query{Groups: []Group{{
				{Tokens: []string{"go"}},
				{Tokens: []string{"advanced"}, Negate: true},
				{Tokens: []string{"expert"}, Negate: true},
			}}},
		},
		{
			name:  "field",
			query: "courseTitle:go",
			exp:   Query{Groups: []Group{{{Field: "coursetitle", Tokens: []string{"go"}}}}},
		},
		{
			name:  "phrase",
			query: `"hello world"`,
			exp:   Query{Groups: []Group{{{Tokens: []string{"hello", "world"}}}}},
		},
		{
			name:  "negated field phrase",
			query: `-lessonTitle:"getting started"`,
			exp: Query{Groups: []Group{{
				{Field: "lessontitle", Tokens: []string{"getting", "started"}, Negate: true},
			}}},
		},
		{
			name:  "star",
			query: "*",
			exp:   Query{Groups: []Group{{{All: true}}}},
		},
		{
			name:  "punctuation splits",
			query: "front-end",
			exp:   Query{Groups: []Group{{{Tokens: []string{"front", "end"}}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.exp, got); diff != "" {
				t.Fatalf("query mismatch:\n%s", diff)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	queries := []string{
		"",
		"   ",
		`"unbalanced`,
		"OR go",
		"go OR",
		"go AND",
		"AND go",
		"go OR OR rust",
		"go AND OR rust",
		"go NOT",
		"NOT NOT go",
		":go",
		"title:",
		"-",
		"title:*",
		"!!!",
		`"a"b`,
	}

	for _, q := range queries {
		if _, err := Parse(q); !errors.Is(err, ErrMalformedQuery) {
			t.Errorf("query %q: expected %v, got %v", q, ErrMalformedQuery, err)
		}
	}
}
