package weberr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInvalidCarriesKey(t *testing.T) {
	base := errors.New("a new course cannot already have an ID")
	err := fmt.Errorf("creating course: %w", Invalid(base, "idexists"))

	body, status, ok := Response(err)
	if !ok || status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (ok=%v)", status, ok)
	}
	want := &ErrorResponse{Error: base.Error(), ErrorKey: "idexists"}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("unexpected body: %s", diff)
	}
	if !errors.Is(err, base) {
		t.Fatal("lost the cause")
	}

	fields, ok := Fields(err)
	if !ok || fields["error_key"] != "idexists" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestSearchKeys(t *testing.T) {
	for key, err := range map[string]error{
		"search.unavailable": SearchUnavailable(errors.New("dial tcp: refused")),
		"search.malformed":   SearchMalformed(errors.New("unbalanced quote")),
	} {
		body, _, _ := Response(err)
		eb, ok := body.(*ErrorResponse)
		if !ok || eb.ErrorKey != key {
			t.Errorf("%s: unexpected body %+v", key, body)
		}
	}
}

func TestNotFoundHasNoBody(t *testing.T) {
	err := NotFound(errors.New("course[3] not found"), WithEntity("courses", 3))

	body, status, ok := Response(err)
	if !ok || status != http.StatusNotFound || body != nil {
		t.Fatalf("unexpected response %v %d %v", body, status, ok)
	}

	fields, _ := Fields(err)
	want := map[string]interface{}{"index": "courses", "entity_id": int64(3)}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("unexpected fields: %s", diff)
	}
}

func TestFieldsMergeOuterWins(t *testing.T) {
	err := Wrap(errors.New("boom"),
		WithFields(map[string]interface{}{"a": 1, "b": 1}),
		WithFields(map[string]interface{}{"b": 2}),
	)

	fields, ok := Fields(err)
	if !ok {
		t.Fatal("no fields")
	}
	if diff := cmp.Diff(map[string]interface{}{"a": 1, "b": 2}, fields); diff != "" {
		t.Fatalf("unexpected fields: %s", diff)
	}

	if _, ok := Fields(errors.New("plain")); ok {
		t.Fatal("plain error reported fields")
	}
}
