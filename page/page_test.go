package page

import (
	"math"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var sortable = map[string]string{
	"id":          "id",
	"courseTitle": "course_title",
}

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  Request
	}{
		{query: "", want: Request{Unpaged: true}},
		{query: "page=2&size=10", want: Request{Number: 2, Size: 10}},
		{query: "page=1", want: Request{Number: 1, Size: DefaultSize}},
		{query: "size=99999", want: Request{Size: MaxSize}},
		{
			query: "size=5&sort=courseTitle,desc&sort=id",
			want: Request{Size: 5, Sort: []Order{
				{Field: "courseTitle", Direction: Desc},
				{Field: "id", Direction: Asc},
			}},
		},
	}

	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Parse(q, sortable)
		if err != nil {
			t.Fatalf("%q: %v", tt.query, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%q: %s", tt.query, diff)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, query := range []string{
		"page=-1",
		"page=x",
		"size=0",
		"sort=price",
		"sort=courseTitle,sideways",
		"sort=,asc",
		"sort=id,asc,desc",
		"page=4611686018427387904&size=2",
		"page=9223372036854775807",
	} {
		q, _ := url.ParseQuery(query)
		if _, err := Parse(q, sortable); err == nil {
			t.Errorf("%q: expected an error", query)
		}
	}
}

func TestParseLargestPage(t *testing.T) {
	q := url.Values{"page": {strconv.Itoa(math.MaxInt / 2)}, "size": {"2"}}
	req, err := Parse(q, sortable)
	if err != nil {
		t.Fatal(err)
	}
	if req.Offset() < 0 {
		t.Fatalf("offset wrapped: %d", req.Offset())
	}
}

func TestOrderBy(t *testing.T) {
	got := OrderBy([]Order{{Field: "courseTitle", Direction: Desc}}, sortable)
	if want := " ORDER BY course_title DESC, id ASC"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	got = OrderBy([]Order{{Field: "id", Direction: Desc}}, sortable)
	if want := " ORDER BY id DESC"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWithContentKeepsMetadata(t *testing.T) {
	p := New([]int{1, 2}, Request{Number: 2, Size: 10}, 47)
	q := p.WithContent([]int{3})

	if q.Number != 2 || q.Size != 10 || q.Total != 47 || q.TotalPages() != 5 {
		t.Fatalf("metadata changed: %+v", q)
	}
}

func TestWriteHeaders(t *testing.T) {
	u, _ := url.Parse("/api/courses?page=1&size=10")
	w := httptest.NewRecorder()

	WriteHeaders(w, u, New([]int{}, Request{Number: 1, Size: 10}, 25))

	if got := w.Header().Get("X-Total-Count"); got != "25" {
		t.Fatalf("unexpected total %q", got)
	}
	want := `</api/courses?page=2&size=10>; rel="next",` +
		`</api/courses?page=0&size=10>; rel="prev",` +
		`</api/courses?page=2&size=10>; rel="last",` +
		`</api/courses?page=0&size=10>; rel="first"`
	if got := w.Header().Get("Link"); got != want {
		t.Fatalf("unexpected links:\n got %s\nwant %s", got, want)
	}
}
