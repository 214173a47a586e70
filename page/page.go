package page

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultSize = 20
	MaxSize     = 2000
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Order struct {
	Field     string
	Direction Direction
}

// Request describes the slice of a result set a caller asked for. An unpaged
// request asks for everything.
type Request struct {
	Number  int
	Size    int
	Sort    []Order
	Unpaged bool
}

func (r Request) Offset() int {
	return r.Number * r.Size
}

type Page[T any] struct {
	Content []T
	Number  int
	Size    int
	Total   int64
}

func New[T any](content []T, req Request, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	size := req.Size
	if req.Unpaged {
		size = len(content)
	}
	return Page[T]{Content: content, Number: req.Number, Size: size, Total: total}
}

// WithContent returns a page with the same metadata and different content.
func (p Page[T]) WithContent(content []T) Page[T] {
	if content == nil {
		content = []T{}
	}
	p.Content = content
	return p
}

func (p Page[T]) TotalPages() int {
	if p.Size == 0 {
		return 1
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// Parse reads page, size and sort query parameters. When neither page nor size
// is given the request is unpaged. Sort fields are checked against allowed.
func Parse(q url.Values, allowed map[string]string) (Request, error) {
	req := Request{Size: DefaultSize}

	ps, ss := q.Get("page"), q.Get("size")
	if ps == "" && ss == "" {
		req.Unpaged = true
		req.Size = 0
	}

	if ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil || n < 0 {
			return Request{}, fmt.Errorf("page %q must be a non negative integer", ps)
		}
		req.Number = n
	}
	if ss != "" {
		n, err := strconv.Atoi(ss)
		if err != nil || n < 1 {
			return Request{}, fmt.Errorf("size %q must be a positive integer", ss)
		}
		if n > MaxSize {
			n = MaxSize
		}
		req.Size = n
	}

	// Offsets past MaxInt wrap negative.
	if !req.Unpaged && req.Number > math.MaxInt/req.Size {
		return Request{}, fmt.Errorf("page %q must be a non negative integer below %d for size %d", ps, math.MaxInt/req.Size+1, req.Size)
	}

	for _, s := range q["sort"] {
		o, err := parseOrder(s)
		if err != nil {
			return Request{}, err
		}
		if _, ok := allowed[o.Field]; !ok {
			return Request{}, fmt.Errorf("cannot sort by %q", o.Field)
		}
		req.Sort = append(req.Sort, o)
	}

	return req, nil
}

func parseOrder(s string) (Order, error) {
	parts := strings.Split(s, ",")
	o := Order{Field: strings.TrimSpace(parts[0]), Direction: Asc}
	if o.Field == "" {
		return Order{}, errors.New("sort field is empty")
	}
	if len(parts) > 2 {
		return Order{}, fmt.Errorf("sort %q has too many parts", s)
	}
	if len(parts) == 2 {
		switch Direction(strings.ToLower(strings.TrimSpace(parts[1]))) {
		case Asc:
		case Desc:
			o.Direction = Desc
		default:
			return Order{}, fmt.Errorf("sort direction %q must be asc or desc", parts[1])
		}
	}
	return o, nil
}

// OrderBy renders the sort as SQL using the allowed field to column mapping.
// The id column is always the last tie breaker.
func OrderBy(sort []Order, allowed map[string]string) string {
	cols := make([]string, 0, len(sort)+1)
	hasID := false
	for _, o := range sort {
		col, ok := allowed[o.Field]
		if !ok {
			continue
		}
		if col == "id" {
			hasID = true
		}
		cols = append(cols, col+" "+strings.ToUpper(string(o.Direction)))
	}
	if !hasID {
		cols = append(cols, "id ASC")
	}
	return " ORDER BY " + strings.Join(cols, ", ")
}

// WriteHeaders sets X-Total-Count and an RFC 5988 Link header for paged lists.
func WriteHeaders[T any](w http.ResponseWriter, u *url.URL, p Page[T]) {
	w.Header().Set("X-Total-Count", strconv.FormatInt(p.Total, 10))
	if p.Size == 0 {
		return
	}

	last := p.TotalPages() - 1
	if last < 0 {
		last = 0
	}

	var links []string
	if p.Number < last {
		links = append(links, link(u, p.Number+1, p.Size, "next"))
	}
	if p.Number > 0 {
		links = append(links, link(u, p.Number-1, p.Size, "prev"))
	}
	links = append(links, link(u, last, p.Size, "last"), link(u, 0, p.Size, "first"))
	w.Header().Set("Link", strings.Join(links, ","))
}

func link(u *url.URL, number, size int, rel string) string {
	cp := *u
	q := cp.Query()
	q.Set("page", strconv.Itoa(number))
	q.Set("size", strconv.Itoa(size))
	cp.RawQuery = q.Encode()
	return fmt.Sprintf("<%s>; rel=\"%s\"", cp.RequestURI(), rel)
}
