package search

import (
	"fmt"
	"strings"
	"unicode"
)

type term struct {
	field string
	token string
}

// Clause matches documents containing all of Tokens in Field, or in any
// field when Field is empty. All matches every document.
type Clause struct {
	Field  string
	Tokens []string
	Negate bool
	All    bool
}

func (c Clause) terms() []term {
	field := c.Field
	if field == "" {
		field = allField
	}
	out := make([]term, 0, len(c.Tokens))
	for _, tok := range c.Tokens {
		out = append(out, term{field: field, token: tok})
	}
	return out
}

// Group is a conjunction of clauses.
type Group []Clause

// Query is a disjunction of groups.
type Query struct {
	Groups []Group
}

func (q Query) needsUniverse() bool {
	for _, g := range q.Groups {
		positive := false
		for _, c := range g {
			if c.All {
				return true
			}
			if !c.Negate {
				positive = true
			}
		}
		if !positive {
			return true
		}
	}
	return false
}

func (q Query) terms() []term {
	seen := make(map[term]struct{})
	var out []term
	for _, g := range q.Groups {
		for _, c := range g {
			for _, t := range c.terms() {
				if _, ok := seen[t]; ok {
					continue
				}
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	return out
}

type item struct {
	prefix string
	phrase string
	quoted bool
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedQuery, fmt.Sprintf(format, args...))
}

// Parse reads a query. Clauses separated by whitespace must all match; OR
// separates alternatives; AND is accepted and implied; NOT or a leading '-'
// negates the next clause; field:term restricts a clause to one field;
// "quoted phrases" require all of their words; * matches everything.
func Parse(s string) (Query, error) {
	items, err := lex(s)
	if err != nil {
		return Query{}, err
	}
	if len(items) == 0 {
		return Query{}, malformed("query is empty")
	}

	var (
		q       Query
		cur     Group
		op      string
		negNext bool
	)

	for _, it := range items {
		if !it.quoted {
			switch it.prefix {
			case "OR":
				if len(cur) == 0 || op != "" || negNext {
					return Query{}, malformed("OR needs a clause on both sides")
				}
				q.Groups = append(q.Groups, cur)
				cur, op = nil, "OR"
				continue
			case "AND":
				if len(cur) == 0 || op != "" || negNext {
					return Query{}, malformed("AND needs a clause on both sides")
				}
				op = "AND"
				continue
			case "NOT":
				if negNext {
					return Query{}, malformed("NOT cannot follow NOT")
				}
				negNext = true
				continue
			}
		}

		c, err := clause(it)
		if err != nil {
			return Query{}, err
		}
		if negNext {
			c.Negate = !c.Negate
			negNext = false
		}
		cur = append(cur, c)
		op = ""
	}

	if op != "" {
		return Query{}, malformed("dangling %s", op)
	}
	if negNext {
		return Query{}, malformed("dangling NOT")
	}
	q.Groups = append(q.Groups, cur)

	return q, nil
}

func clause(it item) (Clause, error) {
	var c Clause

	p := it.prefix
	if strings.HasPrefix(p, "-") {
		c.Negate = true
		p = p[1:]
	}

	text := p
	if k := strings.IndexByte(p, ':'); k >= 0 {
		c.Field = strings.ToLower(p[:k])
		text = p[k+1:]
		if c.Field == "" {
			return Clause{}, malformed("empty field name in %q", it.prefix)
		}
	}

	if it.quoted {
		if text != "" {
			return Clause{}, malformed("unexpected %q before quote", text)
		}
		text = it.phrase
	} else if text == "" {
		return Clause{}, malformed("missing term in %q", it.prefix)
	}

	if !it.quoted && text == "*" {
		if c.Field != "" {
			return Clause{}, malformed("* cannot be restricted to a field")
		}
		c.All = true
		return c, nil
	}

	c.Tokens = Tokenize(text)
	if len(c.Tokens) == 0 {
		return Clause{}, malformed("nothing searchable in %q", text)
	}
	return c, nil
}

func lex(s string) ([]item, error) {
	rs := []rune(s)

	var items []item
	for i := 0; i < len(rs); {
		if unicode.IsSpace(rs[i]) {
			i++
			continue
		}

		start := i
		for i < len(rs) && !unicode.IsSpace(rs[i]) && rs[i] != '"' {
			i++
		}
		it := item{prefix: string(rs[start:i])}

		if i < len(rs) && rs[i] == '"' {
			end := i + 1
			for end < len(rs) && rs[end] != '"' {
				end++
			}
			if end >= len(rs) {
				return nil, malformed("unbalanced quote")
			}
			it.phrase = string(rs[i+1 : end])
			it.quoted = true
			i = end + 1
			if i < len(rs) && !unicode.IsSpace(rs[i]) {
				return nil, malformed("missing space after quoted phrase")
			}
		}

		items = append(items, it)
	}
	return items, nil
}
