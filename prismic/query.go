package prismic

import (
	"strconv"
	"strings"
)

// Predicate is one clause of the q parameter, e.g. [at(document.type, "posts")].
type Predicate string

// At matches documents whose path equals value.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + ", " + strconv.Quote(value) + ")]")
}

// Any matches documents whose path equals one of values.
func Any(path string, values ...string) Predicate {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return Predicate("[any(" + path + ", [" + strings.Join(quoted, ", ") + "])]")
}

// JoinPredicates wraps predicates into the q query value.
func JoinPredicates(predicates []Predicate) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range predicates {
		b.WriteString(string(p))
	}
	b.WriteByte(']')
	return b.String()
}

type Ordering struct {
	Field string
	Desc  bool
}

// FormatOrderings renders orderings as [field, other desc].
func FormatOrderings(orderings []Ordering) string {
	parts := make([]string, len(orderings))
	for i, o := range orderings {
		parts[i] = o.Field
		if o.Desc {
			parts[i] += " desc"
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// QueryOptions are the optional search parameters. Zero values are omitted.
type QueryOptions struct {
	PageSize  int
	Page      int
	Orderings []Ordering
	// After is a document ID; results start right after it in the
	// requested ordering.
	After string
	// Fetch restricts the returned data fields, e.g. "posts.title".
	Fetch []string
}
