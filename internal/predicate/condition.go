// Package predicate compiles structured filter conditions into the
// fixed-width OPTIONS lines understood by SAP's table-read RFC. The remote
// function has no native IN operator and accepts the predicate only as an
// ordered list of text lines of at most MaxLineWidth characters, so
// membership filters expand to equality chains and the assembled predicate
// is wrapped greedily.
package predicate

// Kind discriminates the condition variants.
type Kind int

const (
	// KindRaw is literal condition text used verbatim.
	KindRaw Kind = iota
	// KindCompare renders as "field operator literal".
	KindCompare
	// KindIn requires a field to equal one of a list of values.
	KindIn
	// KindNotIn requires a field to differ from every value in a list.
	KindNotIn
	// KindTupleIn requires a tuple of fields to match one of a list of
	// value tuples.
	KindTupleIn
	// KindTupleNotIn requires a tuple of fields to differ from every value
	// tuple in a list.
	KindTupleNotIn
)

// Condition is one filter clause. A sequence of conditions is AND-joined in
// order by Compile.
type Condition struct {
	Kind     Kind
	Text     string   // KindRaw
	Field    string   // KindCompare, KindIn, KindNotIn
	Operator string   // KindCompare
	Literal  string   // KindCompare; already quoted/escaped by the caller
	Values   []any    // KindIn, KindNotIn
	Fields   []string // tuple kinds
	Tuples   [][]any  // tuple kinds
}

// Raw builds a condition from literal OPTIONS text, used verbatim.
func Raw(text string) Condition {
	return Condition{Kind: KindRaw, Text: text}
}

// Compare builds a "field operator literal" condition. The literal is joined
// in as-is, so the caller quotes it.
func Compare(field, operator, literal string) Condition {
	return Condition{Kind: KindCompare, Field: field, Operator: operator, Literal: literal}
}

// In builds a membership condition requiring field to equal one of values.
func In(field string, values ...any) Condition {
	return Condition{Kind: KindIn, Field: field, Values: values}
}

// NotIn builds a membership condition requiring field to differ from every
// value in values.
func NotIn(field string, values ...any) Condition {
	return Condition{Kind: KindNotIn, Field: field, Values: values}
}

// TupleIn builds a membership condition over several fields at once: the
// field tuple must match one of the value tuples.
func TupleIn(fields []string, tuples ...[]any) Condition {
	return Condition{Kind: KindTupleIn, Fields: fields, Tuples: tuples}
}

// TupleNotIn builds the negated tuple membership condition.
func TupleNotIn(fields []string, tuples ...[]any) Condition {
	return Condition{Kind: KindTupleNotIn, Fields: fields, Tuples: tuples}
}

// IsMembership reports whether the condition carries a value list subject to
// deduplication and chunking.
func (c Condition) IsMembership() bool {
	switch c.Kind {
	case KindIn, KindNotIn, KindTupleIn, KindTupleNotIn:
		return true
	default:
		return false
	}
}
