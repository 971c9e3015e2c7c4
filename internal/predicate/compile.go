package predicate

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sap-rfcread/internal/catalog"
	"sap-rfcread/internal/sapval"
)

// MaxLineWidth is the fixed width of one OPTIONS line.
const MaxLineWidth = 72

// ErrInvalidInput marks a condition the compiler cannot render.
var ErrInvalidInput = errors.New("invalid filter condition")

// Comparison operators accepted by KindCompare.
var comparisonOperators = map[string]struct{}{
	"=":    {},
	"<>":   {},
	"<":    {},
	">":    {},
	"<=":   {},
	">=":   {},
	"LIKE": {},
}

// Compile assembles the conditions into one predicate string, AND-joining
// the rendered form of each condition in input order, then wraps the result
// into MaxLineWidth-character lines. An empty condition sequence compiles to
// a single empty line. Membership conditions with empty value lists are
// logged and dropped from the conjunction; when nothing remains the
// predicate collapses to the empty line.
func Compile(conditions []Condition, fields catalog.FieldSet, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var b strings.Builder
	for _, cond := range conditions {
		rendered, err := render(cond, fields, logger)
		if err != nil {
			return nil, err
		}
		if rendered == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(rendered)
	}

	return wrapLines(b.String(), MaxLineWidth), nil
}

func render(cond Condition, fields catalog.FieldSet, logger *slog.Logger) (string, error) {
	switch cond.Kind {
	case KindRaw:
		return cond.Text, nil
	case KindCompare:
		if _, ok := comparisonOperators[cond.Operator]; !ok {
			return "", fmt.Errorf("%w: unknown operator %q on field %s", ErrInvalidInput, cond.Operator, cond.Field)
		}
		return cond.Field + " " + cond.Operator + " " + cond.Literal, nil
	case KindIn, KindNotIn:
		return renderMembership(cond, fields, logger)
	case KindTupleIn, KindTupleNotIn:
		return renderTupleMembership(cond, fields, logger)
	default:
		return "", fmt.Errorf("%w: unrecognized condition kind %d", ErrInvalidInput, cond.Kind)
	}
}

// renderMembership expands a single-field membership list into an equality
// chain: (F = 'A' OR F = 'B') for in, (F <> 'A' AND F <> 'B') for not-in.
func renderMembership(cond Condition, fields catalog.FieldSet, logger *slog.Logger) (string, error) {
	if len(cond.Values) == 0 {
		logger.Warn("ignoring membership filter with empty value list", "field", cond.Field)
		return "", nil
	}
	field, ok := fields[cond.Field]
	if !ok {
		return "", fmt.Errorf("%w: no metadata for field %s", ErrInvalidInput, cond.Field)
	}

	operator, joiner := " = ", " OR "
	if cond.Kind == KindNotIn {
		operator, joiner = " <> ", " AND "
	}

	terms := make([]string, len(cond.Values))
	for i, value := range cond.Values {
		terms[i] = cond.Field + operator + sapval.Format(value, field.Type, field.Length)
	}
	return "(" + strings.Join(terms, joiner) + ")", nil
}

// renderTupleMembership expands a multi-field membership list. For in, each
// value tuple becomes an AND of per-field equalities and the tuples are
// OR-joined; for not-in the connectives flip.
func renderTupleMembership(cond Condition, fields catalog.FieldSet, logger *slog.Logger) (string, error) {
	if len(cond.Tuples) == 0 {
		logger.Warn("ignoring membership filter with empty tuple list", "fields", strings.Join(cond.Fields, ","))
		return "", nil
	}
	if len(cond.Fields) == 0 {
		return "", fmt.Errorf("%w: tuple membership with no fields", ErrInvalidInput)
	}

	descriptors := make([]catalog.Field, len(cond.Fields))
	for i, name := range cond.Fields {
		field, ok := fields[name]
		if !ok {
			return "", fmt.Errorf("%w: no metadata for field %s", ErrInvalidInput, name)
		}
		descriptors[i] = field
	}

	operator, inner, outer := " = ", " AND ", " OR "
	if cond.Kind == KindTupleNotIn {
		operator, inner, outer = " <> ", " OR ", " AND "
	}

	groups := make([]string, len(cond.Tuples))
	for i, tuple := range cond.Tuples {
		if len(tuple) != len(cond.Fields) {
			return "", fmt.Errorf("%w: tuple %d has %d values for %d fields", ErrInvalidInput, i, len(tuple), len(cond.Fields))
		}
		terms := make([]string, len(tuple))
		for j, value := range tuple {
			terms[j] = cond.Fields[j] + operator + sapval.Format(value, descriptors[j].Type, descriptors[j].Length)
		}
		groups[i] = "(" + strings.Join(terms, inner) + ")"
	}
	return "(" + strings.Join(groups, outer) + ")", nil
}

// wrapLines splits the assembled predicate into fixed-width segments whose
// concatenation reproduces the input exactly. A boundary may fall mid-word;
// the remote side concatenates the lines before parsing, so nothing is lost.
func wrapLines(predicate string, width int) []string {
	runes := []rune(predicate)
	if len(runes) <= width {
		return []string{predicate}
	}
	lines := make([]string, 0, (len(runes)+width-1)/width)
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	return append(lines, string(runes))
}
