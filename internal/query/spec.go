package query

import (
	"errors"
	"fmt"
	"strings"

	"sap-rfcread/internal/catalog"
	"sap-rfcread/internal/predicate"
)

// Defaults applied by Engine.Query when the spec leaves them zero.
const (
	// DefaultDelimiter separates columns in returned row buffers. The
	// asterism is vanishingly unlikely to occur in table data.
	DefaultDelimiter = "⁂"
	// DefaultChunkRows caps membership value lists per request. Longer
	// lists are split into sequential sub-requests.
	DefaultChunkRows = 10000
)

// ErrInvalidSpec marks a read spec the engine cannot execute.
var ErrInvalidSpec = errors.New("invalid read spec")

// Spec describes one table read.
type Spec struct {
	// Table is the remote table or view to read.
	Table string
	// Fields selects columns by name, in order. Nil or a single "*"
	// selects every column.
	Fields []string
	// Where filters rows; conditions are AND-joined in order.
	Where []predicate.Condition
	// MaxRows caps the total rows returned. Zero means unbounded.
	MaxRows int
	// FromRow is the zero-based offset of the first row to return.
	FromRow int
	// Delimiter separates columns inside each returned row buffer.
	Delimiter string
	// BatchRows, when positive, fetches rows in windows of this size
	// instead of one call.
	BatchRows int
	// ChunkRows caps membership value lists per request.
	ChunkRows int
	// KeepDuplicates skips the deduplication of membership value lists.
	KeepDuplicates bool
	// Metadata supplies pre-fetched field descriptors. When nil and the
	// filter contains membership conditions, the engine fetches them from
	// the data dictionary.
	Metadata catalog.FieldSet
}

// Row is one result row, cells in requested field order and decoded per the
// field's type code.
type Row []any

// normalizeFields resolves the field selection: nil or a lone "*" means all
// fields, and blank names are rejected because the remote function silently
// returns a malformed row layout for them.
func normalizeFields(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) == 1 && fields[0] == "*" {
		return nil, nil
	}
	for i, name := range fields {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: field %d is blank", ErrInvalidSpec, i)
		}
	}
	return fields, nil
}

// dedupConditions removes repeated values from membership lists, keeping the
// first occurrence of each so the rendered predicate preserves caller order.
// Non-membership conditions pass through untouched.
func dedupConditions(conditions []predicate.Condition) []predicate.Condition {
	out := make([]predicate.Condition, len(conditions))
	for i, cond := range conditions {
		switch cond.Kind {
		case predicate.KindIn, predicate.KindNotIn:
			cond.Values = dedupValues(cond.Values)
		case predicate.KindTupleIn, predicate.KindTupleNotIn:
			cond.Tuples = dedupTuples(cond.Tuples)
		}
		out[i] = cond
	}
	return out
}

func dedupValues(values []any) []any {
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, value := range values {
		key := fmt.Sprint(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}

func dedupTuples(tuples [][]any) [][]any {
	seen := make(map[string]struct{}, len(tuples))
	out := make([][]any, 0, len(tuples))
	for _, tuple := range tuples {
		key := tupleKey(tuple)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tuple)
	}
	return out
}

// tupleKey renders a tuple with length-prefixed cells so that cell boundaries
// survive in the key; a plain join would merge distinct tuples whose
// concatenations collide.
func tupleKey(tuple []any) string {
	var b strings.Builder
	for _, value := range tuple {
		text := fmt.Sprint(value)
		fmt.Fprintf(&b, "%d:%s;", len(text), text)
	}
	return b.String()
}

func hasMembership(conditions []predicate.Condition) bool {
	for _, cond := range conditions {
		if cond.IsMembership() {
			return true
		}
	}
	return false
}
