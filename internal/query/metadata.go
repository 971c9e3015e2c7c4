package query

import (
	"context"
	"fmt"
	"strings"

	"sap-rfcread/internal/catalog"
	"sap-rfcread/internal/predicate"
	"sap-rfcread/internal/sapval"
)

// DefaultLanguage selects the dictionary text language when the caller does
// not.
const DefaultLanguage = "E"

// rollnameMetadata is the DD04T field descriptor needed to compile the
// ROLLNAME membership filter without a dictionary round trip about the
// dictionary itself.
var rollnameMetadata = catalog.FieldSet{
	"ROLLNAME": {Name: "ROLLNAME", Type: sapval.TypeChar, Length: 30},
}

// FieldInfo reads the table's field descriptors from the data dictionary.
// With withLabels set it additionally resolves each field's data element to
// its text labels in the given language.
func (e *Engine) FieldInfo(ctx context.Context, table string, withLabels bool, language string) (catalog.FieldSet, error) {
	if language == "" {
		language = DefaultLanguage
	}

	dictRows, err := e.Query(ctx, Spec{
		Table:  catalog.TableFields,
		Fields: catalog.FieldQueryColumns,
		Where: []predicate.Condition{
			predicate.Compare("TABNAME", "=", "'"+table+"'"),
			// Active dictionary versions with a data type; .INCLUDE
			// lines carry a blank INTTYPE.
			predicate.Raw("AS4LOCAL = 'A'"),
			predicate.Raw("INTTYPE <> ''"),
		},
		Metadata: catalog.FieldSet{},
	})
	if err != nil {
		return nil, fmt.Errorf("read field definitions for %s: %w", table, err)
	}
	if len(dictRows) == 0 {
		return nil, fmt.Errorf("table %s is not in the data dictionary", table)
	}

	fields, err := catalog.FieldsFromRows(cellRows(dictRows))
	if err != nil {
		return nil, fmt.Errorf("parse field definitions for %s: %w", table, err)
	}
	if !withLabels {
		return fields, nil
	}

	labelRows, err := e.Query(ctx, Spec{
		Table:  catalog.TableFieldTexts,
		Fields: catalog.LabelQueryColumns,
		Where: []predicate.Condition{
			predicate.In("ROLLNAME", catalog.Rollnames(cellRows(dictRows))...),
			predicate.Compare("DDLANGUAGE", "=", "'"+language+"'"),
			predicate.Raw("AS4LOCAL = 'A'"),
		},
		Metadata: rollnameMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("read field labels for %s: %w", table, err)
	}
	catalog.MergeFieldLabels(fields, cellRows(labelRows))
	return fields, nil
}

// TableDescription returns the table's short description in the given
// language, or the empty string when the dictionary has none.
func (e *Engine) TableDescription(ctx context.Context, table string, language string) (string, error) {
	if language == "" {
		language = DefaultLanguage
	}

	rows, err := e.Query(ctx, Spec{
		Table:  catalog.TableDescriptions,
		Fields: []string{"DDTEXT"},
		Where: []predicate.Condition{
			predicate.Compare("TABNAME", "=", "'"+table+"'"),
			predicate.Compare("DDLANGUAGE", "=", "'"+language+"'"),
			predicate.Raw("AS4LOCAL = 'A'"),
		},
		Metadata: catalog.FieldSet{},
	})
	if err != nil {
		return "", fmt.Errorf("read description of %s: %w", table, err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	// When several rows match, the last one wins.
	last := rows[len(rows)-1]
	if len(last) == 0 {
		return "", nil
	}
	return cellText(last[0]), nil
}

// TableMatch is one hit of a description search.
type TableMatch struct {
	Name        string
	Description string
}

// FindTablesByDescription searches the dictionary for tables whose short
// description matches the LIKE pattern ("%" and "_" wildcards) in the given
// language.
func (e *Engine) FindTablesByDescription(ctx context.Context, pattern string, language string) ([]TableMatch, error) {
	if language == "" {
		language = DefaultLanguage
	}

	rows, err := e.Query(ctx, Spec{
		Table:  catalog.TableDescriptions,
		Fields: []string{"TABNAME", "DDTEXT"},
		Where: []predicate.Condition{
			predicate.Compare("DDTEXT", "LIKE", "'"+pattern+"'"),
			predicate.Compare("DDLANGUAGE", "=", "'"+language+"'"),
			predicate.Raw("AS4LOCAL = 'A'"),
		},
		Metadata: catalog.FieldSet{},
	})
	if err != nil {
		return nil, fmt.Errorf("search table descriptions: %w", err)
	}

	matches := make([]TableMatch, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		matches = append(matches, TableMatch{
			Name:        cellText(row[0]),
			Description: cellText(row[1]),
		})
	}
	return matches, nil
}

// NumberEntries counts the table's rows by reading only its shortest field,
// keeping the transferred payload minimal.
func (e *Engine) NumberEntries(ctx context.Context, table string) (int, error) {
	fields, err := e.FieldInfo(ctx, table, false, "")
	if err != nil {
		return 0, err
	}
	shortest, ok := catalog.ShortestField(fields)
	if !ok {
		return 0, fmt.Errorf("table %s has no fields", table)
	}

	rows, err := e.Query(ctx, Spec{
		Table:    table,
		Fields:   []string{shortest},
		Metadata: fields,
	})
	if err != nil {
		return 0, fmt.Errorf("count entries of %s: %w", table, err)
	}
	return len(rows), nil
}

func cellRows(rows []Row) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}

func cellText(cell any) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(cell))
}
