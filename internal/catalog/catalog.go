// Package catalog models SAP data-dictionary field metadata and parses the
// dictionary rows returned by table-read calls against DD03L and DD04T.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Data-dictionary tables consulted for metadata.
const (
	TableFields       = "DD03L" // field definitions per table
	TableFieldTexts   = "DD04T" // data-element text labels
	TableDescriptions = "DD02T" // table short descriptions
)

// FieldQueryColumns is the DD03L column selection, in the order
// FieldsFromRows expects result cells.
var FieldQueryColumns = []string{
	"FIELDNAME",
	"KEYFLAG",
	"ROLLNAME",
	"INTTYPE",
	"DATATYPE",
	"LENG",
	"POSITION",
}

// LabelQueryColumns is the DD04T column selection, in the order
// MergeFieldLabels expects result cells.
var LabelQueryColumns = []string{
	"ROLLNAME",
	"DDTEXT",
	"REPTEXT",
	"SCRTEXT_S",
	"SCRTEXT_M",
	"SCRTEXT_L",
}

// Field describes one table field as declared in the data dictionary.
type Field struct {
	Name     string
	Key      bool
	Rollname string // data element; cleared once labels have been merged
	Type     string // ABAP internal type code (INTTYPE)
	DataType string
	Length   int
	Position int

	// Text labels merged from DD04T when descriptions are requested.
	Description string // DDTEXT
	Heading     string // REPTEXT
	LabelShort  string // SCRTEXT_S
	LabelMedium string // SCRTEXT_M
	LabelLong   string // SCRTEXT_L
}

// FieldSet maps field names to their descriptors. Field names are unique
// within a table.
type FieldSet map[string]Field

// FieldsFromRows builds a FieldSet from DD03L result rows selected with
// FieldQueryColumns.
func FieldsFromRows(rows [][]any) (FieldSet, error) {
	fields := make(FieldSet, len(rows))
	for _, row := range rows {
		if len(row) < len(FieldQueryColumns) {
			return nil, fmt.Errorf("dictionary row has %d cells, want %d", len(row), len(FieldQueryColumns))
		}
		length, err := cellInt(row[5])
		if err != nil {
			return nil, fmt.Errorf("parse field length: %w", err)
		}
		position, err := cellInt(row[6])
		if err != nil {
			return nil, fmt.Errorf("parse field position: %w", err)
		}
		field := Field{
			Name:     cellString(row[0]),
			Key:      cellString(row[1]) == "X",
			Rollname: cellString(row[2]),
			Type:     cellString(row[3]),
			DataType: cellString(row[4]),
			Length:   length,
			Position: position,
		}
		fields[field.Name] = field
	}
	return fields, nil
}

// Rollnames returns the data-element names of the given DD03L rows in row
// order, duplicates included, for use as a DD04T membership filter.
func Rollnames(rows [][]any) []any {
	names := make([]any, 0, len(rows))
	for _, row := range rows {
		if len(row) > 2 {
			names = append(names, cellString(row[2]))
		}
	}
	return names
}

// MergeFieldLabels merges DD04T label rows (selected with LabelQueryColumns)
// into the field set by data-element name. After the merge the Rollname key
// is cleared on every field: the labels supersede it and keeping it around
// invites stale lookups.
func MergeFieldLabels(fields FieldSet, rows [][]any) {
	labels := make(map[string][]string, len(rows))
	for _, row := range rows {
		if len(row) < len(LabelQueryColumns) {
			continue
		}
		texts := make([]string, len(LabelQueryColumns)-1)
		for i := range texts {
			texts[i] = cellString(row[i+1])
		}
		labels[cellString(row[0])] = texts
	}

	for name, field := range fields {
		if texts, ok := labels[field.Rollname]; ok {
			field.Description = texts[0]
			field.Heading = texts[1]
			field.LabelShort = texts[2]
			field.LabelMedium = texts[3]
			field.LabelLong = texts[4]
		}
		field.Rollname = ""
		fields[name] = field
	}
}

// ShortestField returns the name of the field with the smallest declared
// length, breaking ties by name so the choice is deterministic. Used for
// minimal-payload row counting. Returns false for an empty set.
func ShortestField(fields FieldSet) (string, bool) {
	best := ""
	bestLength := 0
	for name, field := range fields {
		if best == "" || field.Length < bestLength || (field.Length == bestLength && name < best) {
			best = name
			bestLength = field.Length
		}
	}
	return best, best != ""
}

func cellString(cell any) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}

func cellInt(cell any) (int, error) {
	switch v := cell.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, nil
		}
		return strconv.Atoi(trimmed)
	default:
		return 0, fmt.Errorf("unexpected numeric cell %v (%T)", cell, cell)
	}
}
