package rfc

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// ReadTableParams are the keyword parameters of the table-read function.
type ReadTableParams struct {
	Table     string
	Delimiter string
	RowCount  int // maximum rows to return; 0 = unbounded
	RowSkips  int // starting row offset
	Fields    []string
	Options   []string
}

// Map renders the parameters in the shape the remote function expects.
// FIELDS is omitted when empty (meaning "all fields"); OPTIONS is always a
// list of TEXT lines, possibly a single empty one.
func (p ReadTableParams) Map() map[string]any {
	params := map[string]any{
		"QUERY_TABLE": p.Table,
		"DELIMITER":   p.Delimiter,
		"ROWCOUNT":    p.RowCount,
		"ROWSKIPS":    p.RowSkips,
	}
	if len(p.Fields) > 0 {
		rows := make([]map[string]any, len(p.Fields))
		for i, name := range p.Fields {
			rows[i] = map[string]any{"FIELDNAME": name}
		}
		params["FIELDS"] = rows
	}
	if len(p.Options) > 0 {
		rows := make([]map[string]any, len(p.Options))
		for i, line := range p.Options {
			rows[i] = map[string]any{"TEXT": line}
		}
		params["OPTIONS"] = rows
	}
	return params
}

// DataRow is one returned row buffer: the requested columns joined by the
// call's delimiter, padded to the fixed record width.
type DataRow struct {
	WA string `mapstructure:"WA"`
}

// FieldFormat describes one returned column, in column order.
type FieldFormat struct {
	FieldName string `mapstructure:"FIELDNAME"`
	Offset    string `mapstructure:"OFFSET"`
	Length    string `mapstructure:"LENGTH"`
	Type      string `mapstructure:"TYPE"`
	FieldText string `mapstructure:"FIELDTEXT"`
}

// ReadTableResult is the decoded export of a table-read call.
type ReadTableResult struct {
	Data   []DataRow     `mapstructure:"DATA"`
	Fields []FieldFormat `mapstructure:"FIELDS"`
}

// DecodeReadTableResult decodes the loosely typed call result. Weak typing
// absorbs gateways that return numeric columns as numbers rather than text.
func DecodeReadTableResult(raw map[string]any) (*ReadTableResult, error) {
	var result ReadTableResult
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: true,
		DecodeHook:       emptyTableHook,
	})
	if err != nil {
		return nil, fmt.Errorf("build result decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode table-read result: %w", err)
	}
	return &result, nil
}

// emptyTableHook maps an empty string onto an empty slice. The XML transport
// decodes a table element with no item children as its (empty) text.
func emptyTableHook(from reflect.Value, to reflect.Value) (any, error) {
	if from.Kind() == reflect.String && to.Kind() == reflect.Slice && from.String() == "" {
		return []any{}, nil
	}
	return from.Interface(), nil
}
