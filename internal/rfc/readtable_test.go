package rfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTableParamsMap(t *testing.T) {
	params := ReadTableParams{
		Table:     "T001",
		Delimiter: "|",
		RowCount:  50,
		RowSkips:  100,
		Fields:    []string{"BUKRS", "BUTXT"},
		Options:   []string{"BUKRS = '1000'"},
	}.Map()

	assert.Equal(t, "T001", params["QUERY_TABLE"])
	assert.Equal(t, "|", params["DELIMITER"])
	assert.Equal(t, 50, params["ROWCOUNT"])
	assert.Equal(t, 100, params["ROWSKIPS"])
	assert.Equal(t, []map[string]any{
		{"FIELDNAME": "BUKRS"},
		{"FIELDNAME": "BUTXT"},
	}, params["FIELDS"])
	assert.Equal(t, []map[string]any{
		{"TEXT": "BUKRS = '1000'"},
	}, params["OPTIONS"])
}

func TestReadTableParamsMap_AllFields(t *testing.T) {
	params := ReadTableParams{Table: "T001", Delimiter: "|"}.Map()

	_, hasFields := params["FIELDS"]
	assert.False(t, hasFields, "FIELDS should be absent when all fields are wanted")
	_, hasOptions := params["OPTIONS"]
	assert.False(t, hasOptions)
}

func TestReadTableParamsMap_EmptyPredicateLine(t *testing.T) {
	params := ReadTableParams{Table: "T001", Delimiter: "|", Options: []string{""}}.Map()

	assert.Equal(t, []map[string]any{{"TEXT": ""}}, params["OPTIONS"])
}

func TestDecodeReadTableResult(t *testing.T) {
	raw := map[string]any{
		"DATA": []any{
			map[string]any{"WA": "1000|Alpha  "},
			map[string]any{"WA": "2000|Beta   "},
		},
		"FIELDS": []any{
			map[string]any{"FIELDNAME": "BUKRS", "OFFSET": "000000", "LENGTH": "000004", "TYPE": "C", "FIELDTEXT": "Company Code"},
			map[string]any{"FIELDNAME": "BUTXT", "OFFSET": "000005", "LENGTH": "000007", "TYPE": "C", "FIELDTEXT": "Name"},
		},
	}

	result, err := DecodeReadTableResult(raw)
	require.NoError(t, err)

	require.Len(t, result.Data, 2)
	assert.Equal(t, "1000|Alpha  ", result.Data[0].WA)

	require.Len(t, result.Fields, 2)
	assert.Equal(t, "BUKRS", result.Fields[0].FieldName)
	assert.Equal(t, "C", result.Fields[0].Type)
	assert.Equal(t, "000007", result.Fields[1].Length)
}

func TestDecodeReadTableResult_EmptyTables(t *testing.T) {
	result, err := DecodeReadTableResult(map[string]any{
		"DATA":   "",
		"FIELDS": "",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Data)
	assert.Empty(t, result.Fields)
}
