package predicate

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sap-rfcread/internal/catalog"
)

func testFields() catalog.FieldSet {
	return catalog.FieldSet{
		"FIELD1": {Name: "FIELD1", Type: "C", Length: 7},
		"FIELD2": {Name: "FIELD2", Type: "I", Length: 2},
	}
}

func TestCompile_NoFilter(t *testing.T) {
	lines, err := Compile(nil, nil, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{""}, lines)
}

func TestCompile_RawConditionsJoined(t *testing.T) {
	lines, err := Compile([]Condition{Raw("ABC"), Raw("DEF")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC AND DEF"}, lines)
}

func TestCompile_Compare(t *testing.T) {
	lines, err := Compile([]Condition{Compare("DDTEXT", "LIKE", "'%ORDER%'")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"DDTEXT LIKE '%ORDER%'"}, lines)
}

func TestCompile_CompareUnknownOperator(t *testing.T) {
	_, err := Compile([]Condition{Compare("DDTEXT", "BETWEEN", "'A'")}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompile_MembershipIn(t *testing.T) {
	lines, err := Compile([]Condition{In("FIELD1", "ABC", "DEF", "GHI")}, testFields(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"(FIELD1 = 'ABC' OR FIELD1 = 'DEF' OR FIELD1 = 'GHI')"}, lines)
}

func TestCompile_MembershipNotIn(t *testing.T) {
	lines, err := Compile([]Condition{NotIn("FIELD1", "ABC", "DEF", "GHI")}, testFields(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"(FIELD1 <> 'ABC' AND FIELD1 <> 'DEF' AND FIELD1 <> 'GHI')"}, lines)
}

func TestCompile_MembershipZeroPadsNumericChar(t *testing.T) {
	lines, err := Compile([]Condition{In("FIELD1", "123")}, testFields(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"(FIELD1 = '0000123')"}, lines)
}

func TestCompile_TupleMembershipIn(t *testing.T) {
	cond := TupleIn([]string{"FIELD1", "FIELD2"}, []any{"ABC", 1}, []any{"DEF", 2})
	lines, err := Compile([]Condition{cond}, testFields(), nil)
	require.NoError(t, err)
	joined := strings.Join(lines, "")
	assert.Equal(t, "((FIELD1 = 'ABC' AND FIELD2 = '1') OR (FIELD1 = 'DEF' AND FIELD2 = '2'))", joined)
}

func TestCompile_TupleMembershipNotIn(t *testing.T) {
	cond := TupleNotIn([]string{"FIELD1", "FIELD2"}, []any{"ABC", 1}, []any{"DEF", 2})
	lines, err := Compile([]Condition{cond}, testFields(), nil)
	require.NoError(t, err)
	joined := strings.Join(lines, "")
	assert.Equal(t, "((FIELD1 <> 'ABC' OR FIELD2 <> '1') AND (FIELD1 <> 'DEF' OR FIELD2 <> '2'))", joined)
}

func TestCompile_MembershipUnknownField(t *testing.T) {
	_, err := Compile([]Condition{In("MISSING", "A")}, testFields(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompile_EmptyMembershipSoleCondition(t *testing.T) {
	lines, err := Compile([]Condition{In("FIELD1")}, testFields(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, lines)
}

func TestCompile_EmptyMembershipDroppedFromConjunction(t *testing.T) {
	lines, err := Compile([]Condition{Raw("ABC"), In("FIELD1"), Raw("DEF")}, testFields(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC AND DEF"}, lines)
}

func TestCompile_TupleWidthMismatch(t *testing.T) {
	cond := TupleIn([]string{"FIELD1", "FIELD2"}, []any{"ABC"})
	_, err := Compile([]Condition{cond}, testFields(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompile_LongPredicateWraps(t *testing.T) {
	values := make([]any, 0, 20)
	for _, v := range []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH"} {
		values = append(values, v)
	}
	lines, err := Compile([]Condition{In("FIELD1", values...)}, testFields(), nil)
	require.NoError(t, err)
	require.Greater(t, len(lines), 1)

	for _, line := range lines {
		assert.LessOrEqual(t, len([]rune(line)), MaxLineWidth)
	}

	joined := strings.Join(lines, "")
	assert.Equal(t, "(FIELD1 = 'AAA' OR FIELD1 = 'BBB' OR FIELD1 = 'CCC' OR FIELD1 = 'DDD' OR FIELD1 = 'EEE' OR FIELD1 = 'FFF' OR FIELD1 = 'GGG' OR FIELD1 = 'HHH')", joined)
}

func TestWrapLines_ReassemblesExactly(t *testing.T) {
	input := "A long query condition that has to be split into many lines, as it's too long for SAP."
	lines := wrapLines(input, MaxLineWidth)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, input, strings.Join(lines, ""))
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), MaxLineWidth)
	}
}
