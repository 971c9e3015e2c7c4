package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sap-rfcread/internal/predicate"
	"sap-rfcread/internal/query"
)

func TestDictLanguage(t *testing.T) {
	assert.Equal(t, "E", dictLanguage("EN"))
	assert.Equal(t, "D", dictLanguage("de"))
	assert.Equal(t, "E", dictLanguage(" E "))
	assert.Equal(t, "", dictLanguage(""))
}

func TestRawConditions(t *testing.T) {
	conditions := rawConditions([]string{"WERKS = '1000'", "MTART = 'FERT'"})
	assert.Equal(t, []predicate.Condition{
		predicate.Raw("WERKS = '1000'"),
		predicate.Raw("MTART = 'FERT'"),
	}, conditions)
}

func TestFormatRow(t *testing.T) {
	assert.Equal(t, "0001\t12\t3.5", formatRow(query.Row{"0001", int64(12), 3.5}))
	assert.Equal(t, "", formatRow(query.Row{}))
}
