package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringAcceptsStringAndNumber(t *testing.T) {
	tests := []struct {
		name string
		body string
		want FlexString
	}{
		{"quoted", `{"price":"25000000"}`, "25000000"},
		{"integer", `{"price":25000000}`, "25000000"},
		{"float", `{"price":2.5}`, "2.5"},
		{"null", `{"price":null}`, ""},
		{"absent", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var row ImportRow
			require.NoError(t, json.Unmarshal([]byte(tt.body), &row))
			assert.Equal(t, tt.want, row.Price)
		})
	}
}

func TestFlexStringRejectsNonScalar(t *testing.T) {
	var row ImportRow
	err := json.Unmarshal([]byte(`{"price":{"amount":1}}`), &row)
	require.Error(t, err)
}

func TestImportReportJSONShape(t *testing.T) {
	report := ImportReport{
		SuccessCount: 2,
		FailedCount:  1,
		FailedRows:   []FailedRow{{Row: 3, Message: "Missing required fields."}},
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"successCount":2,"failedCount":1,"failedRows":[{"row":3,"message":"Missing required fields."}]}`,
		string(data))
}
