package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	table := Table{
		Columns: []string{"Name", "Priority"},
		Rows: [][]string{
			{"Buy milk", "low"},
			{"Ship, release", "high"},
		},
	}

	data, err := CSV(table)
	require.NoError(t, err)
	assert.Equal(t, "Name,Priority\nBuy milk,low\n\"Ship, release\",high\n", string(data))
}

func TestCSVNoColumns(t *testing.T) {
	_, err := CSV(Table{})
	assert.Error(t, err)
}

func TestPDF(t *testing.T) {
	table := Table{
		Title:   "My Tasks",
		Columns: []string{"Name", "Priority"},
		Rows:    [][]string{{"Buy milk", "low"}},
	}

	data, err := PDF(table)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestPDFNoColumns(t *testing.T) {
	_, err := PDF(Table{})
	assert.Error(t, err)
}
