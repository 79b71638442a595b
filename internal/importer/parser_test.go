package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONKeepsLargeIntegersLiteral(t *testing.T) {
	payload := `[{"name":"Main","capacity":1000000}]`

	rows, err := Parse(FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "1000000", rows[0]["capacity"])

	warehouse, err := rows[0].toWarehouse()
	require.NoError(t, err)
	require.Equal(t, int64(1000000), warehouse.Capacity)
}

func TestParseJSONMixedValueTypes(t *testing.T) {
	payload := `[{"sku":"SKU-1","name":"Bolt","unit_price":12.5,"is_active":true,"barcode":null}]`

	rows, err := Parse(FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "12.5", rows[0]["unit_price"])
	require.Equal(t, "true", rows[0]["is_active"])
	_, hasBarcode := rows[0]["barcode"]
	require.False(t, hasBarcode)
}
