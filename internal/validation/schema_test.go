package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/ordermonitor/internal/domain"
)

func TestSchemaCheck(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	testCases := []struct {
		name  string
		kind  domain.Kind
		raw   string
		valid bool
	}{
		{
			name:  "transaction",
			kind:  domain.KindTransaction,
			raw:   `{"Supplier":{"Name":"A","Quantity":10,"Price":500},"Customer":{"Name":"B","Quantity":10,"Price":500}}`,
			valid: true,
		},
		{
			name:  "transaction with string price",
			kind:  domain.KindTransaction,
			raw:   `{"Supplier":{"Name":"A","Quantity":10,"Price":"500.50"},"Customer":{"Name":"B","Quantity":10,"Price":"500.50"}}`,
			valid: true,
		},
		{
			name: "transaction missing customer",
			kind: domain.KindTransaction,
			raw:  `{"Supplier":{"Name":"A","Quantity":10,"Price":500}}`,
		},
		{
			name: "transaction fractional quantity",
			kind: domain.KindTransaction,
			raw:  `{"Supplier":{"Name":"A","Quantity":1.5,"Price":500},"Customer":{"Name":"B","Quantity":1.5,"Price":500}}`,
		},
		{
			name:  "cancellation",
			kind:  domain.KindCancellation,
			raw:   `{"Customer":"B","Supplier":"A","Quantity":5}`,
			valid: true,
		},
		{
			name: "cancellation with object customer",
			kind: domain.KindCancellation,
			raw:  `{"Customer":{"Name":"B"},"Supplier":"A","Quantity":5}`,
		},
		{
			name: "transaction document checked as cancellation",
			kind: domain.KindCancellation,
			raw:  `{"Supplier":{"Name":"A","Quantity":10,"Price":500},"Customer":{"Name":"B","Quantity":10,"Price":500}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Decode([]byte(tc.raw))
			require.NoError(t, err)

			res := schema.Check(tc.kind, doc)
			assert.Equal(t, tc.valid, res.Valid, res.Reason)
			if !tc.valid {
				assert.Contains(t, res.Reason, "schema violation")
				assert.NotContains(t, res.Reason, "\n")
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`{not valid}`))
	assert.Error(t, err)
}

func TestSchemaUnknownKind(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	res := schema.Check(domain.Kind("refund"), map[string]interface{}{})
	assert.False(t, res.Valid)
}
