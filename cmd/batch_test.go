package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardle/hiservice/hiservice"
	"github.com/wardle/hiservice/ihi"
)

const batchYAML = `
requests:
  - kind: basic
    requestIdentifier: 0b8e7e32-3f0b-4a9c-8d3e-6a1f7c2d9e10
    search:
      ihiNumber: "8003608833357361"
      familyName: SMITH
      dateOfBirth: "1980-01-01"
      sex: M
  - kind: australian-postal-address
    search:
      familyName: JONES
      dateOfBirth: "1975-06-30"
      sex: F
      australianPostalAddress:
        postalDeliveryGroup:
          postalDeliveryType: PO BOX
          postalDeliveryNumber: "123"
        suburb: HOBART
        state: TAS
        postcode: "7001"
`

func TestReadBatch(t *testing.T) {
	batch, err := readBatch(strings.NewReader(batchYAML))
	require.NoError(t, err)
	require.Equal(t, 2, batch.Len())
	requests := batch.Requests()
	assert.Equal(t, ihi.KindBasic, requests[0].Kind)
	assert.Equal(t, "0b8e7e32-3f0b-4a9c-8d3e-6a1f7c2d9e10", requests[0].RequestIdentifier)
	assert.Equal(t, ihi.KindAustralianPostalAddress, requests[1].Kind)
	require.NotNil(t, requests[1].Search.AustralianPostalAddress)
	assert.Equal(t, "PO BOX", requests[1].Search.AustralianPostalAddress.PostalDeliveryGroup.PostalDeliveryType)
}

func TestReadBatchJSON(t *testing.T) {
	batch, err := readBatch(strings.NewReader(`{"requests":[{"kind":"detailed","search":{"familyName":"SMITH","dateOfBirth":"1980-01-01","sex":"M"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Len())
}

func TestReadBatchErrors(t *testing.T) {
	tests := map[string]struct {
		input string
		err   error
	}{
		"empty":     {input: "requests: []", err: hiservice.ErrEmptyBatch},
		"kind":      {input: "requests:\n  - kind: wibble\n", err: nil},
		"forbidden": {input: "requests:\n  - kind: detailed\n    search: {ihiNumber: '8003608833357361', familyName: SMITH, dateOfBirth: '1980-01-01', sex: M}\n", err: ihi.ErrForbiddenFieldPresent},
		"required":  {input: "requests:\n  - kind: basic-dva\n    search: {familyName: SMITH, dateOfBirth: '1980-01-01', sex: M}\n", err: ihi.ErrMissingRequiredField},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			batch, err := readBatch(strings.NewReader(tt.input))
			assert.Nil(t, batch)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestWriteOutput(t *testing.T) {
	result := hiservice.SearchResult{RequestIdentifier: "abc", IHINumber: "8003608833357361"}
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "yaml", result))
	assert.Contains(t, buf.String(), "ihiNumber: \"8003608833357361\"")
	buf.Reset()
	require.NoError(t, writeOutput(&buf, "json", result))
	assert.Contains(t, buf.String(), `"ihiNumber": "8003608833357361"`)
	assert.Error(t, writeOutput(&buf, "xml", result))
}
