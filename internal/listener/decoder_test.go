package listener

import (
	"errors"
	"testing"

	"github.com/guided-traffic/format-listener/internal/codec"
	"github.com/guided-traffic/format-listener/internal/format"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func testRegistry() *codec.Registry {
	return codec.NewRegistry(testLogger(), codec.DefaultFormatMap())
}

type countingRegistry struct {
	calls int
}

func (c *countingRegistry) Decoder(string) codec.Decoder {
	c.calls++
	return nil
}

func TestBodyDecoder_MaybeDecode(t *testing.T) {
	tests := []struct {
		name            string
		rc              RequestContext
		expectedOutcome Outcome
		expectedParams  map[string]any
	}{
		{
			name:            "json object replaces params",
			rc:              RequestContext{Method: "POST", ContentType: "application/json", Body: []byte(`{"a":1}`)},
			expectedOutcome: OutcomeDecoded,
			expectedParams:  map[string]any{"a": float64(1)},
		},
		{
			name:            "put with charset",
			rc:              RequestContext{Method: "PUT", ContentType: "application/json; charset=utf-8", Body: []byte(`{"name":"x"}`)},
			expectedOutcome: OutcomeDecoded,
			expectedParams:  map[string]any{"name": "x"},
		},
		{
			name:            "delete with xml",
			rc:              RequestContext{Method: "DELETE", ContentType: "text/xml", Body: []byte(`<r><id>4</id></r>`)},
			expectedOutcome: OutcomeDecoded,
			expectedParams:  map[string]any{"id": "4"},
		},
		{
			name:            "yaml body",
			rc:              RequestContext{Method: "POST", ContentType: "application/x-yaml", Body: []byte("a: b\n")},
			expectedOutcome: OutcomeDecoded,
			expectedParams:  map[string]any{"a": "b"},
		},
		{
			name:            "json list keyed by index",
			rc:              RequestContext{Method: "POST", ContentType: "application/json", Body: []byte(`["x","y"]`)},
			expectedOutcome: OutcomeDecoded,
			expectedParams:  map[string]any{"0": "x", "1": "y"},
		},
		{
			name:            "json scalar",
			rc:              RequestContext{Method: "POST", ContentType: "application/json", Body: []byte(`"hello"`)},
			expectedOutcome: OutcomeDecoded,
			expectedParams:  map[string]any{"0": "hello"},
		},
		{
			name:            "json null yields empty params",
			rc:              RequestContext{Method: "POST", ContentType: "application/json", Body: []byte(`null`)},
			expectedOutcome: OutcomeDecoded,
			expectedParams:  map[string]any{},
		},
		{
			name:            "empty body yields empty params",
			rc:              RequestContext{Method: "DELETE", ContentType: "application/json"},
			expectedOutcome: OutcomeDecoded,
			expectedParams:  map[string]any{},
		},
		{
			name:            "get is untouched",
			rc:              RequestContext{Method: "GET", ContentType: "application/json", Body: []byte(`{"a":1}`)},
			expectedOutcome: OutcomeSkipped,
			expectedParams:  nil,
		},
		{
			name:            "patch is untouched",
			rc:              RequestContext{Method: "PATCH", ContentType: "application/json", Body: []byte(`{"a":1}`)},
			expectedOutcome: OutcomeSkipped,
			expectedParams:  nil,
		},
		{
			name:            "existing params are untouched",
			rc:              RequestContext{Method: "POST", ContentType: "application/json", Body: []byte(`{"a":1}`), Params: map[string]any{"b": "2"}},
			expectedOutcome: OutcomeSkipped,
			expectedParams:  map[string]any{"b": "2"},
		},
		{
			name:            "unknown content type",
			rc:              RequestContext{Method: "POST", ContentType: "application/octet-stream", Body: []byte(`{"a":1}`)},
			expectedOutcome: OutcomeUnmappable,
			expectedParams:  nil,
		},
		{
			name:            "missing content type",
			rc:              RequestContext{Method: "POST", Body: []byte(`{"a":1}`)},
			expectedOutcome: OutcomeUnmappable,
			expectedParams:  nil,
		},
		{
			name:            "mapped format without codec",
			rc:              RequestContext{Method: "POST", ContentType: "text/html", Body: []byte(`<p>hi</p>`)},
			expectedOutcome: OutcomeNoDecoder,
			expectedParams:  nil,
		},
	}

	decoder := NewBodyDecoder(testLogger(), format.DefaultTable())
	registry := testRegistry()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := tt.rc

			outcome, err := decoder.MaybeDecode(&rc, registry)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedOutcome, outcome)
			assert.Equal(t, tt.expectedParams, rc.Params)
		})
	}
}

func TestBodyDecoder_DecodeFailureLeavesParams(t *testing.T) {
	decoder := NewBodyDecoder(testLogger(), format.DefaultTable())
	original := map[string]any{}
	rc := &RequestContext{
		Method:      "POST",
		ContentType: "application/json",
		Body:        []byte(`{invalid`),
		Params:      original,
	}

	outcome, err := decoder.MaybeDecode(rc, testRegistry())

	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	var decodeErr *codec.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "json", decodeErr.Format)

	assert.Empty(t, rc.Params)
	rc.Params["probe"] = true
	assert.Contains(t, original, "probe", "params map must not be replaced on failure")
}

func TestBodyDecoder_UnregisteredFormat(t *testing.T) {
	table := format.DefaultTable()
	table.Add("msgpack", "application/msgpack")
	decoder := NewBodyDecoder(testLogger(), table)

	rc := &RequestContext{Method: "POST", ContentType: "application/msgpack", Body: []byte{0x81}}
	outcome, err := decoder.MaybeDecode(rc, testRegistry())

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDecoder, outcome)
	assert.Nil(t, rc.Params)
}

func TestBodyDecoder_SkipsRegistryWhenPreconditionsFail(t *testing.T) {
	decoder := NewBodyDecoder(testLogger(), nil)
	registry := &countingRegistry{}

	_, err := decoder.MaybeDecode(&RequestContext{Method: "GET", ContentType: "application/json"}, registry)
	require.NoError(t, err)
	_, err = decoder.MaybeDecode(&RequestContext{Method: "POST", ContentType: "image/png"}, registry)
	require.NoError(t, err)

	assert.Zero(t, registry.calls)
}

func TestToParams_ReturnsFreshMap(t *testing.T) {
	decoded := map[string]any{"a": 1}
	params := toParams(decoded)
	params["b"] = 2

	assert.NotContains(t, decoded, "b")
	assert.Equal(t, map[string]any{"1": "x"}, toParams(map[any]any{1: "x"}))
}
