package codec

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

type encodeOnly struct{}

func (encodeOnly) Name() string                       { return "csv" }
func (encodeOnly) Encode(any, string) ([]byte, error) { return nil, nil }

func TestJSONCodec_Decode(t *testing.T) {
	c := JSONCodec{}

	v, err := c.Decode([]byte(`{"a":1,"b":["x","y"],"c":{"d":true}}`), "json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": float64(1),
		"b": []any{"x", "y"},
		"c": map[string]any{"d": true},
	}, v)

	_, err = c.Decode([]byte(`{invalid`), "json")
	assert.Error(t, err)

	_, err = c.Decode([]byte(`{"a":1} trailing`), "json")
	assert.Error(t, err)

	v, err = c.Decode([]byte("  [1, 2]\n"), "json")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, v)
}

func TestXMLCodec_Decode(t *testing.T) {
	c := XMLCodec{}

	v, err := c.Decode([]byte(`<?xml version="1.0"?>
<request>
  <name>widget</name>
  <tag>a</tag>
  <tag>b</tag>
  <size unit="cm">12</size>
  <owner id="7"/>
</request>`), "xml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "widget",
		"tag":   []any{"a", "b"},
		"size":  map[string]any{"@unit": "cm", "#": "12"},
		"owner": map[string]any{"@id": "7"},
	}, v)

	_, err = c.Decode([]byte(`not xml at all`), "xml")
	assert.Error(t, err)
}

func TestXMLCodec_DecodeMixedContent(t *testing.T) {
	v, err := XMLCodec{}.Decode([]byte(`<a>lead<b>x</b></a>`), "xml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"#": "lead", "b": "x"}, v)
}

func TestXMLCodec_Encode(t *testing.T) {
	out, err := XMLCodec{}.Encode(map[string]any{"name": "widget", "tags": []any{"a", "b"}}, "xml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<response>")
	assert.Contains(t, string(out), "<name>widget</name>")
	assert.Contains(t, string(out), "<tags>a</tags><tags>b</tags>")

	_, err = XMLCodec{}.Encode(map[string]any{"1bad": "x"}, "xml")
	assert.Error(t, err)
}

func TestYAMLCodec_Decode(t *testing.T) {
	c := YAMLCodec{}

	v, err := c.Decode([]byte("name: widget\ncount: 3\n"), "yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "widget", "count": 3}, v)

	_, err = c.Decode([]byte("name: [unclosed"), "yaml")
	assert.Error(t, err)
}

func TestDecodeError(t *testing.T) {
	inner := errors.New("boom")
	var err error = &DecodeError{Format: "json", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "failed to decode json body: boom", err.Error())

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "json", de.Format)
}

func TestRegistry_Decoder(t *testing.T) {
	registry := NewRegistry(testLogger(), FormatMap{
		"json":    LocatorJSON,
		"xml":     LocatorXML,
		"csv":     "codec.csv",
		"missing": "codec.missing",
		"broken":  "codec.broken",
	})
	registry.Register("codec.csv", func(string) (Codec, error) { return encodeOnly{}, nil })
	registry.Register("codec.broken", func(string) (Codec, error) { return nil, errors.New("no") })

	assert.NotNil(t, registry.Decoder("json"))
	assert.NotNil(t, registry.Decoder("xml"))
	assert.Nil(t, registry.Decoder("yaml"), "not in format map")
	assert.Nil(t, registry.Decoder(""))
	assert.Nil(t, registry.Decoder("csv"), "codec without decode capability")
	assert.Nil(t, registry.Decoder("missing"), "unknown locator")
	assert.Nil(t, registry.Decoder("broken"), "factory error")

	assert.NotNil(t, registry.Encoder("csv"))
	assert.ElementsMatch(t, []string{"json", "xml", "csv", "missing", "broken"}, registry.Formats())
}

func TestRegistry_ConstructsOnce(t *testing.T) {
	registry := NewRegistry(testLogger(), FormatMap{"json": "codec.counted"})

	var built int32
	registry.Register("codec.counted", func(format string) (Codec, error) {
		atomic.AddInt32(&built, 1)
		return JSONCodec{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, registry.Decoder("json"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&built))
	registry.Decoder("json")
	assert.Equal(t, int32(1), atomic.LoadInt32(&built))
}
