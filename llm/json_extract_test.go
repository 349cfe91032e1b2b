package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFirstJSONValue(t *testing.T) {
	raw, err := ExtractFirstJSONValue("hello\n{\"a\":1,\"b\":[2,3]}\nbye")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":[2,3]}`, string(raw))
}

func TestExtractFirstJSONValueFenced(t *testing.T) {
	raw, err := ExtractFirstJSONValue("```json\n{\"symbol\":\"AAPL\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"symbol":"AAPL"}`, string(raw))
}

func TestExtractFirstJSONValueArray(t *testing.T) {
	raw, err := ExtractFirstJSONValue("result: [1,2,3] done")
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(raw))
}

func TestExtractFirstJSONValueNone(t *testing.T) {
	_, err := ExtractFirstJSONValue("no structured output here")
	assert.Error(t, err)
}
