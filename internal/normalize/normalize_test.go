package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesRecognizedShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"output object", `{"output":"hi"}`, "hi"},
		{"response object", `{"response":"hello"}`, "hello"},
		{"array message", `[{"message":"from array"}]`, "from array"},
		{"nested data output", `{"data":{"output":"deep"}}`, "deep"},
		{"nested data response", `{"data":{"response":"deeper"}}`, "deeper"},
		{"plain string", `"just text"`, "just text"},
		{"text field", `{"text":"t"}`, "t"},
		{"content field", `[{"content":"c"}]`, "c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Bytes([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOutputFieldPriority(t *testing.T) {
	got, err := Bytes([]byte(`{"content":"c","message":"m","output":"o"}`))
	require.NoError(t, err)
	assert.Equal(t, "o", got)

	got, err = Bytes([]byte(`{"output":"","response":"r"}`))
	require.NoError(t, err)
	assert.Equal(t, "r", got, "empty output should be skipped")
}

func TestOutputUnrecognizedShapeIsSerialized(t *testing.T) {
	got, err := Bytes([]byte(`{"foo":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"foo":1}`, got)

	got, err = Bytes([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	got, err = Bytes([]byte(`null`))
	require.NoError(t, err)
	assert.Equal(t, `null`, got)

	got, err = Bytes([]byte(`{"html":"<b>&</b>"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<b>&</b>"}`, got)
}

func TestOutputNonStringAnswerIsSerialized(t *testing.T) {
	got, err := Bytes([]byte(`{"output":{"a":1.5}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1.5}`, got)
}

func TestOutputNeverPanicsOnGoValues(t *testing.T) {
	assert.Equal(t, "42", Output(42))
	assert.Equal(t, "true", Output(true))
	assert.Equal(t, "x", Output([]any{map[string]any{"output": "x"}}))
}

func TestBytesRejectsNonJSON(t *testing.T) {
	_, err := Bytes([]byte("not json"))
	assert.Error(t, err)

	_, err = Bytes([]byte(`{"type":"item"}` + "\n" + `{"type":"end"}`))
	assert.Error(t, err)
}
