package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind("  Float64 ")
	require.NoError(t, err)
	assert.Equal(t, KindFloat64, got)

	for _, name := range []string{"", "blob", "int", "string"} {
		_, err := ParseKind(name)
		assert.ErrorIs(t, err, ErrUnsupportedType, name)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestRegisteredTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindText, Text.Kind())
	assert.Equal(t, KindInt64, Int64.Kind())
	assert.Equal(t, KindInt32, Int32.Kind())
	assert.Equal(t, KindFloat32, Float32.Kind())
	assert.Equal(t, KindFloat64, Float64.Kind())

	assert.NotNil(t, Text.get)
	assert.NotNil(t, Int64.get)
	assert.NotNil(t, Int32.get)
	assert.NotNil(t, Float32.get)
	assert.NotNil(t, Float64.get)
	assert.Nil(t, Type[string]{}.get)
}
