package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache_CompileCaches(t *testing.T) {
	c, err := NewQueryCache(2)
	require.NoError(t, err)

	first, err := c.Compile(".items[]")
	require.NoError(t, err)
	second, err := c.Compile(".items[]")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())
}

func TestQueryCache_Evicts(t *testing.T) {
	c, err := NewQueryCache(2)
	require.NoError(t, err)

	for _, expr := range []string{".a", ".b", ".c"} {
		_, err := c.Compile(expr)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestQueryCache_InvalidExpression(t *testing.T) {
	c, err := NewQueryCache(2)
	require.NoError(t, err)

	_, err = c.Compile(".items[")
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestQueryCache_NilReceiver(t *testing.T) {
	var c *QueryCache
	code, err := c.Compile(".")
	require.NoError(t, err)
	assert.NotNil(t, code)
	assert.Equal(t, 0, c.Len())
}

func TestNewQueryCache_RejectsNonPositiveSize(t *testing.T) {
	_, err := NewQueryCache(0)
	assert.Error(t, err)
}
