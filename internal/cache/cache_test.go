package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTrip(t *testing.T) {
	c := NewMemory()

	_, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v")))
	got, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete("k"))
	_, ok, err = c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Stored values are copies; mutating the caller's slice after Set, or the
// returned slice after Get, must not corrupt the cache.
func TestMemory_Isolation(t *testing.T) {
	c := NewMemory()

	src := []byte("value")
	require.NoError(t, c.Set("k", src))
	src[0] = 'X'

	got, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	got[0] = 'Y'
	again, _, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}

func TestBadger_RoundTrip(t *testing.T) {
	c, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok, "a missing key is a miss, not an error")

	require.NoError(t, c.Set("k", []byte("v")))
	got, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete("k"))
	_, ok, err = c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}
