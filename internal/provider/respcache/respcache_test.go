package respcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := New(time.Minute, 0)

	c.Set("k", "v")

	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", got)

	_, ok = c.Get("missing")
	require.False(t, ok)
}

func TestLazyExpiry(t *testing.T) {
	now := time.Now()
	c := New(time.Minute, 0)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(61 * time.Second)

	_, ok := c.Get("k")
	require.False(t, ok)
	require.Zero(t, c.Len(), "expired entry dropped on access")
}

func TestSizeCapEvicts(t *testing.T) {
	c := New(time.Minute, 3)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	require.LessOrEqual(t, c.Len(), 3)
	// the most recent entry always survives
	got, ok := c.Get("k4")
	require.True(t, ok)
	require.Equal(t, 4, got)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New(time.Minute, 2)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Set("a", 10)

	got, ok := c.Get("b")
	require.True(t, ok)
	require.Equal(t, 2, got)
	got, ok = c.Get("a")
	require.True(t, ok)
	require.Equal(t, 10, got)
}

func TestFlush(t *testing.T) {
	c := New(time.Minute, 0)
	c.Set("a", 1)

	c.Flush()

	require.Zero(t, c.Len())
}
