package cache_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/localnerve/voternet/internal/cache"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type thing struct{ id int }

func (t thing) CacheKey() string { return "thing:" + string(rune('0'+t.id)) }

func TestMemoizeComputesOnce(t *testing.T) {
	c := cache.New()
	calls := 0
	fn := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := cache.Memoize(c, thing{1}, "answer", fn)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)
}

func TestMemoizeDoesNotCacheErrors(t *testing.T) {
	c := cache.New()
	calls := 0
	fn := func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("boom")
		}
		return 7, nil
	}

	_, err := cache.Memoize(c, thing{1}, "n", fn)
	require.Error(t, err)
	v, err := cache.Memoize(c, thing{1}, "n", fn)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestInvalidateObjectDropsAllComputations(t *testing.T) {
	c := cache.New()
	calls := map[string]int{}
	compute := func(name string) func() (string, error) {
		return func() (string, error) {
			calls[name]++
			return name, nil
		}
	}

	for _, name := range []string{"a", "b"} {
		_, err := cache.Memoize(c, thing{1}, name, compute(name))
		require.NoError(t, err)
	}
	_, err := cache.Memoize(c, thing{2}, "a", compute("other"))
	require.NoError(t, err)

	c.InvalidateObject(thing{1})

	for _, name := range []string{"a", "b"} {
		_, err := cache.Memoize(c, thing{1}, name, compute(name))
		require.NoError(t, err)
		assert.Equal(t, 2, calls[name], name)
	}
	_, err = cache.Memoize(c, thing{2}, "a", compute("other"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls["other"])
}

func TestInvalidateByRawKey(t *testing.T) {
	c := cache.New()
	calls := 0
	fn := func() (int, error) { calls++; return calls, nil }

	_, err := cache.Memoize(c, thing{3}, "x", fn)
	require.NoError(t, err)
	c.InvalidateObject(cache.Key(thing{3}.CacheKey()))
	v, err := cache.Memoize(c, thing{3}, "x", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestMemoizeArgs(t *testing.T) {
	c := cache.New()
	calls := 0
	lookup := func(key string) (string, error) {
		return cache.MemoizeArgs(c, "lookup", []any{key}, func() (string, error) {
			calls++
			return "value:" + key, nil
		})
	}

	v, err := lookup("KA")
	require.NoError(t, err)
	assert.Equal(t, "value:KA", v)
	_, _ = lookup("KA")
	_, _ = lookup("KA/AC001")
	assert.Equal(t, 2, calls)

	c.InvalidateArgs("lookup", "KA")
	_, _ = lookup("KA")
	_, _ = lookup("KA/AC001")
	assert.Equal(t, 3, calls)
}

func TestClear(t *testing.T) {
	c := cache.New()
	_, err := cache.Memoize(c, thing{1}, "a", func() (int, error) { return 1, nil })
	require.NoError(t, err)
	_, err = cache.MemoizeArgs(c, "f", []any{1}, func() (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestInvalidationDuringComputeIsNotOverwritten(t *testing.T) {
	c := cache.New()
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = cache.Memoize(c, thing{1}, "slow", func() (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()

	<-started
	c.InvalidateObject(thing{1})
	close(release)
	wg.Wait()

	v, err := cache.Memoize(c, thing{1}, "slow", func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestCollectors(t *testing.T) {
	c := cache.New()
	fn := func() (int, error) { return 1, nil }
	for i := 0; i < 3; i++ {
		_, err := cache.MemoizeArgs(c, "one", nil, fn)
		require.NoError(t, err)
	}

	collectors := c.Collectors()
	require.Len(t, collectors, 3)
	assert.Equal(t, float64(2), promtest.ToFloat64(collectors[0]))
	assert.Equal(t, float64(1), promtest.ToFloat64(collectors[1]))
	assert.Equal(t, float64(1), promtest.ToFloat64(collectors[2]))
}
