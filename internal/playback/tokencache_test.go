/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCacheFetchesOnceAndReusesUntilExpiry(t *testing.T) {
	c := NewTokenCache(time.Minute)

	fetches := 0
	fetch := func() (string, time.Duration, error) {
		fetches++
		return "tok1", time.Hour, nil
	}

	tok, err := c.Get("catalog", fetch)
	require.NoError(t, err)
	assert.Equal(t, "tok1", tok)

	tok2, err := c.Get("catalog", fetch)
	require.NoError(t, err)
	assert.Equal(t, "tok1", tok2)
	assert.Equal(t, 1, fetches)
}

func TestTokenCacheSerializesConcurrentRefresh(t *testing.T) {
	c := NewTokenCache(time.Minute)

	var mu sync.Mutex
	fetches := 0
	fetch := func() (string, time.Duration, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return "tok", time.Hour, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get("catalog", fetch)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fetches)
}

func TestTokenCachePropagatesFetchError(t *testing.T) {
	c := NewTokenCache(time.Minute)

	_, err := c.Get("catalog", func() (string, time.Duration, error) {
		return "", 0, errors.New("upstream down")
	})

	require.Error(t, err)
}
