package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211", "paperworker_test")

	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	err := mc.Set("fetch_blocked", []byte("300"), 2*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("fetch_blocked")
	assert.NoError(t, err)
	assert.Equal(t, "300", string(value))

	// The namespace is applied to the stored key
	_, err = NewMemcacheService("localhost:11211", "").Get("fetch_blocked")
	assert.ErrorIs(t, err, ErrMiss)

	err = mc.Delete("fetch_blocked")
	assert.NoError(t, err)

	_, err = mc.Get("fetch_blocked")
	assert.ErrorIs(t, err, ErrMiss)

	// Deleting a missing key is not an error
	assert.NoError(t, mc.Delete("fetch_blocked"))
}

func TestNamespacedKey(t *testing.T) {
	assert.Equal(t, "ns:k", NewMemcacheService("localhost:11211", "ns").key("k"))
	assert.Equal(t, "k", NewMemcacheService("localhost:11211", "").key("k"))
}
