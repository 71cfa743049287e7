package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndGet(t *testing.T) {
	r := NewRegistry[int]()
	require.NoError(t, r.Add("a", 1))
	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRegistryAddRejectsDuplicate(t *testing.T) {
	r := NewRegistry[int]()
	require.NoError(t, r.Add("a", 1))
	err := r.Add("a", 2)
	assert.Error(t, err)
	v, _ := r.Get("a")
	assert.Equal(t, 1, v, "a rejected duplicate Add must not overwrite the existing entry")
}

func TestRegistryOverrideReplaces(t *testing.T) {
	r := NewRegistry[int]()
	require.NoError(t, r.Add("a", 1))
	r.Override("a", 2)
	v, _ := r.Get("a")
	assert.Equal(t, 2, v)
}

func TestRegistryGetMissingReturnsFalse(t *testing.T) {
	r := NewRegistry[int]()
	_, ok := r.Get("missing")
	assert.False(t, ok)
}
