package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends() map[string]func() Storage[string] {
	return map[string]func() Storage[string]{
		"ordered":    func() Storage[string] { return NewOrderedStorage[string]() },
		"prefixTree": func() Storage[string] { return NewPrefixTreeStorage[string]() },
	}
}

func TestStorageBasics(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			stg := mk()

			stg.Set("a", "1")
			stg.Set("b", "2")
			stg.Set("a", "3")

			v, ok := stg.Get("a")
			assert.True(t, ok)
			assert.Equal(t, "3", v)
			assert.Equal(t, 2, stg.Len())

			stg.Del("a")
			_, ok = stg.Get("a")
			assert.False(t, ok)
			assert.Equal(t, 1, stg.Len())
		})
	}
}

func TestStorageRangeIsOrderedAndPrefixed(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			// arrange
			stg := mk()
			stg.Set("idx_b", "2")
			stg.Set("idx_a", "1")
			stg.Set("idx_c", "3")
			stg.Set("rec_x", "nope")

			// act
			var keys []string
			rng := stg.Range("idx_")
			for rng.Next() {
				k, _ := rng.Value()
				keys = append(keys, k)
			}

			// assert
			assert.Equal(t, []string{"idx_a", "idx_b", "idx_c"}, keys)
		})
	}
}

func TestStorageCloneIsIndependent(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			stg := mk()
			stg.Set("k", "orig")

			clone := stg.Clone()
			clone.Set("k", "changed")
			clone.Set("extra", "new")

			v, ok := stg.Get("k")
			require.True(t, ok)
			assert.Equal(t, "orig", v)
			_, ok = stg.Get("extra")
			assert.False(t, ok)
		})
	}
}
