package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixEdition)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixBook, PrefixEdition, PrefixGroup, PrefixReport, PrefixMerge} {
		t.Run(prefix, func(t *testing.T) {
			id := MustGenerate(prefix)
			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+21)
			assert.True(t, Valid(id))
		})
	}
}

func TestOrGenerate(t *testing.T) {
	got, err := OrGenerate("42", PrefixBook)
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	got, err = OrGenerate("", PrefixBook)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "book-"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("42"))
	assert.True(t, Valid("wp:1234"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("-leading"))
	assert.False(t, Valid("has space"))
	assert.False(t, Valid(strings.Repeat("a", 200)))
}
