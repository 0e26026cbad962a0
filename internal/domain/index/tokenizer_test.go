package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTerms_Empty(t *testing.T) {
	for _, q := range []string{"", " ", "  ", "\t\n"} {
		terms, err := ExtractTerms(q)
		require.NoError(t, err)
		assert.Empty(t, terms, "query %q", q)
		assert.NotNil(t, terms)
	}
}

func TestExtractTerms_Single(t *testing.T) {
	terms, err := ExtractTerms("test")
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, terms)

	terms, err = ExtractTerms(" test   ")
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, terms)
}

func TestExtractTerms_Multiple(t *testing.T) {
	for _, q := range []string{"a b", " a b ", "  a   b  "} {
		terms, err := ExtractTerms(q)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, terms, "query %q", q)
	}
}

func TestExtractTerms_KeepsDuplicatesAndCase(t *testing.T) {
	terms, err := ExtractTerms("Vec vec Vec")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vec", "vec", "Vec"}, terms)
}

func TestExtractTerms_Invalid(t *testing.T) {
	for _, q := range []string{"`", " ` ", " `a`", " x `", "a`b", "résumé", "ok café", "bell\x07"} {
		terms, err := ExtractTerms(q)
		assert.ErrorIs(t, err, ErrInvalidQuery, "query %q", q)
		assert.Nil(t, terms)
	}
}

func TestExtractTerms_Punctuation(t *testing.T) {
	terms, err := ExtractTerms("#![feature(x)] ::new")
	require.NoError(t, err)
	assert.Equal(t, []string{"#![feature(x)]", "::new"}, terms)
}
