package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	key, err := DeriveKey("hunter2")
	require.NoError(t, err)
	assert.Len(t, key, 32)

	again, err := DeriveKey("hunter2")
	require.NoError(t, err)
	assert.Equal(t, key, again, "derivation must be deterministic")

	other, err := DeriveKey("hunter3")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestDeriveKey_EmptySecret(t *testing.T) {
	key, err := DeriveKey("")
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := DeriveKey("k")
	require.NoError(t, err)

	sealed, err := sealValue(key, "secret value")
	require.NoError(t, err)

	got, err := openValue(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret value", got)
}

func TestOpenValue_RejectsGarbage(t *testing.T) {
	key, err := DeriveKey("k")
	require.NoError(t, err)

	_, err = openValue(key, "not base64!")
	assert.Error(t, err)

	_, err = openValue(key, "AAAA")
	assert.ErrorContains(t, err, "ciphertext too short")
}
