package cryptox

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	t.Setenv("STOREFRONT_MASTER_KEY", "unit-test-master-key")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	const token = "eyJhbGciOiJIUzI1NiJ9.payload.signature"

	sealed, err := SealToken(token)
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "payload")

	opened, err := OpenToken(sealed)
	require.NoError(t, err)
	require.Equal(t, token, opened)
}

func TestSealProducesUniqueCiphertexts(t *testing.T) {
	t.Setenv("STOREFRONT_MASTER_KEY", "unit-test-master-key")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	a, err := SealToken("same-token")
	require.NoError(t, err)
	b, err := SealToken("same-token")
	require.NoError(t, err)

	// Random nonce per call, so identical plaintexts must not collide
	require.NotEqual(t, a, b)
}

func TestOpenRejectsTamperedData(t *testing.T) {
	t.Setenv("STOREFRONT_MASTER_KEY", "unit-test-master-key")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	sealed, err := SealToken("token-value")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = OpenToken(sealed)
	require.Error(t, err)
}

func TestOpenRejectsShortInput(t *testing.T) {
	t.Setenv("STOREFRONT_MASTER_KEY", "unit-test-master-key")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	_, err := OpenToken([]byte{0x01, 0x02})
	require.Error(t, err)
	require.Contains(t, err.Error(), "too short")
}

func TestMasterKeyFromFile(t *testing.T) {
	dir := t.TempDir()
	keyFile := dir + "/master.key"
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key-material"), 0o600))

	SetMasterKeyPath(keyFile)
	ResetMasterKeyForTesting()
	t.Cleanup(func() {
		SetMasterKeyPath("")
		ResetMasterKeyForTesting()
	})

	sealed, err := SealToken("token-from-file-key")
	require.NoError(t, err)

	opened, err := OpenToken(sealed)
	require.NoError(t, err)
	require.Equal(t, "token-from-file-key", opened)
}
