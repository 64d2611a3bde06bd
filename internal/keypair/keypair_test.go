package keypair

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func newSecret(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestLoad_JSONArray(t *testing.T) {
	pub, priv := newSecret(t)
	data, err := Encode(priv)
	require.NoError(t, err)

	acc, err := Load(writeKeyFile(t, data))
	require.NoError(t, err)

	assert.Equal(t, []byte(pub), acc.PublicKey.Bytes())
	assert.Equal(t, base58.Encode(pub), acc.PublicKey.ToBase58())
}

func TestLoad_Base58String(t *testing.T) {
	pub, priv := newSecret(t)
	data := []byte(`"` + base58.Encode(priv) + `"`)

	acc, err := Load(writeKeyFile(t, data))
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), acc.PublicKey.Bytes())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	assert.Error(t, err)
}

func TestParse_WrongLength(t *testing.T) {
	_, priv := newSecret(t)
	data, err := Encode(priv[:32])
	require.NoError(t, err)

	_, err = Parse(data)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestParse_OutOfRangeByte(t *testing.T) {
	_, err := Parse([]byte("[1, 2, 256]"))
	assert.ErrorIs(t, err, ErrInvalidByte)
}

func TestParse_PublicKeyMismatch(t *testing.T) {
	_, priv := newSecret(t)
	otherPub, _ := newSecret(t)

	secret := make([]byte, 64)
	copy(secret, priv[:32])
	copy(secret[32:], otherPub)

	data, err := Encode(secret)
	require.NoError(t, err)

	_, err = Parse(data)
	assert.ErrorIs(t, err, ErrPublicKeyMismatch)
}

func TestValidate(t *testing.T) {
	_, priv := newSecret(t)
	assert.NoError(t, Validate(priv))
	assert.ErrorIs(t, Validate(make([]byte, 10)), ErrInvalidLength)
}
