package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	enc, err := NewEncryptorFromBase64(key)
	require.NoError(t, err)
	return enc
}

func TestNewEncryptor(t *testing.T) {
	t.Run("valid key size", func(t *testing.T) {
		enc, err := NewEncryptor(make([]byte, 32))
		require.NoError(t, err)
		assert.NotNil(t, enc)
	})

	t.Run("key too short", func(t *testing.T) {
		enc, err := NewEncryptor(make([]byte, 16))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, enc)
	})

	t.Run("key too long", func(t *testing.T) {
		enc, err := NewEncryptor(make([]byte, 64))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, enc)
	})
}

func TestNewEncryptorFromBase64(t *testing.T) {
	t.Run("valid base64 key", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString(make([]byte, 32))
		enc, err := NewEncryptorFromBase64(encoded)
		require.NoError(t, err)
		assert.NotNil(t, enc)
	})

	t.Run("invalid base64", func(t *testing.T) {
		enc, err := NewEncryptorFromBase64("not-valid-base64!!!")
		assert.Error(t, err)
		assert.Nil(t, enc)
	})

	t.Run("valid base64 but wrong size", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString(make([]byte, 16))
		enc, err := NewEncryptorFromBase64(encoded)
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, enc)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	enc := newTestEncryptor(t)

	t.Run("round trip", func(t *testing.T) {
		plaintext := "bearer-token-12345"
		ciphertext, err := enc.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEmpty(t, ciphertext)
		assert.NotEqual(t, plaintext, ciphertext)

		decrypted, err := enc.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("empty string passes through", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("")
		require.NoError(t, err)
		assert.Empty(t, ciphertext)

		decrypted, err := enc.Decrypt("")
		require.NoError(t, err)
		assert.Empty(t, decrypted)
	})

	t.Run("unicode text", func(t *testing.T) {
		plaintext := "🔑 トークン テスト"
		ciphertext, err := enc.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := enc.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("unique ciphertexts for same plaintext", func(t *testing.T) {
		plaintext := "same-text"
		ciphertext1, err := enc.Encrypt(plaintext)
		require.NoError(t, err)
		ciphertext2, err := enc.Encrypt(plaintext)
		require.NoError(t, err)

		// Random nonce makes every encryption distinct
		assert.NotEqual(t, ciphertext1, ciphertext2)

		decrypted1, err := enc.Decrypt(ciphertext1)
		require.NoError(t, err)
		decrypted2, err := enc.Decrypt(ciphertext2)
		require.NoError(t, err)
		assert.Equal(t, decrypted1, decrypted2)
	})
}

func TestDecryptErrors(t *testing.T) {
	enc := newTestEncryptor(t)

	t.Run("invalid base64", func(t *testing.T) {
		_, err := enc.Decrypt("not-valid-base64!!!")
		assert.Error(t, err)
	})

	t.Run("ciphertext too short", func(t *testing.T) {
		shortData := base64.StdEncoding.EncodeToString([]byte("short"))
		_, err := enc.Decrypt(shortData)
		assert.ErrorIs(t, err, ErrCiphertextTooShort)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("secret")
		require.NoError(t, err)

		data, _ := base64.StdEncoding.DecodeString(ciphertext)
		data[len(data)-1] ^= 0xFF
		tampered := base64.StdEncoding.EncodeToString(data)

		_, err = enc.Decrypt(tampered)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong key", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("secret")
		require.NoError(t, err)

		other := newTestEncryptor(t)
		_, err = other.Decrypt(ciphertext)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestGenerateKey(t *testing.T) {
	t.Run("generates usable key", func(t *testing.T) {
		encodedKey, err := GenerateKey()
		require.NoError(t, err)
		assert.NotEmpty(t, encodedKey)

		enc, err := NewEncryptorFromBase64(encodedKey)
		require.NoError(t, err)
		assert.NotNil(t, enc)
	})

	t.Run("generates unique keys", func(t *testing.T) {
		key1, _ := GenerateKey()
		key2, _ := GenerateKey()
		assert.NotEqual(t, key1, key2)
	})
}
