package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// ErrDecrypt is returned when a ciphertext cannot be decrypted, either
// because the key or IV is wrong or because the data is corrupted.
var ErrDecrypt = errors.New("decryption failed")

// GenerateKey creates a new random 32-byte AES-256 key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateIV creates a new random initialization vector for AES encryption.
func GenerateIV() ([]byte, error) {
	iv := make([]byte, aes.BlockSize) // 16 bytes for AES
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// DeriveKey produces a 32-byte key from a master secret and a salt using a
// single SHA-512 hash of master || salt, truncated to the AES-256 key size.
// Changing the derivation would orphan existing ciphertext; a move to a slow
// KDF (PBKDF2, Argon2) is recorded in DESIGN.md.
func DeriveKey(masterSecret, salt string) []byte {
	sum := sha512.Sum512([]byte(masterSecret + salt))
	return sum[:KeySize]
}

// Encrypt encrypts data with AES-256-CBC under a freshly generated IV,
// padding the plaintext to the block size with PKCS#7. It returns the
// ciphertext and the IV it used. CBC provides confidentiality only, not
// integrity; see DESIGN.md for the recorded AEAD deviation.
func Encrypt(plaintext, key []byte) (ciphertext, iv []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	iv, err = GenerateIV()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	padded, err := pkcs7Pad(plaintext, block.BlockSize())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pad data: %w", err)
	}

	ciphertext = make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)

	return ciphertext, iv, nil
}

// Decrypt reverses Encrypt: AES-256-CBC decryption followed by PKCS#7
// unpadding. Any structural failure is reported as ErrDecrypt so callers can
// treat wrong-key, wrong-IV and corrupted-data cases uniformly.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("%w: IV is not one block long", ErrDecrypt)
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrDecrypt)
	}

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, block.BlockSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return unpadded, nil
}

// --- PKCS#7 Padding Helpers ---

func pkcs7Pad(data []byte, blockSize int) ([]byte, error) {
	if blockSize <= 0 {
		return nil, errors.New("invalid block size")
	}
	padding := blockSize - (len(data) % blockSize)
	padText := bytes.Repeat([]byte{byte(padding)}, padding)
	return append(data, padText...), nil
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if blockSize <= 0 {
		return nil, errors.New("invalid block size")
	}
	if len(data) == 0 {
		return nil, errors.New("cannot unpad empty data")
	}
	if len(data)%blockSize != 0 {
		return nil, errors.New("data is not block-aligned")
	}
	padding := int(data[len(data)-1])
	if padding > blockSize || padding == 0 {
		return nil, errors.New("invalid padding")
	}
	for i := 0; i < padding; i++ {
		if int(data[len(data)-1-i]) != padding {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}
