package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// KeyFileName is the name of the AES key file inside the key directory.
const KeyFileName = "key.bin"

const keySize = 32

// ErrInvalidCiphertext is returned when a value cannot be decrypted with the key.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Keyring encrypts configuration secrets with an AES-256-GCM key kept in a
// file next to the configuration.
type Keyring struct {
	keyPath string
}

// NewKeyring returns a keyring whose key lives in dir. The key file is
// created on first use.
func NewKeyring(dir string) *Keyring {
	return &Keyring{keyPath: filepath.Join(dir, KeyFileName)}
}

// KeyPath returns the location of the key file.
func (k *Keyring) KeyPath() string {
	return k.keyPath
}

// loadOrCreateKey reads the key, generating and saving a new one if the file
// does not exist yet.
func (k *Keyring) loadOrCreateKey() ([]byte, error) {
	key, err := os.ReadFile(k.keyPath)
	if err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("invalid key size: expected %d bytes, got %d", keySize, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read key file: %w", err)
	}

	key = make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("could not generate random key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(k.keyPath), 0755); err != nil {
		return nil, fmt.Errorf("could not create key directory: %w", err)
	}
	// Owner-only permissions
	if err := os.WriteFile(k.keyPath, key, 0600); err != nil {
		return nil, fmt.Errorf("could not write key file: %w", err)
	}
	return key, nil
}

func (k *Keyring) gcm() (cipher.AEAD, error) {
	key, err := k.loadOrCreateKey()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("could not create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext and returns it base64 encoded for JSON storage.
// The empty string stays empty.
func (k *Keyring) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	gcm, err := k.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("could not generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (k *Keyring) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	gcm, err := k.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}
	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return string(plaintext), nil
}

// DecryptOrPlain decrypts value, returning it unchanged when it is not a
// ciphertext of this keyring (plain values typed into config.json or .env).
func (k *Keyring) DecryptOrPlain(value string) (string, error) {
	plain, err := k.Decrypt(value)
	if errors.Is(err, ErrInvalidCiphertext) {
		return value, nil
	}
	return plain, err
}
