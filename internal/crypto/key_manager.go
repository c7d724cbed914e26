package crypto

import (
	"encoding/base64"
	"errors"
	"os"
)

var (
	ErrMasterKeyNotSet  = errors.New("master key not set in environment")
	ErrInvalidMasterKey = errors.New("invalid master key: must be base64 of 32 bytes")
)

// KeyManager encrypts and decrypts provider API credentials with the
// process master key. Plaintext keys exist only in memory, on the way to a
// connection test; the database only ever sees ciphertext.
type KeyManager struct {
	masterKey []byte
}

// NewKeyManager reads the master key from the MASTER_KEY environment
// variable (base64, 32 bytes decoded).
func NewKeyManager() (*KeyManager, error) {
	masterKeyB64 := os.Getenv("MASTER_KEY")
	if masterKeyB64 == "" {
		return nil, ErrMasterKeyNotSet
	}

	masterKey, err := base64.StdEncoding.DecodeString(masterKeyB64)
	if err != nil || len(masterKey) != 32 {
		return nil, ErrInvalidMasterKey
	}

	return &KeyManager{masterKey: masterKey}, nil
}

// NewKeyManagerWithKey builds a KeyManager from an explicit key. Used by
// tests and tooling that provision their own key material.
func NewKeyManagerWithKey(masterKey []byte) (*KeyManager, error) {
	if len(masterKey) != 32 {
		return nil, ErrInvalidMasterKey
	}
	return &KeyManager{masterKey: masterKey}, nil
}

// EncryptAPIKey encrypts a plaintext provider API key for storage.
func (km *KeyManager) EncryptAPIKey(apiKey string) (string, error) {
	return Encrypt(apiKey, km.masterKey)
}

// DecryptAPIKey recovers the plaintext provider API key.
func (km *KeyManager) DecryptAPIKey(encrypted string) (string, error) {
	return Decrypt(encrypted, km.masterKey)
}
