package keyring

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/near/borsh-go"
)

// Decode deserializes a keyring and checks its version
func Decode(keyringBytes []byte) (*Keyring, error) {
	var kr Keyring
	if err := borsh.Deserialize(&kr, keyringBytes); err != nil {
		return nil, fmt.Errorf("failed to deserialize keyring: %w", err)
	}
	if kr.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported keyring version %d, expected %d", kr.Version, CurrentVersion)
	}
	return &kr, nil
}

// DecodeFromFile decodes a keyring from a binary file and returns it with the raw bytes
func DecodeFromFile(filePath string) (*Keyring, []byte, error) {
	keyringBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	kr, err := Decode(keyringBytes)
	if err != nil {
		return nil, nil, err
	}
	return kr, keyringBytes, nil
}

// DecodeFromBase64 decodes a base64-encoded keyring and returns it with the raw bytes
func DecodeFromBase64(keyringB64 string) (*Keyring, []byte, error) {
	keyringBytes, err := base64.StdEncoding.DecodeString(keyringB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	kr, err := Decode(keyringBytes)
	if err != nil {
		return nil, nil, err
	}
	return kr, keyringBytes, nil
}

// Encode serializes a keyring
func Encode(kr *Keyring) ([]byte, error) {
	b, err := borsh.Serialize(*kr)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize keyring: %w", err)
	}
	return b, nil
}

// WriteFile encodes a keyring to filePath
func WriteFile(filePath string, kr *Keyring) ([]byte, error) {
	b, err := Encode(kr)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filePath, b, 0644); err != nil {
		return nil, fmt.Errorf("failed to write keyring: %w", err)
	}
	return b, nil
}
