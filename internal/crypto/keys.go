package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// KeySize - длина выходного ключа в байтах
	KeySize = 32
	// SaltSize - размер соли в байтах
	SaltSize = 32
)

var (
	// ErrEmptySecret is returned when a key is derived from an empty secret.
	ErrEmptySecret = errors.New("secret cannot be empty")
	// ErrInvalidSalt is returned when the salt has the wrong size.
	ErrInvalidSalt = fmt.Errorf("salt must be %d bytes", SaltSize)
)

// Контексты разделяют ключи, полученные из одного секрета
const (
	ticketContext  = "syncstore/ticket"
	storageContext = "syncstore/storage"
)

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateSaltBase64 генерирует соль и возвращает ее в Base64
func GenerateSaltBase64() (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DecodeSalt decodes a Base64 salt and checks its size.
func DecodeSalt(saltBase64 string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	if len(salt) != SaltSize {
		return nil, ErrInvalidSalt
	}
	return salt, nil
}

// DeriveTicketKey derives the HMAC key that signs session tickets from the
// server secret.
func DeriveTicketKey(secret string, salt []byte) ([]byte, error) {
	return derive(secret, ticketContext, salt)
}

// DeriveStorageKey derives the key that seals values persisted by a client.
func DeriveStorageKey(passphrase string, salt []byte) ([]byte, error) {
	return derive(passphrase, storageContext, salt)
}

func derive(secret, context string, salt []byte) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSalt, len(salt))
	}
	input := append([]byte(secret), context...)
	return argon2.IDKey(input, salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize), nil
}
