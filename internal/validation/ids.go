package validation

import (
	"errors"
	"fmt"
	"regexp"
)

// IDPattern определяет допустимый формат идентификаторов баз и значений:
// латинские буквы, цифры и символы _ . : / -
var IDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:/-]+$`)

const (
	// MaxIDLen максимальная длина идентификатора
	MaxIDLen = 128
)

// ErrInvalidID is returned for malformed database or value identifiers.
var ErrInvalidID = errors.New("invalid identifier")

// ValidateDatabaseID проверяет идентификатор базы
func ValidateDatabaseID(id string) error {
	return validate("database id", id)
}

// ValidateValueID проверяет идентификатор значения
func ValidateValueID(id string) error {
	return validate("value id", id)
}

func validate(what, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidID, what)
	}
	if len(id) > MaxIDLen {
		return fmt.Errorf("%w: %s must not exceed %d characters", ErrInvalidID, what, MaxIDLen)
	}
	if !IDPattern.MatchString(id) {
		return fmt.Errorf("%w: %s can only contain letters, numbers and _ . : / -", ErrInvalidID, what)
	}
	return nil
}
