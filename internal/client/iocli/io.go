// Package iocli is the console the client CLI talks through.
package iocli

//go:generate moq -out io_mock.go . IO

// IO reads commands and secrets from the user and prints results.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	// Interactive reports whether input comes from a terminal
	Interactive() bool
	Write(p []byte) (n int, err error)
}
