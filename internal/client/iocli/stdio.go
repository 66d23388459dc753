package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio is the IO of a process attached to a console.
type Stdio struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

// NewStdio returns an IO over os.Stdin and os.Stdout.
func NewStdio() IO {
	return NewFile(os.Stdin, os.Stdout)
}

// NewFile returns an IO reading from in and writing to out.
func NewFile(in *os.File, out io.Writer) *Stdio {
	return &Stdio{in: in, out: out, reader: bufio.NewReader(in)}
}

func (s *Stdio) Println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// ReadInput reads one line. The last line may end without a newline.
func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	// Один reader на все вызовы: иначе буферизованный ввод теряется
	input, err := s.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadPassword reads a line without echo when input is a terminal.
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	if !s.Interactive() {
		return s.ReadInput(prompt)
	}
	s.Printf("%s", prompt)
	pwBytes, err := term.ReadPassword(int(s.in.Fd()))
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

func (s *Stdio) Interactive() bool {
	return term.IsTerminal(int(s.in.Fd()))
}
