// ABOUTME: Line and password prompts for interactive commands
// ABOUTME: Hides typed passwords on a terminal and reads plain lines from pipes

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	w      io.Writer
}

func newPrompter(in io.Reader, w io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), w: w}
}

// line asks for one line of input.
func (p *prompter) line(prompt string) (string, error) {
	s, err := p.raw(prompt)
	return strings.TrimSpace(s), err
}

func (p *prompter) raw(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	s, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// secret asks for a password without echo when reading from a terminal.
func (p *prompter) secret(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.raw(prompt)
	}
	fmt.Fprint(p.w, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
