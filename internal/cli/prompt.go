package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks the user to pick one of options.
type Prompter interface {
	Select(label string, options []string) (string, bool)
}

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(question string) bool
}

// LinePrompt reads answers line by line, e.g. from stdin.
type LinePrompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompt(in io.Reader, out io.Writer) *LinePrompt {
	return &LinePrompt{in: bufio.NewReader(in), out: out}
}

// Select lists options numbered from 1 and accepts either the number or
// the option text, case-insensitively. An empty answer or end of input
// cancels.
func (p *LinePrompt) Select(label string, options []string) (string, bool) {
	fmt.Fprintln(p.out, label)
	for i, o := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, o)
	}
	for {
		fmt.Fprint(p.out, "> ")
		answer, ok := p.readLine()
		if !ok || answer == "" {
			return "", false
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		for _, o := range options {
			if strings.EqualFold(o, answer) {
				return o, true
			}
		}
		fmt.Fprintf(p.out, "Invalid choice %q.\n", answer)
	}
}

// Confirm accepts y or yes; anything else, including end of input, is no.
func (p *LinePrompt) Confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	answer, _ := p.readLine()
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

func (p *LinePrompt) readLine() (string, bool) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// AlwaysConfirm answers yes without asking, for --yes flags.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(string) bool { return true }
