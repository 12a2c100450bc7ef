package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"skidoodle/spotify-admute/internal/config"
)

// Prompter asks the user a yes/no question. Confirm blocks until the user answers
// or ctx is done, which counts as no.
type Prompter interface {
	Confirm(ctx context.Context, title, message string) bool
}

// NewPrompter returns the Prompter for a config prompt mode.
func NewPrompter(mode string, in io.Reader, out io.Writer) Prompter {
	switch mode {
	case config.PromptYes:
		return FixedPrompter(true)
	case config.PromptNo:
		return FixedPrompter(false)
	default:
		return NewTerminalPrompter(in, out)
	}
}

// FixedPrompter always gives the same answer.
type FixedPrompter bool

func (p FixedPrompter) Confirm(context.Context, string, string) bool {
	return bool(p)
}

// TerminalPrompter reads answers line by line. A single goroutine reads the input
// for the life of the process, so a question abandoned on ctx does not lose the
// next answer. Lines typed before a question was asked are discarded.
type TerminalPrompter struct {
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan inputLine
	mu    sync.Mutex
}

type inputLine struct {
	text string
	at   time.Time
}

// NewTerminalPrompter creates a TerminalPrompter.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:    in,
		out:   out,
		lines: make(chan inputLine),
	}
}

func (p *TerminalPrompter) Confirm(ctx context.Context, title, message string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	asked := time.Now()
	fmt.Fprintf(p.out, "\n%s: %s [y/N] ", title, message)
	p.once.Do(func() {
		go p.read()
	})

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.out)
			return false
		case line, ok := <-p.lines:
			if !ok {
				return false
			}
			if line.at.Before(asked) {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(line.text)) {
			case "y", "yes":
				return true
			case "", "n", "no":
				return false
			}
			fmt.Fprint(p.out, "Please answer y or n: ")
		}
	}
}

func (p *TerminalPrompter) read() {
	defer close(p.lines)

	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- inputLine{text: scanner.Text(), at: time.Now()}
	}
}
