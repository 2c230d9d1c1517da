package console

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

var quitWords = []string{"q", "quit", "exit"}

// input replaces the terminal when set; lines are then read without
// line editing.
var input io.ReadCloser

func SetInput(r io.ReadCloser) {
	input = r
}

// Shell reads lines until EOF, Ctrl-C or a quit word and passes every
// non-empty line to handle. A handler error is printed and the loop goes on.
func Shell(prompt string, handle func(line string) error) error {
	cfg := &readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          writer,
		Stderr:          errWriter,
	}
	if input != nil {
		cfg.Stdin = input
		cfg.FuncIsTerminal = func() bool { return false }
		cfg.FuncMakeRaw = func() error { return nil }
		cfg.FuncExitRaw = func() error { return nil }
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isQuit(line) {
			return nil
		}
		if err := handle(line); err != nil {
			Errorf("%s", err)
		}
	}
}

func isQuit(line string) bool {
	normalized := strings.ToLower(line)
	for _, w := range quitWords {
		if normalized == w {
			return true
		}
	}
	return false
}
