package main

import (
	"os"

	"github.com/chzyer/readline"
)

// lineReader is the minimal surface runREPL needs, satisfied by
// *readline.Instance; kept as an interface so tests could swap in a
// scripted reader without touching a terminal.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

func newLineReader() (lineReader, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          "loom> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.loom_history"
}
