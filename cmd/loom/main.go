package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wudi/loom/core"
	"github.com/wudi/loom/vm"
)

// fileLoader resolves System.importModule_(_)'s module name to the file
// name+".loom", relative to the process's working directory (not to the
// importing script's directory), the simplest ModuleLoader that
// satisfies spec.md section 4.11 without inventing a package manager.
type fileLoader struct{}

func (fileLoader) Load(name string) (string, error) {
	data, err := os.ReadFile(name + ".loom")
	if err != nil {
		return "", fmt.Errorf("module %q not found: %w", name, err)
	}
	return string(data), nil
}

func main() {
	app := &cli.Command{
		Name:  "loom",
		Usage: "A dynamically-typed, class-based scripting language",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "eval",
				Aliases: []string{"e"},
				Usage:   "Run <code> instead of a file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if code := cmd.String("eval"); code != "" {
				return runSource("<eval>", code)
			}
			if cmd.Args().Len() > 0 {
				return runFile(cmd.Args().First())
			}
			return runREPL()
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		os.Exit(1)
	}
}

func runFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return runSource(path, string(data))
}

func runSource(name, source string) error {
	v := vm.New(fileLoader{}, os.Stdout)
	if err := core.Bootstrap(v); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer v.Teardown()
	return v.Execute(name, source)
}

func runREPL() error {
	v := vm.New(fileLoader{}, os.Stdout)
	if err := core.Bootstrap(v); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer v.Teardown()

	rl, err := newLineReader()
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("loom REPL -- Ctrl-D to exit")
	// Every line compiles and runs against the same "<repl>" module, so
	// var/fun/class declarations persist across lines -- a line that
	// redeclares a name already bound to a non-placeholder value hits the
	// compiler's usual "already defined" error, same as a one-shot script
	// that declared the same module variable twice.
	for {
		input, err := rl.Readline()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if input == "" {
			continue
		}
		if err := v.Execute("<repl>", input); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
