package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/0xRadioAc7iv/go-kvs/core"
	"github.com/0xRadioAc7iv/go-kvs/internal"
	"github.com/0xRadioAc7iv/go-kvs/internal/metrics"
	"github.com/0xRadioAc7iv/go-kvs/internal/snapshot"
	"github.com/0xRadioAc7iv/go-kvs/internal/utils"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

// arity is the number of arguments each command takes.
var arity = map[string]int{
	"set":    2,
	"get":    1,
	"rm":     1,
	"keys":   0,
	"stats":  0,
	"rotate": 0,
	"export": 1,
	"import": 1,
	"shell":  0,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	in, err := utils.HandleCLIInputs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if len(in.Args) == 0 {
		fmt.Fprintln(stderr, "missing command, see kvs -h")
		return exitUsage
	}

	cmd := strings.ToLower(in.Args[0])
	if err := checkArity(cmd, in.Args[1:]); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := internal.LoadConfig(in.ConfigPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
	in.ApplyTo(cfg)

	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitUsage
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	dir, err := cfg.ResolveDir()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}

	collector := metrics.New()
	store, err := core.Open(dir,
		core.WithLogger(logger),
		core.WithMetrics(collector),
		core.WithSyncOnWrite(cfg.SyncOnWrite),
		core.WithDirectoryLock(cfg.LockDirectory),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s: %v\n", core.Kind(err), err)
		return exitError
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store failed", "error", err)
		}
	}()

	a := &app{store: store, metrics: collector, stdout: stdout}

	if cmd == "shell" {
		return a.shell(stdin, stderr)
	}

	if err := a.execute(cmd, in.Args[1:]); err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			fmt.Fprintln(stdout, "Key not found")
			return exitError
		}
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}

	return exitOK
}

func checkArity(cmd string, args []string) error {
	n, ok := arity[cmd]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", errUsage, cmd, n, len(args))
	}
	return nil
}

type app struct {
	store   *core.Store
	metrics *metrics.Collector
	stdout  io.Writer
}

func (a *app) execute(cmd string, args []string) error {
	switch cmd {
	case "set":
		return a.store.Set(args[0], args[1])
	case "get":
		return a.get(args[0])
	case "rm":
		return a.store.Remove(args[0])
	case "keys":
		for _, key := range a.store.Keys() {
			fmt.Fprintln(a.stdout, key)
		}
		return nil
	case "stats":
		return a.stats()
	case "rotate":
		gen, err := a.store.RotateSegment()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, core.SegmentFileName(gen))
		return nil
	case "export":
		return a.export(args[0])
	case "import":
		return a.importFile(args[0])
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) get(key string) error {
	value, ok, err := a.store.Get(key)
	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintln(a.stdout, "Key not found")
		return nil
	}

	fmt.Fprintln(a.stdout, value)
	return nil
}

func (a *app) stats() error {
	fmt.Fprintf(a.stdout, "dir\t%s\n", a.store.Dir())
	fmt.Fprintf(a.stdout, "keys\t%d\n", a.store.Len())
	fmt.Fprintf(a.stdout, "segments\t%d\n", len(a.store.Generations()))
	fmt.Fprintf(a.stdout, "active\t%s\n", core.SegmentFileName(a.store.Generation()))

	samples, err := a.metrics.Snapshot()
	if err != nil {
		return err
	}

	for _, s := range samples {
		fmt.Fprintf(a.stdout, "%s%s\t%g\n", s.Name, formatLabels(s.Labels), s.Value)
	}
	return nil
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	// operation and status are the only labels the collector uses
	parts := make([]string, 0, len(labels))
	for _, name := range []string{"operation", "status"} {
		if v, ok := labels[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%q", name, v))
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (a *app) export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	n, err := snapshot.Export(a.store, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "exported %d keys\n", n)
	return nil
}

func (a *app) importFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := snapshot.Import(a.store, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "imported %d keys\n", n)
	return nil
}

// shell runs commands read line by line from stdin until EOF or "exit".
func (a *app) shell(stdin io.Reader, stderr io.Writer) int {
	fmt.Fprintf(a.stdout, "Opened %s\n", a.store.Dir())
	fmt.Fprintln(a.stdout, "Type commands. 'help' for information or 'exit' to quit.")

	reader := bufio.NewReader(stdin)

	for {
		fmt.Fprint(a.stdout, "> ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err != io.EOF {
				fmt.Fprintln(stderr, "input error:", err)
				return exitError
			}
			fmt.Fprintln(a.stdout)
			return exitOK
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if line == "exit" {
			return exitOK
		}

		cmd, args, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Fprintln(a.stdout, "parse error:", err)
			continue
		}

		if cmd == "help" {
			fmt.Fprint(a.stdout, shellHelp)
			continue
		}

		if cmd == "shell" {
			fmt.Fprintln(a.stdout, "already in a shell")
			continue
		}

		if err := checkArity(cmd, args); err != nil {
			fmt.Fprintln(a.stdout, err)
			continue
		}

		if err := a.execute(cmd, args); err != nil {
			if errors.Is(err, core.ErrKeyNotFound) {
				fmt.Fprintln(a.stdout, "Key not found")
				continue
			}
			fmt.Fprintln(a.stdout, "Error:", err)
		}
	}
}

const shellHelp = `Available Commands:

SET <key> <value>
  Store a value for the given key. Quote values containing spaces.

GET <key>
  Print the value, or "Key not found".

RM <key>
  Remove the key.

KEYS
  List all live keys.

STATS
  Show store metrics.

ROTATE
  Start a new segment for writes.

EXPORT <file> / IMPORT <file>
  Write or load a compressed snapshot of all live keys.

EXIT
  Leave the shell.
`
