package utils

import (
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/0xRadioAc7iv/go-kvs/internal"
)

// CLIInputs holds the global flags of the kvs command and the remaining
// positional arguments.
type CLIInputs struct {
	ConfigPath string
	Args       []string

	dir      string
	sync     bool
	lock     bool
	logLevel string
	set      map[string]bool
}

// HandleCLIInputs parses the global flags from args (without the program
// name). Usage output goes to stderr.
func HandleCLIInputs(args []string, stderr io.Writer) (*CLIInputs, error) {
	in := &CLIInputs{set: make(map[string]bool)}

	fs := flag.NewFlagSet("kvs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&in.ConfigPath, "config", os.Getenv(internal.ConfigEnv), "YAML config file (default $"+internal.ConfigEnv+")")
	fs.StringVar(&in.dir, "dir", "", "Store directory (default: working directory)")
	fs.BoolVar(&in.sync, "sync", false, "fsync the segment after every write")
	fs.BoolVar(&in.lock, "lock", false, "Hold an exclusive lock on the store directory")
	fs.StringVar(&in.logLevel, "log-level", internal.DEFAULT_LOG_LEVEL, "Log level (debug, info, warn, error)")
	fs.Usage = func() {
		io.WriteString(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		in.set[f.Name] = true
	})
	in.Args = fs.Args()

	return in, nil
}

// ApplyTo overrides cfg with the flags that were given explicitly.
func (in *CLIInputs) ApplyTo(cfg *internal.Config) {
	if in.set["dir"] {
		cfg.Dir = in.dir
	}
	if in.set["sync"] {
		cfg.SyncOnWrite = in.sync
	}
	if in.set["lock"] {
		cfg.LockDirectory = in.lock
	}
	if in.set["log-level"] {
		cfg.LogLevel = in.logLevel
	}
}

// SplitStringIntoCommandAndArguments splits one shell-style input line into
// a lower-cased command and its arguments. Quoting follows POSIX shell
// rules, so values may contain spaces:
//
//	set city "new york"
func SplitStringIntoCommandAndArguments(line string) (string, []string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", nil, err
	}

	if len(words) == 0 {
		return "", nil, errors.New("empty command")
	}

	return strings.ToLower(words[0]), words[1:], nil
}

const usage = `Usage: kvs [flags] <command> [arguments]

Commands:
  set <key> <value>   Store a value for the given key
  get <key>           Print the value for the key, or "Key not found"
  rm <key>            Remove the key
  keys                List all live keys
  stats               Print store metrics
  rotate              Start a new segment for writes
  export <file>       Write a compressed snapshot of all live keys
  import <file>       Load a snapshot written by export
  shell               Read commands interactively from stdin

Flags:
`
