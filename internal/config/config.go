// Package config resolves the process-level configuration for logserv:
// listen port, file-search root, and (for aggregator mode) the peer list.
// It is the only package that reads flags, the environment, or the working
// directory — every other package receives values taken from the resulting
// Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
)

const (
	// DefaultPort is the TCP port logserv listens on when --port is not
	// given.
	DefaultPort = 1065
	// HostsEnvVar is the environment variable consulted when --hosts is
	// not supplied on the command line.
	HostsEnvVar = "HOSTS"
)

// Config is the fully resolved process configuration.
type Config struct {
	Port  int
	Root  string
	Hosts []string // empty => local mode
	Debug bool
}

// Aggregator reports whether this process should run in aggregator (peer
// fan-out) mode.
func (c Config) Aggregator() bool {
	return len(c.Hosts) > 0
}

// ParseResult distinguishes a normal run from a help request, letting main
// decide the exit code without Parse itself calling os.Exit.
type ParseResult struct {
	Config   Config
	ShowHelp bool
}

// UsageError marks a Parse failure caused by the command line itself (an
// unparseable flag, or one given a missing/invalid value) rather than an
// operational failure such as a getwd or path-resolution error. spec.md:173
// requires usage-on-stderr-and-exit-1 specifically for this class of
// failure; UsageError lets the caller (cmd/logserv) tell the two apart
// without inspecting error text.
type UsageError struct {
	err error
}

func (e *UsageError) Error() string { return e.err.Error() }
func (e *UsageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...interface{}) *UsageError {
	return &UsageError{err: fmt.Errorf(format, args...)}
}

// Parse processes args (normally os.Args[1:]) and the environment, and
// produces a Config. It never calls os.Exit; the caller (cmd/logserv) is
// responsible for translating a parse error or ShowHelp into an exit code,
// matching the out-of-scope "process entry point" boundary from the spec.
func Parse(args []string, env func(string) string, getwd func() (string, error)) (ParseResult, error) {
	fs := flag.NewFlagSet("logserv", flag.ContinueOnError)
	fs.Usage = func() {} // caller prints usage; silence pflag's own copy

	help := fs.BoolP("help", "h", false, "show usage and exit")
	hosts := fs.String("hosts", "", `semicolon-separated peer list, e.g. "host-a:1065;host-b:1065"`)
	port := fs.Int("port", DefaultPort, "TCP port to listen on")
	root := fs.String("root", "", "root directory for file resolution (default: process working directory)")
	debug := fs.Bool("debug", false, "enable debug-level logging")

	if err := fs.Parse(args); err != nil {
		return ParseResult{}, &UsageError{err: err}
	}

	if *help {
		return ParseResult{ShowHelp: true}, nil
	}

	hostStr := *hosts
	if fs.Changed("hosts") && strings.TrimSpace(hostStr) == "" {
		return ParseResult{}, usageErrorf("--hosts requires a non-empty value")
	}
	if !fs.Changed("hosts") {
		hostStr = env(HostsEnvVar)
	}

	cfg := Config{
		Port:  *port,
		Root:  *root,
		Debug: *debug,
		Hosts: splitHosts(hostStr),
	}

	if cfg.Root == "" {
		wd, err := getwd()
		if err != nil {
			return ParseResult{}, fmt.Errorf("resolving working directory: %w", err)
		}
		cfg.Root = wd
	}
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return ParseResult{}, fmt.Errorf("resolving root %q: %w", cfg.Root, err)
	}
	cfg.Root = filepath.Clean(abs)

	return ParseResult{Config: cfg}, nil
}

func splitHosts(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Usage writes a usage message to w, in the style of the teacher's
// flag.PrintDefaults-based usage() function.
func Usage(w *os.File) {
	fmt.Fprintf(w, "Usage of logserv:\n")
	fmt.Fprintf(w, "  --hosts string   semicolon-separated peer list; enables aggregator mode\n")
	fmt.Fprintf(w, "  --port int       TCP port to listen on (default %d)\n", DefaultPort)
	fmt.Fprintf(w, "  --root string    root directory for file resolution (default: working directory)\n")
	fmt.Fprintf(w, "  --debug          enable debug-level logging\n")
	fmt.Fprintf(w, "  -h, --help       show this message and exit\n")
}
