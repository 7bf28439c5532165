// Package cli parses the prereqgraph command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gyaneshwarpardhi/prereqgraph/internal/config"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Options is the parsed command line. Zero values mean "use the config".
type Options struct {
	ConfigPath string
	Workers    int
	Refresh    bool
	Select     string
	Export     string
	Out        string
	Serve      string
	LogLevel   string
	LogFormat  string

	Subtree string
	Seeds   []string
}

// Parse processes args. It returns the options, whether the program should
// exit cleanly (help or missing subtree), or an *ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	fs := flag.NewFlagSet("prereqgraph", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
prereqgraph - crawl a course catalog into a prerequisite graph.

Usage:
  prereqgraph [options] SUBTREE [SEED ...]

Arguments:
  SUBTREE
    Catalog subtree to crawl, e.g. "matnat/math" or "alle/uio" for every faculty.
  SEED
    Course codes to prune the graph around.

Options:
`)
		fs.PrintDefaults()
	}

	o := &Options{}
	fs.StringVar(&o.ConfigPath, "config", "", "Path to a YAML config file. Built-in defaults when empty.")
	fs.IntVar(&o.Workers, "workers", 0, "Enrichment workers. 0 uses crawler.workers from the config.")
	fs.BoolVar(&o.Refresh, "refresh", false, "Ignore a stored snapshot and crawl again.")
	fs.StringVar(&o.Select, "select", "", `Filter expression whose matches become extra seeds, e.g. 'code matches "^MAT"'.`)
	fs.StringVar(&o.Export, "export", "", "Export format: dot, json or neo4j.")
	fs.StringVar(&o.Out, "out", "", "Export destination file. Stdout when empty.")
	fs.StringVar(&o.Serve, "serve", "", "Serve the query API on this address, e.g. ':8080'.")
	fs.StringVar(&o.LogLevel, "log-level", "", "Logging level: debug, info, warn or error.")
	fs.StringVar(&o.LogFormat, "log-format", "", "Log output format: text or json.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return nil, true, nil
	}
	o.Subtree = strings.Trim(fs.Arg(0), "/")
	o.Seeds = fs.Args()[1:]
	if o.Subtree == "" {
		return nil, false, &ExitError{Code: 2, Message: "subtree must not be empty"}
	}

	o.LogLevel = strings.ToLower(o.LogLevel)
	switch o.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	o.LogFormat = strings.ToLower(o.LogFormat)
	if o.LogFormat != "" && o.LogFormat != "text" && o.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	if o.Workers < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid workers: must be >= 0"}
	}
	return o, false, nil
}

// Apply overrides cfg with every flag that was set.
func (o *Options) Apply(cfg *config.Config) {
	if o.Workers > 0 {
		cfg.Crawler.Workers = o.Workers
	}
	if o.Select != "" {
		cfg.Prune.Select = o.Select
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	cfg.Prune.Seeds = append(cfg.Prune.Seeds, o.Seeds...)
}
