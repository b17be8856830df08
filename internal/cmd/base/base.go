// Package base holds what every helpdesk CLI command shares.
package base

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every command.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger
}

// NewCommand returns a Command writing to ui and logging to log.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		UI:  ui,
		Log: log,
	}
}

// ShutdownContext returns a context canceled on SIGINT or SIGTERM.
func (c *Command) ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// FlagSet wraps a standard flag set with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Flag output is discarded so parse errors are reported
// once through the UI.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(nopWriter{})
	return &FlagSet{FlagSet: f}
}

// Help renders the flags in the usage text format of the CLI.
func (f *FlagSet) Help() string {
	var flags []*flag.Flag
	f.VisitAll(func(fl *flag.Flag) {
		flags = append(flags, fl)
	})
	if len(flags) == 0 {
		return ""
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })

	var b strings.Builder
	b.WriteString("\n\nOptions:\n")
	for _, fl := range flags {
		if fl.DefValue != "" {
			fmt.Fprintf(&b, "\n  -%s=%s\n", fl.Name, fl.DefValue)
		} else {
			fmt.Fprintf(&b, "\n  -%s\n", fl.Name)
		}
		fmt.Fprintf(&b, "      %s\n", fl.Usage)
	}
	return b.String()
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
