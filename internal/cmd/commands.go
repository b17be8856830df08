package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/helpdeskhq/helpdesk/internal/cmd/base"
	"github.com/helpdeskhq/helpdesk/internal/cmd/commands/consume"
	"github.com/helpdeskhq/helpdesk/internal/cmd/commands/operator"
	"github.com/helpdeskhq/helpdesk/internal/cmd/commands/serve"
	"github.com/helpdeskhq/helpdesk/internal/cmd/commands/version"
)

// Commands is the mapping of all available helpdesk commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: b}, nil
		},
		"consume": func() (cli.Command, error) {
			return &consume.Command{Command: b}, nil
		},
		"operator": func() (cli.Command, error) {
			return &operator.Command{Command: b}, nil
		},
		"operator seed-preferences": func() (cli.Command, error) {
			return &operator.SeedPreferencesCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
