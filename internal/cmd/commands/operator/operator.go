package operator

import (
	"github.com/mitchellh/cli"

	"github.com/helpdeskhq/helpdesk/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Perform operator-specific tasks"
}

func (c *Command) Help() string {
	return `Usage: helpdesk operator <subcommand> [options] [args]

  This command groups subcommands for operators of the helpdesk services.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
