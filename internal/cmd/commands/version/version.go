package version

import (
	"github.com/helpdeskhq/helpdesk/internal/cmd/base"
	"github.com/helpdeskhq/helpdesk/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version of the binary"
}

func (c *Command) Help() string {
	return `Usage: helpdesk version

  Print the version of the binary.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.String())
	return 0
}
