package maincmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/mna/mainer"
)

func (c *Cmd) Modules(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if c.registry == nil {
		return printError(stdio, errors.New("module registry unavailable"))
	}
	entries, err := c.registry.List()
	if err != nil {
		return printError(stdio, err)
	}

	tw := tabwriter.NewWriter(stdio.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Version, e.ID)
	}
	return tw.Flush()
}
