// Command flowdag is the CLI entrypoint for the workflow engine: run a
// workflow locally, serve it behind a webhook, or operate it in
// distributed coordinator/worker mode (spec §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flowdag",
		Short: "Run and orchestrate declarative YAML workflows",
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newCoordinatorCommand())
	cmd.AddCommand(newWorkerCommand())
	cmd.AddCommand(newSubmitCommand())

	return cmd
}
