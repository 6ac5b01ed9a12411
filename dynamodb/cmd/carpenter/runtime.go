package main

import (
	"fmt"

	"github.com/acksell/carpenter/dynamodb/localrt"
	"github.com/spf13/cobra"
)

func (a *app) dynamoUpCmd() *cobra.Command {
	var (
		gui    bool
		name   string
		binary string
	)
	cmd := &cobra.Command{
		Use:   "dynamo-up",
		Short: "Start DynamoDB Local in a container",
		Long: `Start DynamoDB Local in a detached container published on --port.
With --gui the image bundling the dynamo-local-admin web UI is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := localrt.NewService(a.cfg.Port, gui)
			svc.Name = name
			if err := a.newRuntime(binary, a.logger).Start(cmd.Context(), svc); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Local DynamoDB %s listening on port %d\n", svc.Name, svc.Port)
			return nil
		},
	}
	cmd.Flags().BoolVar(&gui, "gui", false, "use "+localrt.ImageAdmin)
	cmd.Flags().StringVar(&name, "name", localrt.DefaultName, "container name")
	cmd.Flags().StringVar(&binary, "runtime", "docker", "docker compatible CLI to run the container with")
	return cmd
}

func (a *app) dynamoDownCmd() *cobra.Command {
	var name, binary string
	cmd := &cobra.Command{
		Use:   "dynamo-down",
		Short: "Stop the DynamoDB Local container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.newRuntime(binary, a.logger).Stop(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Local DynamoDB %s stopped\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", localrt.DefaultName, "container name")
	cmd.Flags().StringVar(&binary, "runtime", "docker", "docker compatible CLI to run the container with")
	return cmd
}
