package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eris/internal/ipc"
)

func newRecognitionCommand(ctx *commandContext) *cobra.Command {
	recognitionCmd := &cobra.Command{
		Use:   "recognition",
		Short: "Pause or resume window title recognition in the running daemon",
		Long: "Toggles recognition until the daemon restarts or the config file changes. " +
			"Set recognition.enabled in the config to make it permanent.",
	}
	recognitionCmd.AddCommand(newRecognitionToggleCommand(ctx, "on", "Resume recognition", true))
	recognitionCmd.AddCommand(newRecognitionToggleCommand(ctx, "off", "Pause recognition and clear the reading session", false))
	return recognitionCmd
}

func newRecognitionToggleCommand(ctx *commandContext, use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDaemon(func(client *ipc.Client) error {
				now, err := client.SetEnabled(cmd.Context(), enabled)
				if err != nil {
					return err
				}
				state := "paused"
				if now {
					state = "running"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recognition %s\n", state)
				return nil
			})
		},
	}
}
