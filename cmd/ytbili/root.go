package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:           "ytbili",
		Short:         "Republish YouTube videos to Bilibili with bilingual subtitles",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config.toml")

	for _, build := range []func(*commandContext) *cobra.Command{
		newSubmitCommand,
		newProcessCommand,
		newStatusCommand,
		newQueueCommand,
		newDaemonCommand,
		newDepsCommand,
		newBilibiliCommand,
		newTestNotifyCommand,
		newConfigCommand,
		newLogsCommand,
		newCleanupCommand,
	} {
		root.AddCommand(build(ctx))
	}
	return root
}
