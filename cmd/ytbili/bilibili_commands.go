package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytbili/internal/bilibili"
	"ytbili/internal/deps"
)

func newBilibiliCommand(ctx *commandContext) *cobra.Command {
	bilibiliCmd := &cobra.Command{
		Use:   "bilibili",
		Short: "Manage the Bilibili upload session",
	}
	bilibiliCmd.AddCommand(newBilibiliLoginCommand(ctx))
	return bilibiliCmd
}

func newBilibiliLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to Bilibili in a browser window and keep the session",
		Long: "Open Chrome on the Bilibili login page with the upload profile. Scan the QR code or sign in; " +
			"the command returns once the session is stored and uploads can run headless.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if chrome := deps.CheckChrome(cfg.Bilibili); !chrome.Available {
				return fmt.Errorf("chrome unavailable: %s", chrome.Detail)
			}
			logger, err := ctx.cliLogger(false)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opening %s with profile %s\n", cfg.Bilibili.LoginURL, cfg.Bilibili.ProfileDir)
			if err := bilibili.Login(cmd.Context(), cfg.Bilibili, logger); err != nil {
				return fmt.Errorf("bilibili login: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bilibili session stored")
			return nil
		},
	}
}
