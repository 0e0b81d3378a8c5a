package main

import (
	"github.com/spf13/cobra"

	"auto_social_publisher/config"
	"auto_social_publisher/gauth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the Google consent flow and store the token file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		creds := gauth.NewFileCredentials(cfg.Google.CredentialsFile, cfg.Google.TokenFile, logger)
		creds.Consent = gauth.LoopbackConsent(cmd.ErrOrStderr())
		return creds.Authorize(cmd.Context())
	},
}
