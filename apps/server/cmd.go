package main

import (
	"github.com/spf13/cobra"

	"blackjack-lite/apps/server/internal/config"
)

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var configFile string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket game server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	if err := config.BindFlags(v, serveCmd.Flags()); err != nil {
		panic(err)
	}

	root := &cobra.Command{
		Use:           "blackjackd",
		Short:         "Multiplayer blackjack server",
		SilenceUsage:  true,
		SilenceErrors: true,
		// bare invocation serves
		RunE: serveCmd.RunE,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	root.Flags().AddFlagSet(serveCmd.Flags())
	root.AddCommand(serveCmd)
	return root
}
