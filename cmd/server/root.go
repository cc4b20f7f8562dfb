package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
	"github.com/sirosfoundation/go-http-provider/pkg/middleware"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "http-provider",
		Short:        "Serve the sample endpoints through a pluggable HTTP provider",
		Version:      fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "Path to configuration file")

	root.AddCommand(
		newServeCmd(&configFile),
		newDriversCmd(),
		newTokenCmd(),
	)
	return root
}

func newServeCmd(configFile *string) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server and block until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configFile, flags)
		},
	}
	cmd.Flags().StringVar(&flags.driver, "driver", "", "Provider driver ("+strings.Join(httpprovider.Drivers(), ", ")+"), overrides provider.driver")
	cmd.Flags().IntVar(&flags.port, "port", 0, "Listen port, overrides server.port")
	return cmd
}

func newDriversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List registered provider drivers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range httpprovider.Drivers() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Generate a random bearer token for HTTPPROVIDER_SERVER_ADMIN_TOKEN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := middleware.GenerateToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
