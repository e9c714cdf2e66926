package main

import (
	"os"

	"github.com/spf13/cobra"
)

// @title PartStock API
// @version 1.0
// @description Back office API that publishes auto-part stock units to the OLX marketplace and reconciles listing state.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "partstock",
		Short: "Auto-part stock publishing to the OLX marketplace",
		Long: `partstock publishes stock units to the OLX marketplace and keeps
local listing state in line with what the marketplace reports.

Example usage:
  partstock serve                      # Run the HTTP API
  partstock olx status                 # Show marketplace token state
  partstock olx publish                # Publish every pending draft
  partstock olx refresh                # Pull listing statuses
  partstock client create --role patrao --username maria`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newOLXCmd(), newClientCmd())
	return root
}
