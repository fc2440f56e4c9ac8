package cmd

import (
	"github.com/carousell/ct-go/pkg/logger/log"
	"github.com/spf13/cobra"

	"github.com/nguyentranbao-ct/shop-assistant/internal/app"
	"github.com/nguyentranbao-ct/shop-assistant/internal/server"
	"github.com/nguyentranbao-ct/shop-assistant/internal/usecase/catalog"
)

var rootCmd = &cobra.Command{
	Use:           "shop-assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		app.Invoke(
			server.StartServer,
			catalog.StartSync,
		).Run()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
