package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ebdaasoft/whatsdesk/internal/version"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "whatsdesk",
		Short: "Menu-driven WhatsApp support assistant",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the assistant and the admin API",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	})
	rootCmd.AddCommand(newPairCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.GetInfo())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
