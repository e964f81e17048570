package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jyoonje/collabview-plugin/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "collabview",
	Short: "External document viewer panel for chat file previews",
	Long: `CollabView replaces the native preview of supported files with an
external viewer shown in a side panel. It resolves per-user viewer URLs,
serves the panel and keeps a catalog of viewable files.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
