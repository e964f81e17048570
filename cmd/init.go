package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jyoonje/collabview-plugin/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize collabview configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to connect collabview to a viewer server and generates a .collabview.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
