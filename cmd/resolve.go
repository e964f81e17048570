package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jyoonje/collabview-plugin/internal/resolver"
)

var (
	resolveUser     string
	resolveUserName string
	resolveEndpoint string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file-id>",
	Short: "Resolve the viewer URL for a file",
	Long:  `Calls the viewer endpoint the way the panel does and prints the final URL. Useful to check the endpoint and the viewer server by hand.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		endpoint := resolveEndpoint
		if endpoint == "" {
			endpoint = cfg.ViewerEndpoint()
		}
		client, err := resolver.New(resolver.Options{
			Endpoint:  endpoint,
			Authority: cfg.Viewer.Authority,
			Timeout:   cfg.ViewerTimeout(),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		name := resolveUserName
		if name == "" {
			name = resolveUser
		}
		res, err := client.Resolve(ctx, resolver.Request{
			FileID:   args[0],
			UserID:   resolveUser,
			UserName: name,
		})
		if err != nil {
			return err
		}
		log.Debug("resolved", "endpoint", endpoint, "file_id", args[0])
		fmt.Println(res.FinalURL)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveUser, "user", "", "acting user id (required)")
	resolveCmd.Flags().StringVar(&resolveUserName, "user-name", "", "acting user name (defaults to --user)")
	resolveCmd.Flags().StringVar(&resolveEndpoint, "endpoint", "", "viewer endpoint (defaults to viewer.endpoint)")
	resolveCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(resolveCmd)
}
