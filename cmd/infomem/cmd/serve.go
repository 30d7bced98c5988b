package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/infomem/pkg/api"
	"github.com/ssargent/infomem/pkg/registry"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the image registry REST API server",
	Long: `Start the REST API server over the local image registry. Uploaded
images are decoded and registered; decoded metadata is queryable per image.

Example:
  infomem serve --port 8080 --data-dir ./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer reg.Close()

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.Port
		}

		return api.StartServer(reg, api.ServerConfig{
			Port:        port,
			ScratchSize: cfg.ScratchSize,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config)")
}
