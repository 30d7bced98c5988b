package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ssargent/infomem/pkg/registry"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered images",
	Long: `List every image in the local registry.

Example:
  infomem list --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer reg.Close()

		entries, err := reg.List()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(entries) == 0 {
			cmd.Println("No images registered")
			return nil
		}
		for _, e := range entries {
			cmd.Printf("%s  %-20s %-10s %s\n", e.ID, e.AppName, e.AppVersion, e.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("json", false, "Print entries as JSON")
}
