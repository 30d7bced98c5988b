package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/infomem/pkg/buildinfo"
	"github.com/ssargent/infomem/pkg/codec"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a build metadata blob",
	Long: `Generate a build metadata blob from the current build environment.

By default every field is collected. Individual --with-* flags narrow the
selection; INFOMEM_APP_NAME and INFOMEM_APP_VERSION override values derived
from the Go build info.

Examples:
  infomem generate --out info.bin
  infomem generate --out info.bin --with-app-name --with-app-git
  infomem generate --out info.bin --user-payload calibration.dat --no-header`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := selectedOptions(cmd)

		record, err := buildinfo.Generate(opts)
		if err != nil {
			return fmt.Errorf("collecting build info: %w", err)
		}

		if payloadPath, _ := cmd.Flags().GetString("user-payload"); payloadPath != "" {
			data, err := os.ReadFile(payloadPath)
			if err != nil {
				return fmt.Errorf("reading user payload: %w", err)
			}
			record.User = codec.UserPayload{Present: true, Data: data}
		}

		out, _ := cmd.Flags().GetString("out")
		noHeader, _ := cmd.Flags().GetBool("no-header")

		if err := buildinfo.WriteFile(record, out, buildinfo.WriteOptions{Header: !noHeader}); err != nil {
			return err
		}

		cmd.Printf("Wrote %s (%d record bytes)\n", out, record.Size())
		return nil
	},
}

// selectedOptions maps the --with-* flags onto field options. No flags at
// all means everything.
func selectedOptions(cmd *cobra.Command) buildinfo.Options {
	var opts buildinfo.Options
	picked := false
	for flag, field := range map[string]*bool{
		"with-app-name":          &opts.AppName,
		"with-app-version":       &opts.AppVersion,
		"with-app-git":           &opts.AppGit,
		"with-app-date":          &opts.AppDate,
		"with-toolchain-version": &opts.ToolchainVersion,
		"with-toolchain-backend": &opts.ToolchainBackend,
		"with-toolchain-git":     &opts.ToolchainGit,
		"with-toolchain-host":    &opts.ToolchainHost,
		"with-toolchain-channel": &opts.ToolchainChannel,
	} {
		if on, _ := cmd.Flags().GetBool(flag); on {
			*field = true
			picked = true
		}
	}
	if !picked {
		return buildinfo.AllOptions()
	}
	return opts
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("out", "o", "", "Output file for the encoded blob (required)")
	generateCmd.Flags().Bool("no-header", false, "Omit the magic header")
	generateCmd.Flags().String("user-payload", "", "File whose contents become the user payload")
	generateCmd.Flags().Bool("with-app-name", false, "Include the application name")
	generateCmd.Flags().Bool("with-app-version", false, "Include the application version")
	generateCmd.Flags().Bool("with-app-git", false, "Include the git description")
	generateCmd.Flags().Bool("with-app-date", false, "Include the build date")
	generateCmd.Flags().Bool("with-toolchain-version", false, "Include the Go toolchain version")
	generateCmd.Flags().Bool("with-toolchain-backend", false, "Include the backend compiler version")
	generateCmd.Flags().Bool("with-toolchain-git", false, "Include the toolchain VCS revision")
	generateCmd.Flags().Bool("with-toolchain-host", false, "Include the build host os/arch")
	generateCmd.Flags().Bool("with-toolchain-channel", false, "Include the toolchain release channel")
	generateCmd.MarkFlagRequired("out") //nolint:errcheck
}
