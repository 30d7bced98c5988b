package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/infomem/pkg/codec"
	"github.com/ssargent/infomem/pkg/registry"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Decode the metadata record embedded in an image",
	Long: `Decode the metadata record embedded in an image. The record may sit
at any offset; the file is scanned for the magic header first.

Examples:
  infomem inspect firmware.bin
  infomem inspect firmware.bin --json
  infomem inspect firmware.bin --payload > calibration.dat`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}

		record, err := codec.DecodeBytesMagic(data)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}

		if dumpPayload, _ := cmd.Flags().GetBool("payload"); dumpPayload {
			if !record.User.Present {
				return fmt.Errorf("%s carries no user payload", args[0])
			}
			_, err := cmd.OutOrStdout().Write(record.User.Data)
			return err
		}

		offset := int64(bytes.Index(data, codec.Magic[:]))

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			entry := registry.Summarize(args[0], offset, record)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		}

		printRecord(cmd, args[0], offset, record)
		return nil
	},
}

func printRecord(cmd *cobra.Command, path string, offset int64, r *codec.Record) {
	cmd.Printf("%s: record at offset %d\n", path, offset)
	cmd.Printf("  schema:    %s\n", r.SchemaVersion.String())
	printOptStr(cmd, "app name", r.App.Name)
	if r.App.Version != nil {
		cmd.Printf("  %-10s %s\n", "version:", r.App.Version.String())
	}
	printOptStr(cmd, "git", r.App.Git)
	if r.App.BuildDate != nil {
		cmd.Printf("  %-10s %s\n", "built:", r.App.BuildDate.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	if r.Toolchain.Version != nil {
		cmd.Printf("  %-10s go %s\n", "toolchain:", r.Toolchain.Version.String())
	}
	if r.Toolchain.BackendVersion != nil {
		cmd.Printf("  %-10s %s\n", "backend:", r.Toolchain.BackendVersion.String())
	}
	if r.Toolchain.Channel != nil {
		cmd.Printf("  %-10s %s\n", "channel:", r.Toolchain.Channel.String())
	}
	printOptStr(cmd, "tc git", r.Toolchain.Git)
	printOptStr(cmd, "host", r.Toolchain.Host)
	if r.User.Present {
		cmd.Printf("  %-10s %d bytes\n", "payload:", len(r.User.Data))
	}
}

func printOptStr(cmd *cobra.Command, label string, s *codec.InfoStr) {
	if s != nil {
		cmd.Printf("  %-10s %s\n", label+":", s.String())
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("json", false, "Print the decoded record as JSON")
	inspectCmd.Flags().Bool("payload", false, "Write the raw user payload to stdout")
}
