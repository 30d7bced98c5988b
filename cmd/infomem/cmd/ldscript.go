package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/infomem/pkg/ldscript"
)

// ldscriptCmd represents the ldscript command
var ldscriptCmd = &cobra.Command{
	Use:   "ldscript",
	Short: "Emit a linker script fragment for the metadata section",
	Long: `Emit a linker script fragment that places the encoded blob in its
own output section.

Modes:
  section  dedicated memory region (parts with separate information memory)
  append   after an existing output section in a shared region
  hosted   inside a hosted executable, aligned after .text

Examples:
  infomem ldscript --mode section --region INFOMEM --max-size 192 --out infomem.x
  infomem ldscript --mode append --after .rodata
  infomem ldscript --mode hosted`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		section, _ := cmd.Flags().GetString("section")
		region, _ := cmd.Flags().GetString("region")
		after, _ := cmd.Flags().GetString("after")
		maxSize, _ := cmd.Flags().GetUint64("max-size")
		out, _ := cmd.Flags().GetString("out")

		if section == "" {
			section = cfg.Ldscript.Section
		}
		if maxSize == 0 {
			maxSize = cfg.Ldscript.MaxSize
		}

		var resolver ldscript.Resolver
		switch mode {
		case "section":
			if region == "" {
				region = cfg.Ldscript.Region
			}
			resolver = ldscript.SectionConfig{InputSection: section, Region: region, MaxSize: maxSize}
		case "append":
			resolver = ldscript.AppendConfig{InputSection: section, AfterSection: after, Region: region, MaxSize: maxSize}
		case "hosted":
			resolver = ldscript.HostedConfig{InputSection: section}
		default:
			return fmt.Errorf("unknown mode %q (want section, append or hosted)", mode)
		}

		if out == "" {
			return ldscript.Generate(cmd.OutOrStdout(), resolver, "")
		}
		if err := ldscript.GenerateFile(out, resolver); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ldscriptCmd)
	ldscriptCmd.Flags().String("mode", "section", "Placement mode: section, append or hosted")
	ldscriptCmd.Flags().String("section", "", "Input section name (default from config, .info)")
	ldscriptCmd.Flags().String("region", "", "Memory region for the output section")
	ldscriptCmd.Flags().String("after", "", "Output section to insert after (append mode)")
	ldscriptCmd.Flags().Uint64("max-size", 0, "Fail the link if the section exceeds this many bytes")
	ldscriptCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
}
