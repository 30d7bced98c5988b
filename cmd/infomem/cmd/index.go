package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/infomem/pkg/codec"
	"github.com/ssargent/infomem/pkg/registry"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <file>...",
	Short: "Decode images and register them in the registry",
	Long: `Decode a batch of images and register the results in the local
registry. Files are decoded concurrently; a file without a record fails that
file only, the rest of the batch still registers.

Example:
  infomem index build/*.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer reg.Close()

		jobs, _ := cmd.Flags().GetInt("jobs")

		var mu sync.Mutex
		var failed int

		g := new(errgroup.Group)
		g.SetLimit(jobs)
		for _, path := range args {
			g.Go(func() error {
				entry, err := indexOne(reg, path)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					cmd.Printf("%s: %v\n", path, err)
					return nil
				}
				cmd.Printf("%s: registered as %s (%s %s)\n", path, entry.ID, entry.AppName, entry.AppVersion)
				return nil
			})
		}
		g.Wait() //nolint:errcheck

		if failed > 0 {
			return fmt.Errorf("%d of %d images failed to register", failed, len(args))
		}
		return nil
	},
}

func indexOne(reg *registry.Registry, path string) (registry.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return registry.Entry{}, err
	}

	record, err := codec.DecodeBytesMagic(data)
	if err != nil {
		return registry.Entry{}, fmt.Errorf("decoding: %w", err)
	}

	offset := int64(bytes.Index(data, codec.Magic[:]))
	return reg.Register(registry.Summarize(path, offset, record))
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().IntP("jobs", "j", 4, "Number of images to decode concurrently")
}
