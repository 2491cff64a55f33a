package commands

import (
	"pokedex/internal/formatter"
	"pokedex/internal/sink"
	"pokedex/pkg/metadata"

	"github.com/spf13/cobra"
)

func installPreviewCmd(app *App) {
	var (
		rows   int
		verify bool
	)

	previewCmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Print a harvested JSON file as a markdown table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if verify {
				meta, err := metadata.Verify(path)
				if err != nil {
					return err
				}

				cmd.Printf("Checksum verified: %s (run %s)\n\n", meta.Hash, meta.RunID)
			}

			records, err := sink.ReadJSON(path)
			if err != nil {
				return err
			}

			cmd.Println(formatter.FormatRecords(records, rows))

			return nil
		},
	}
	previewCmd.Flags().IntVarP(&rows, "rows", "n", 20, "number of records to show, 0 for all")
	previewCmd.Flags().BoolVar(&verify, "verify", false, "check the output against its metadata sidecar first")

	app.cmd.AddCommand(previewCmd)
}
