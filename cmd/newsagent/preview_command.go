package main

import (
	"fmt"
	"strconv"

	"github.com/LJTian/NewsDigest/internal/agent"
	"github.com/LJTian/NewsDigest/internal/ranking"
	"github.com/spf13/cobra"
)

func newPreviewCommand(flags *cliFlags) *cobra.Command {
	var showBody bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what the next digest would contain without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			rt, err := agent.Build(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			items, d, err := rt.Gate.Preview(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "no news")
				return nil
			}
			fmt.Fprintln(out, renderPreview(items))
			if showBody && d != nil {
				fmt.Fprintln(out)
				fmt.Fprintln(out, d.Subject)
				fmt.Fprintln(out)
				fmt.Fprintln(out, d.Body)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showBody, "body", false, "Also print the rendered email")
	return cmd
}

func renderPreview(items []ranking.Scored) string {
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(it.Score, 'f', 1, 64),
			it.Source,
			it.Title,
		})
	}
	return renderTable(
		[]string{"#", "Score", "Source", "Title"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
	)
}
