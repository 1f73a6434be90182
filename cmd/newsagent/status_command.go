package main

import (
	"fmt"
	"strconv"

	"github.com/LJTian/NewsDigest/internal/agent"
	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/spf13/cobra"
)

type statusView struct {
	Today     string
	LastSent  string
	SeenCount int
	Backend   string
	Timezone  string
}

func newStatusCommand(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daily gate and dedup state",
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

			ctx := cmd.Context()
			view := statusView{
				Today:     rt.State.Today(config.Now()),
				LastSent:  rt.State.LastSent(ctx),
				SeenCount: len(rt.State.LoadSeen(ctx)),
				Backend:   cfg.StoreBackend,
				Timezone:  cfg.Timezone,
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(view))
			return nil
		},
	}
}

func renderStatus(v statusView) string {
	lastSent := v.LastSent
	if lastSent == "" {
		lastSent = "never"
	}
	sentToday := "no"
	if v.LastSent != "" && v.LastSent == v.Today {
		sentToday = "yes"
	}
	rows := [][]string{
		{"Today", v.Today},
		{"Timezone", v.Timezone},
		{"Last sent", lastSent},
		{"Sent today", sentToday},
		{"Seen items", strconv.Itoa(v.SeenCount)},
		{"Backend", v.Backend},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}
