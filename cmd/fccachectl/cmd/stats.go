package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xlab/tablewriter"

	"github.com/flowdeck/fccache/pkg/conf"
	"github.com/flowdeck/fccache/pkg/statsock"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show live input/output counters for a running fccached",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          statsEntrypoint,
	}
}

func statsEntrypoint(cmd *cobra.Command, _ []string) error {
	path := statsock.PathFor(conf.DefaultStatsockPath, pid)
	client, err := statsock.Dial(path)
	if err != nil {
		return fmt.Errorf("connecting to fccached (pid %d): %w", pid, err)
	}
	defer client.Close()

	ctx := cmd.Context()
	if once {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		cancel()
	}

	return client.Poll(ctx, time.Second, func(snap statsock.Snapshot) error {
		printSnapshot(snap)
		return nil
	})
}

func printSnapshot(snap statsock.Snapshot) {
	in := tablewriter.CreateTable()
	in.UTF8Box()
	in.AddTitle("Input stats")
	in.AddRow("#", "packets", "parsed", "bytes", "dropped", "qtime")
	in.AddSeparator()
	for i, s := range snap.Inputs {
		in.AddRow(i, s.Packets, s.Parsed, s.Bytes, s.Dropped, s.QTime)
	}
	fmt.Println(in.Render())

	out := tablewriter.CreateTable()
	out.UTF8Box()
	out.AddTitle("Output stats")
	out.AddRow("#", "biflows", "packets", "bytes", "dropped")
	out.AddSeparator()
	for i, s := range snap.Outputs {
		out.AddRow(i, s.Biflows, s.Packets, s.Bytes, s.Dropped)
	}
	fmt.Println(out.Render())
}
