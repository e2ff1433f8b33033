package cmd

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/flowdeck/fccache/pkg/conf"
	"github.com/flowdeck/fccache/pkg/statsock"
)

// newDumpCmd is statsEntrypoint's JSON sibling: same snapshot, same
// polling loop, rendered with jsoniter instead of tablewriter so the
// output can be piped into jq or another collector. The stats socket's
// wire protocol (spec.md §6) only ever carries the fixed Input/Output
// counters, never live flow records, so this dumps Snapshot, not
// per-flow data — there is no socket-level source for the latter.
func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "dump",
		Short:         "Print live input/output counters for a running fccached as JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          dumpEntrypoint,
	}
}

func dumpEntrypoint(cmd *cobra.Command, _ []string) error {
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
		data, err := jsoniter.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshaling snapshot: %w", err)
		}
		fmt.Println(string(data))
		return nil
	})
}
