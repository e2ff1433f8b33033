// Package cmd contains the fccached command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowdeck/fccache/pkg/capture"
	"github.com/flowdeck/fccache/pkg/conf"
	"github.com/flowdeck/fccache/pkg/export"
	"github.com/flowdeck/fccache/pkg/flowcache"
	"github.com/flowdeck/fccache/pkg/logging"
	"github.com/flowdeck/fccache/pkg/parsers"
	"github.com/flowdeck/fccache/pkg/parsers/dns"
	"github.com/flowdeck/fccache/pkg/parsers/http"
	"github.com/flowdeck/fccache/pkg/statsock"
	"github.com/flowdeck/fccache/pkg/version"
)

func init() {
	parsers.Register("http", func() flowcache.Parser { return http.New() })
	parsers.Register("dns", func() flowcache.Parser { return dns.New() })
}

// Execute builds and runs the fccached root command.
func Execute() error {
	rootCmd := newRootCmd()
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fccached",
		Short: "fccached runs the bounded line-associative flow cache",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if path := viper.GetString(conf.ConfigFile); path != "" {
				viper.SetConfigFile(path)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config file %q: %w", path, err)
				}
			}
			opts := []logging.Option{
				logging.WithName("fccached"),
				logging.WithVersion(version.Short()),
			}
			if dest := viper.GetString(conf.LogDestination); dest != "" {
				opts = append(opts, logging.WithFileOutput(dest))
			}
			return logging.Init(
				logging.LevelFromString(viper.GetString(conf.LogLevel)),
				logging.Encoding(viper.GetString(conf.LogEncoding)),
				opts...,
			)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			iface := "any"
			if len(args) > 0 {
				iface = args[0]
			}
			return run(cmd.Context(), iface)
		},
	}

	if err := conf.RegisterFlags(rootCmd); err != nil {
		rootCmd.PrintErrf("failed to register flags: %v\n", err)
	}
	return rootCmd
}

func optionsFromConfig() flowcache.Options {
	opts := flowcache.DefaultOptions()
	opts.SizeExponent = uint8(viper.GetUint32(conf.CacheSizeExponent))
	opts.LineExponent = uint8(viper.GetUint32(conf.CacheLineExponent))
	opts.Active = viper.GetUint32(conf.CacheActiveTimeout)
	opts.Inactive = viper.GetUint32(conf.CacheInactiveTimeout)
	opts.Split = viper.GetBool(conf.CacheSplit)
	opts.QueueCapacity = viper.GetInt(conf.CacheQueueCapacity)
	return opts
}

func run(ctx context.Context, iface string) error {
	logger := logging.FromContext(ctx)

	opts := optionsFromConfig()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid cache options: %w", err)
	}

	pipeline := flowcache.NewParserPipeline()
	names := parsers.Names()
	built, err := parsers.Build(names)
	if err != nil {
		return fmt.Errorf("building parser pipeline: %w", err)
	}
	for _, p := range built {
		pipeline.Register(p)
	}

	cache, err := flowcache.NewWithContext(ctx, opts, pipeline)
	if err != nil {
		return fmt.Errorf("constructing flow cache: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweepStop := make(chan struct{})
	cache.RunSweepTicker(time.Second, sweepStop)
	defer close(sweepStop)

	exp := export.NewLoggingExporter(ctx)
	go export.Run(ctx, cache.Queue(), exp)

	sockPath := statsock.PathFor(viper.GetString(conf.StatsockPath), os.Getpid())
	srv, err := statsock.NewServer(sockPath, snapshotFunc(cache))
	if err != nil {
		return fmt.Errorf("starting stats socket: %w", err)
	}
	defer srv.Close()
	go func() {
		if err := srv.Serve(ctx); err != nil {
			logger.Warnf("stats socket server stopped: %v", err)
		}
	}()

	src := capture.NewNullSource()
	if err := src.Open(ctx, iface); err != nil {
		return fmt.Errorf("opening capture source %q: %w", iface, err)
	}
	defer src.Close()

	pkts, err := src.Packets(ctx)
	if err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}

	logger.Infof("fccached running on %q with parsers %v", iface, names)

	for {
		select {
		case <-ctx.Done():
			cache.Shutdown()
			return exp.Close()
		case pkt, ok := <-pkts:
			if !ok {
				cache.Shutdown()
				return exp.Close()
			}
			cache.Process(pkt, time.UnixMicro(pkt.TimestampMicros))
		}
	}
}

func snapshotFunc(cache *flowcache.FlowCache) statsock.SourceFunc {
	return func() statsock.Snapshot {
		snap := cache.Stats().Snapshot()
		return statsock.Snapshot{
			Inputs: []statsock.InputStats{{
				Packets: uint64(snap.Hits + snap.Misses),
				Parsed:  uint64(snap.Hits + snap.Misses),
				Dropped: uint64(snap.QueueOverflow),
			}},
			Outputs: []statsock.OutputStats{{
				Biflows: uint64(snap.FlowsAlive),
				Packets: uint64(snap.Hits + snap.Misses),
				Dropped: uint64(snap.QueueOverflow),
			}},
		}
	}
}
