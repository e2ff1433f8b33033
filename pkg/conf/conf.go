// Package conf provides shared configuration handling for fccached and
// fccachectl: cobra persistent flags bound into viper, mirroring the
// teacher's pkg/conf.RegisterFlags shape.
package conf

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	ConfigFile = "config"

	loggingKey = "logging"

	LogDestination = loggingKey + ".destination"
	LogEncoding    = loggingKey + ".encoding"
	LogLevel       = loggingKey + ".level"

	cacheKey = "cache"

	// CacheSizeExponent / CacheLineExponent set flowcache.Options.SizeExponent
	// / LineExponent (spec.md §6: size/line).
	CacheSizeExponent = cacheKey + ".size"
	CacheLineExponent = cacheKey + ".line"
	// CacheActiveTimeout / CacheInactiveTimeout set Options.Active / Inactive.
	CacheActiveTimeout   = cacheKey + ".active"
	CacheInactiveTimeout = cacheKey + ".inactive"
	// CacheSplit sets Options.Split.
	CacheSplit = cacheKey + ".split"
	// CacheQueueCapacity sets Options.QueueCapacity (Q of spec.md §4.7).
	CacheQueueCapacity = cacheKey + ".queue"

	statsockKey = "statsock"

	// StatsockPath is the UNIX socket path template for the stats
	// server (spec.md §6: "the socket path encodes the producing
	// process id"). %d is replaced with os.Getpid() at startup.
	StatsockPath = statsockKey + ".path"
)

// Global defaults for command line parameters / arguments
const (
	DefaultLogEncoding = "logfmt"
	DefaultLogLevel    = "info"

	DefaultStatsockPath = "/var/run/fccache/fccache-%d.sock"
)

// RegisterFlags registers fccached's command line flags, including the
// flowcache.Options table of spec.md §6, and binds them into viper.
// fccachectl does not call it; it registers its own -p/-1 flags.
func RegisterFlags(cmd *cobra.Command) error {
	pflags := cmd.PersistentFlags()

	pflags.StringP(ConfigFile, "c", "", "path to configuration file")

	pflags.String(LogLevel, DefaultLogLevel, "log level for logger")
	pflags.String(LogEncoding, DefaultLogEncoding, "message encoding format for logger")
	pflags.String(LogDestination, "", "logging destination file path (empty for stdout)")

	pflags.Uint8(CacheSizeExponent, flowcacheDefaultSizeExponent, "cache size exponent e: N = 2^e slots")
	pflags.Uint8(CacheLineExponent, flowcacheDefaultLineExponent, "cache line exponent l: L = 2^l slots per line")
	pflags.Uint32(CacheActiveTimeout, flowcacheDefaultActiveTimeout, "active timeout in seconds")
	pflags.Uint32(CacheInactiveTimeout, flowcacheDefaultInactiveTimeout, "inactive timeout in seconds")
	pflags.Bool(CacheSplit, false, "do not merge directions into a single biflow")
	pflags.Int(CacheQueueCapacity, flowcacheDefaultQueueCapacity, "export queue capacity")

	pflags.String(StatsockPath, DefaultStatsockPath, "stats socket path (%d is replaced with the pid)")

	return viper.BindPFlags(pflags)
}

// These mirror flowcache.Default* without importing pkg/flowcache here,
// keeping conf a leaf package the way the teacher's own pkg/conf never
// imports back into pkg/capture.
const (
	flowcacheDefaultSizeExponent    = 17
	flowcacheDefaultLineExponent    = 4
	flowcacheDefaultActiveTimeout   = 300
	flowcacheDefaultInactiveTimeout = 30
	flowcacheDefaultQueueCapacity   = 1024
)
