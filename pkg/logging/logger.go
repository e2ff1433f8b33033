package logging

import (
	"strings"

	"golang.org/x/exp/slog"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelFatal = slog.Level(12)
	LevelPanic = slog.Level(13)

	// LevelUnknown is returned by LevelFromString for anything that isn't
	// one of the six named levels above; Init and New both reject it.
	LevelUnknown = slog.Level(-1 << 30)
)

// enumeration of level keys (for performance. See Init's replaceFunc)
const (
	debugLevel = "debug"
	infoLevel  = "info"
	warnLevel  = "warn"
	errorLevel = "error"
	fatalLevel = "fatal"
	panicLevel = "panic"
)

// LevelFromString maps a config/flag value (case-insensitive) to a
// logging Level. fccached's --logging.level flag goes through this
// rather than parsing slog.Level strings directly, since
// LevelFatal/LevelPanic have no stdlib name.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case debugLevel:
		return LevelDebug
	case infoLevel:
		return LevelInfo
	case warnLevel:
		return LevelWarn
	case errorLevel:
		return LevelError
	case fatalLevel:
		return LevelFatal
	case panicLevel:
		return LevelPanic
	default:
		return LevelUnknown
	}
}

// L wraps slog.Logger with the printf-style and Fatal/Panic convenience
// methods fccached's hot paths (sweep, line eviction, queue
// overflow, stats-socket handling) call instead of reaching for fmt or
// the bare log package.
type L struct {
	*slog.Logger
	*formatter
}

func newL(logger *slog.Logger) *L {
	return &L{
		Logger: logger,
		formatter: &formatter{
			l:        logger,
			exiter:   defaultExiter{},
			panicker: defaultPanicker{},
		}}
}

// With returns a logger carrying args as additional structured fields,
// preserving the exiter/panicker of l so the result can still Fatal/Panic.
func (l *L) With(args ...any) *L {
	nl := l.Logger.With(args...)
	return &L{
		Logger: nl,
		formatter: &formatter{
			l:        nl,
			exiter:   l.formatter.exiter,
			panicker: l.formatter.panicker,
		},
	}
}

// WithGroup returns a logger that nests subsequent attributes under name,
// preserving the exiter/panicker of l.
func (l *L) WithGroup(name string) *L {
	nl := l.Logger.WithGroup(name)
	return &L{
		Logger: nl,
		formatter: &formatter{
			l:        nl,
			exiter:   l.formatter.exiter,
			panicker: l.formatter.panicker,
		},
	}
}

func (l *L) exiter(e exiter) *L {
	l.formatter.exiter = e
	return l
}

func (l *L) panicker(p panicker) *L {
	l.formatter.panicker = p
	return l
}
