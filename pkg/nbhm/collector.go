package nbhm

import "github.com/Voskan/nbhm/internal/epoch"

// defaultCollector adapts internal/epoch's concrete Collector/Guard types
// to the Collector/Guard interfaces declared in this package. epoch stays
// free of any import on nbhm (it predates and does not need the public
// API), so the adaptation has to happen on this side of the boundary.
type defaultCollector struct {
	c *epoch.Collector
}

// newDefaultCollector constructs the epoch-based collector a Map uses
// when the caller does not supply one via WithCollector.
func newDefaultCollector() *defaultCollector {
	return &defaultCollector{c: epoch.New()}
}

func (d *defaultCollector) Pin(threadID uint64) Guard {
	return &defaultGuard{g: d.c.Pin(threadID)}
}

// defaultGuard adapts *epoch.Guard to the Guard interface, additionally
// satisfying the unpinner interface so Ref.Close can release the pin
// without this package needing to import epoch.Guard directly elsewhere.
type defaultGuard struct {
	g *epoch.Guard
}

func (d *defaultGuard) ThreadID() uint64 { return d.g.ThreadID() }

func (d *defaultGuard) BelongsTo(collector any) bool {
	dc, ok := collector.(*defaultCollector)
	if !ok {
		return false
	}
	return d.g.BelongsTo(dc.c)
}

func (d *defaultGuard) DeferRetire(obj any, reclaim func(any)) { d.g.DeferRetire(obj, reclaim) }
func (d *defaultGuard) Refresh()                               { d.g.Refresh() }
func (d *defaultGuard) Flush()                                  { d.g.Flush() }
func (d *defaultGuard) unpin()                                  { d.g.Unpin() }

// unpinner is implemented by guards that need an explicit release step
// when their owning Ref is closed. Guards from user-supplied collectors
// that have no such step simply don't implement it.
type unpinner interface {
	unpin()
}
