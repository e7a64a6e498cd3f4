// Package parker implements the bounded park/unpark primitive a user
// operation falls back to when it has already helped migrate at least one
// resize chunk but the generation it needs is still not fully copied
// (spec.md §4.5 "wait-but-help policy").
//
// Grounded on two precedents in the corpus: the teacher's
// (Voskan/arena-cache) pkg/loader.go async load path, which combines a
// channel with select/ctx.Done() for bounded waiting, and the reference
// otter hash map's resizeMu/resizeCond wait-for-resize loop
// (other_examples/...otter-v2.../hashmap/map.go.go), generalized here to a
// timeout instead of an unbounded Cond.Wait.
package parker

import (
	"sync"
	"time"
)

// Parker lets any number of goroutines block until the next Wake, with a
// bounded timeout so a waiter that missed a wakeup (e.g. because the
// generation swing happened between its last check and its park call)
// still makes progress.
type Parker struct {
	mu   sync.Mutex
	cond sync.Cond
	gen  uint64 // bumped on every Wake; lets Park detect missed wakeups
}

// New constructs a ready-to-use Parker.
func New() *Parker {
	p := &Parker{}
	p.cond = *sync.NewCond(&p.mu)
	return p
}

// Park blocks the caller until the next Wake or until timeout elapses,
// whichever comes first. Callers are expected to re-check the condition
// they were waiting on after Park returns, since Park may return for
// either reason.
func (p *Parker) Park(timeout time.Duration) {
	done := make(chan struct{})
	timer := time.AfterFunc(timeout, func() { close(done) })
	defer timer.Stop()

	p.mu.Lock()
	startGen := p.gen
	p.mu.Unlock()

	woke := make(chan struct{})
	go func() {
		p.mu.Lock()
		for p.gen == startGen {
			p.cond.Wait()
		}
		p.mu.Unlock()
		close(woke)
	}()

	select {
	case <-woke:
	case <-done:
		// Timed out; nudge the waiting goroutine loose by bumping gen
		// ourselves so it doesn't leak past this Park call.
		p.Wake()
		<-woke
	}
}

// Wake releases every goroutine currently blocked in Park. Called by the
// resize engine whenever the root generation pointer advances (spec
// §4.5: "The parker is signalled when the root pointer advances").
func (p *Parker) Wake() {
	p.mu.Lock()
	p.gen++
	p.cond.Broadcast()
	p.mu.Unlock()
}
