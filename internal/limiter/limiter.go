package limiter

// Inflight bounds how many extraction runs execute concurrently in this
// process. Rendering at high DPI holds large pixmaps, so the cap protects
// memory rather than CPU.
type Inflight struct {
    sem chan struct{}
}

// New creates a limiter allowing max concurrent acquisitions.
func New(max int) *Inflight {
    if max <= 0 { max = 2 }
    return &Inflight{sem: make(chan struct{}, max)}
}

// Acquire tries to reserve a slot without blocking.
// Returns a release function and true if allowed; otherwise nil-op,false.
func (l *Inflight) Acquire() (func(), bool) {
    select {
    case l.sem <- struct{}{}:
        return func() { <-l.sem }, true
    default:
        return func(){}, false
    }
}

// InUse reports the currently held slots, for gauges.
func (l *Inflight) InUse() int { return len(l.sem) }

// Cap reports the configured limit.
func (l *Inflight) Cap() int { return cap(l.sem) }
