package dispatcher

import (
	"sync/atomic"
	"time"
)

// Latch is a per-verb in-flight guard. A second acquire while held fails;
// nothing is queued.
type Latch struct {
	held atomic.Bool
}

func (l *Latch) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

func (l *Latch) Release() {
	l.held.Store(false)
}

// ReleaseAfter frees the latch once d has passed, absorbing rapid repeats.
func (l *Latch) ReleaseAfter(d time.Duration) {
	if d <= 0 {
		l.Release()
		return
	}
	time.AfterFunc(d, l.Release)
}

func (l *Latch) Held() bool {
	return l.held.Load()
}
