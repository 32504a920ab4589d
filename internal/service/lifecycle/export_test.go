package lifecycle

import "time"

// SetNow pins the executor clock for tests.
func (e *Executor) SetNow(fn func() time.Time) { e.now = fn }
