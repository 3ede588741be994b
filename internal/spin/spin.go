package spin

import (
	"context"
	"time"
)

// For busy-loops until d elapses or ctx is done, keeping one CPU hot the way
// a real request handler would. It reports whether the full duration ran.
func For(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	deadline := time.Now().Add(d)
	x := 0.0
	for i := 0; time.Now().Before(deadline); i++ {
		// Do some floating point ops to keep CPU hot.
		x = x*1.0000001 + 3.14159
		if x > 1e9 {
			x = 0
		}
		if i%4096 == 0 && ctx.Err() != nil {
			return false
		}
	}
	return true
}
