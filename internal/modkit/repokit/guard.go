package repokit

import (
	"context"
	"fmt"
	"time"
)

// Guarder checks that every configured backend answers
type Guarder interface {
	Guard(context.Context) error
}

// MustGuard runs g.Guard with a default 5s deadline and panics on failure
func MustGuard(ctx context.Context, g Guarder) {
	if g == nil {
		panic("repokit: nil guard")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := g.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
