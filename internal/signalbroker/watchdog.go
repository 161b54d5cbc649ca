// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
)

// Watch reads sigCh until it is closed or ctx ends.
// The second signal of the same kind calls cancel and returns.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "second signal received, cancelling", "signal", sig.String())
				cancel()

				return
			}

			ctxlog.Warn(ctx, "signal received, press again to cancel running profiles", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
