// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

import (
	"context"

	"synchub/cli/internal/dispatch"
)

// lateRefresher forwards to a dispatch.Refresher assigned after construction.
type lateRefresher struct {
	r dispatch.Refresher
}

func (l *lateRefresher) Refresh(ctx context.Context) (string, error) {
	return l.r.Refresh(ctx)
}
