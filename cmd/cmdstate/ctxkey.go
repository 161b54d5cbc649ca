// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate carries the application built by the root command's Before
// hook to the subcommands through the context.
package cmdstate

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/fanrun/internal/app"
)

// ErrNoApp is returned when the context carries no application.
var ErrNoApp = errors.New("application not initialised")

type appKey struct{}

// WithApp returns a copy of ctx carrying a.
func WithApp(ctx context.Context, a *app.App) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

// App returns the application stored in ctx.
func App(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey{}).(*app.App)
	if !ok || a == nil {
		return nil, ErrNoApp
	}

	return a, nil
}
