// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker fans OS termination signals into a channel.
//
// Watch turns a repeated signal into a cancellation of the root context: the first
// SIGINT lets in-flight profiles finish, the second one kills them.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
)

var termSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New registers for sigs (default: interrupt, SIGTERM, SIGQUIT) and returns the channel.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop unregisters ch from signal delivery.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
