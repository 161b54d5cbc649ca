// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package shell

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/matt-FFFFFF/fanrun/cmd/internal/cmdtest"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, runner *cmdtest.Runner) (*Session, *bytes.Buffer) {
	t.Helper()

	_, a := cmdtest.Context(t, nil, runner)
	buf := new(bytes.Buffer)

	return NewSession(a, buf), buf
}

func TestSession_DefaultsToAllProfiles(t *testing.T) {
	s, _ := newTestSession(t, &cmdtest.Runner{})

	assert.Len(t, s.Selected(), len(profile.Defaults()))
	assert.Equal(t, "fanrun [8]> ", s.Prompt())
}

func TestSession_ExecuteAndHistory(t *testing.T) {
	runner := &cmdtest.Runner{}
	s, buf := newTestSession(t, runner)
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, ":use aws-dev-eu, kds-ets-pd"))
	assert.Equal(t, []string{"aws-dev-eu", "kds-ets-pd"}, s.Selected())

	buf.Reset()
	require.NoError(t, s.Handle(ctx, "aws s3 ls"))
	assert.Contains(t, buf.String(), "2/2 succeeded")
	assert.ElementsMatch(t, []string{"aws-dev-eu", "kds-ets-pd"}, runner.Seen())

	buf.Reset()
	require.NoError(t, s.Handle(ctx, ":history"))
	assert.Contains(t, buf.String(), "2/2  aws s3 ls  [aws-dev-eu,kds-ets-pd]")

	buf.Reset()
	require.NoError(t, s.Handle(ctx, ":clear"))
	require.NoError(t, s.Handle(ctx, ":history"))
	assert.Contains(t, buf.String(), "no history")
}

func TestSession_StopDirective(t *testing.T) {
	runner := &cmdtest.Runner{Fail: map[string]bool{"aws-dev-eu": true}}
	s, buf := newTestSession(t, runner)
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, "deploy"))
	assert.Contains(t, buf.String(), "6 skipped")

	require.NoError(t, s.Handle(ctx, ":stop off"))
	assert.Contains(t, buf.String(), "stop on failure off")

	buf.Reset()
	require.NoError(t, s.Handle(ctx, "deploy"))
	assert.Contains(t, buf.String(), "7/8 succeeded")
	assert.NotContains(t, buf.String(), "skipped")

	buf.Reset()
	require.NoError(t, s.Handle(ctx, ":stop maybe"))
	assert.Contains(t, buf.String(), "usage: :stop on|off")
}

func TestSession_TimeoutDirective(t *testing.T) {
	s, buf := newTestSession(t, &cmdtest.Runner{})
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, ":timeout 30s"))
	assert.Equal(t, 30*time.Second, s.spec.Timeout)

	buf.Reset()
	require.NoError(t, s.Handle(ctx, ":timeout"))
	assert.Equal(t, "timeout 30s\n", buf.String())

	buf.Reset()
	require.NoError(t, s.Handle(ctx, ":timeout -1s"))
	assert.Contains(t, buf.String(), "invalid timeout")
	assert.Equal(t, 30*time.Second, s.spec.Timeout)
}

func TestSession_SelectionDirectives(t *testing.T) {
	s, buf := newTestSession(t, &cmdtest.Runner{})
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, ":use nope"))
	assert.Contains(t, buf.String(), "unknown profiles run in tier other: nope")
	assert.Equal(t, []string{"nope"}, s.Selected())

	buf.Reset()
	require.NoError(t, s.Handle(ctx, ":use"))
	assert.Contains(t, buf.String(), "usage: :use")

	require.NoError(t, s.Handle(ctx, ":all"))
	assert.Len(t, s.Selected(), 8)

	require.NoError(t, s.Handle(ctx, ":use aws-dev-sg"))
	buf.Reset()
	require.NoError(t, s.Handle(ctx, ":profiles"))
	out := buf.String()
	assert.Contains(t, out, "dev:\n")
	assert.Contains(t, out, "other:\n")
	assert.Contains(t, out, "* aws-dev-sg")
	assert.Contains(t, out, "  aws-dev-eu")
}

func TestSession_MiscDirectives(t *testing.T) {
	s, buf := newTestSession(t, &cmdtest.Runner{})
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, "   "))
	assert.Empty(t, buf.String())

	require.NoError(t, s.Handle(ctx, ":help"))
	assert.Contains(t, buf.String(), ":timeout 30s")

	require.NoError(t, s.Handle(ctx, ":bogus"))
	assert.Contains(t, buf.String(), "unknown directive :bogus")

	require.ErrorIs(t, s.Handle(ctx, ":quit"), ErrQuit)
	require.ErrorIs(t, s.Handle(ctx, ":q"), ErrQuit)
}

func TestSession_Complete(t *testing.T) {
	s, _ := newTestSession(t, &cmdtest.Runner{})

	assert.Equal(t, []string{":help", ":history"}, s.Complete(":h"))
	assert.Nil(t, s.Complete("aws"))
	assert.Equal(t, []string{":use aws-dev-eu", ":use aws-dev-sg"}, s.Complete(":use aws"))
	assert.Equal(t, []string{":use aws-dev-eu,kds-ets-np", ":use aws-dev-eu,kds-ets-pd"}, s.Complete(":use aws-dev-eu,kds-ets"))
}
