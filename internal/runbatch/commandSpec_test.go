// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCommandSpec(t *testing.T) {
	spec := DefaultCommandSpec("aws s3 ls")

	assert.Equal(t, "aws s3 ls", spec.Command)
	assert.Equal(t, 300*time.Second, spec.Timeout)
	assert.True(t, spec.StopOnFailure)
}

func TestCommandSpec_EffectiveTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, CommandSpec{}.EffectiveTimeout())
	assert.Equal(t, time.Second, CommandSpec{Timeout: time.Second}.EffectiveTimeout())
}

func TestCommandSpec_Validate(t *testing.T) {
	valid := []string{
		"echo hello",
		"aws sts get-caller-identity --output json",
		`echo "quoted value" 'single'`,
		"ls -la | grep foo && echo ok; true",
		"echo out > /dev/null 2>&1",
		"echo $(date)",
		"printf 'héllo wörld' | wc -c",
		"echo $((1+2))",
		"(cd /tmp && ls)",
		"f() { echo hi; }; f",
		"for p in a b; do echo $p; done",
		"{ echo a; echo b; } | sort",
	}

	for _, cmd := range valid {
		t.Run(cmd, func(t *testing.T) {
			assert.NoError(t, DefaultCommandSpec(cmd).Validate())
		})
	}

	invalid := []string{
		"",
		"   \t ",
		`echo "unterminated`,
		`echo 'unterminated`,
		"ls | grep 'open",
		"echo $(date",
		"if true; then echo x",
	}

	for _, cmd := range invalid {
		t.Run("invalid "+cmd, func(t *testing.T) {
			err := DefaultCommandSpec(cmd).Validate()
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestCommandSpec_ValidateNegativeTimeout(t *testing.T) {
	err := CommandSpec{Command: "true", Timeout: -time.Second}.Validate()
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "timeout")
}

func TestParseCommandLine(t *testing.T) {
	require.NoError(t, parseCommandLine(`aws s3 ls "my bucket" | grep -v x; echo done`))

	err := parseCommandLine(`echo "open`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quote")
}
