// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRegistry_LookupAndNames(t *testing.T) {
	reg := NewStaticRegistry(Defaults()...)

	assert.Equal(t, []string{
		"aws-dev-eu", "aws-dev-sg",
		"kds-ets-np", "kds-gps-np", "kds-iss-np",
		"kds-ets-pd", "kds-gps-pd", "kds-iss-pd",
	}, reg.Names())

	p, ok := reg.Lookup("aws-dev-sg")
	require.True(t, ok)
	assert.Equal(t, TierDev, p.Tier)
	assert.Equal(t, "ap-southeast-1", p.Region)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestStaticRegistry_LookupReturnsCopy(t *testing.T) {
	reg := NewStaticRegistry(Profile{Name: "a", Env: map[string]string{"K": "v"}})

	p, _ := reg.Lookup("a")
	p.Env["K"] = "changed"

	again, _ := reg.Lookup("a")
	assert.Equal(t, "v", again.Env["K"])
}

func TestResolve_UnknownNamesBecomeBareProfiles(t *testing.T) {
	reg := NewStaticRegistry(Profile{Name: "known", Tier: TierDev})

	got := Resolve(reg, []string{"unknown", "known"})

	require.Len(t, got, 2)
	assert.Equal(t, Profile{Name: "unknown"}, got[0])
	assert.Equal(t, TierDev, got[1].Tier)

	assert.Equal(t, []Profile{{Name: "x"}}, Resolve(nil, []string{"x"}))
}

func TestAll(t *testing.T) {
	assert.Nil(t, All(nil))
	assert.Len(t, All(NewStaticRegistry(Defaults()...)), 8)
}
