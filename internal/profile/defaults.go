// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package profile

// Well-known tier tags.
const (
	TierDev           = "dev"
	TierNonProduction = "np"
	TierProduction    = "pd"
)

// Defaults returns the built-in profile set used when no profiles file is configured.
func Defaults() []Profile {
	return []Profile{
		{Name: "aws-dev-eu", Tier: TierDev, Region: "eu-west-1", Description: "Development EU"},
		{Name: "aws-dev-sg", Tier: TierDev, Region: "ap-southeast-1", Description: "Development SG"},
		{Name: "kds-ets-np", Tier: TierNonProduction, Region: "us-east-1", Description: "KDS ETS Non-Production"},
		{Name: "kds-gps-np", Tier: TierNonProduction, Region: "us-east-1", Description: "KDS GPS Non-Production"},
		{Name: "kds-iss-np", Tier: TierNonProduction, Region: "us-east-1", Description: "KDS ISS Non-Production"},
		{Name: "kds-ets-pd", Tier: TierProduction, Region: "us-east-1", Description: "KDS ETS Production"},
		{Name: "kds-gps-pd", Tier: TierProduction, Region: "us-east-1", Description: "KDS GPS Production"},
		{Name: "kds-iss-pd", Tier: TierProduction, Region: "us-east-1", Description: "KDS ISS Production"},
	}
}
