// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs one shell command across many profiles.
//
// The Engine partitions the profiles into tiers, runs every profile of a tier
// concurrently through a Runner and streams each Result to the caller as soon as
// it completes. Tiers run one after the other. When stop-on-failure is set, a
// tier containing a failure causes every profile of the later tiers to be
// reported as skipped without being started.
//
// Exactly one Result is produced for every submitted profile, whatever happens to it.
package runbatch
