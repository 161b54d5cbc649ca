// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package app wires the configuration, the profile registry and the dispatch
// engine together once per process, so every command shares one engine and
// therefore one history.
package app
