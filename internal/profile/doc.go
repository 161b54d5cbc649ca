// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package profile models the named execution contexts a command is fanned out to,
// and the registry that resolves a profile name to its metadata.
//
// Registries are loaded from YAML (`*.yaml`, `*.yml`) or HCL (`*.hcl`) files.
// When no file is configured the built-in Defaults are used.
package profile
