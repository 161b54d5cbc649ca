// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads the fanrun application configuration from YAML.
//
// Every field has a default, so a missing configuration file is not an error
// unless the file was named explicitly.
package config
