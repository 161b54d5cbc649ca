// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package export renders batch results as JSON, CSV or plain text.
package export
