// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"github.com/TylerBrock/colorjson"
	fatihcolor "github.com/fatih/color"
)

// JSONFormatter returns an indented colorjson formatter. With colour set, the
// formatter colours its output even when stdout is not a terminal, as callers
// decide colour per destination writer.
func JSONFormatter(colour bool) *colorjson.Formatter {
	f := colorjson.NewFormatter()
	f.Indent = 2
	f.DisabledColor = !colour

	if !colour {
		return f
	}

	for _, c := range []*fatihcolor.Color{f.KeyColor, f.StringColor, f.BoolColor, f.NumberColor, f.NullColor} {
		if c != nil {
			c.EnableColor()
		}
	}

	return f
}
