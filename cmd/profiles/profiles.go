// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package profiles implements `fanrun profiles`, which lists the known profiles
// in the order their tiers run.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/fanrun/cmd/cmdstate"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	formatFlag  = "format"
	tableFormat = "table"
	jsonFormat  = "json"
	yamlFormat  = "yaml"
)

// ErrWriteProfiles is returned when the listing cannot be written.
var ErrWriteProfiles = errors.New("failed to write profiles")

// ProfilesCmd lists the profiles grouped by tier.
var ProfilesCmd = newProfilesCmd()

func newProfilesCmd() *cli.Command {
	return &cli.Command{
		Name:  "profiles",
		Usage: "List the profiles grouped by tier",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    formatFlag,
				Aliases: []string{"f"},
				Usage:   "Output format: table, json or yaml. The yaml output is a valid profiles file",
				Value:   tableFormat,
			},
		},
		Action: actionFunc,
	}
}

type tierListing struct {
	Tier     string            `json:"tier" yaml:"tier"`
	Profiles []profile.Profile `json:"profiles" yaml:"profiles"`
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	a, err := cmdstate.App(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	tiers := a.Engine.Partitioner().Partition(profile.All(a.Registry))

	switch cmd.String(formatFlag) {
	case tableFormat:
		err = writeTable(cmd.Writer, tiers)
	case jsonFormat:
		err = writeJSON(cmd.Writer, tiers)
	case yamlFormat:
		err = writeYAML(cmd.Writer, profile.All(a.Registry))
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q, expected table, json or yaml", cmd.String(formatFlag)), 1)
	}

	if err != nil {
		return cli.Exit(errors.Join(ErrWriteProfiles, err).Error(), 1)
	}

	return nil
}

func writeTable(w io.Writer, tiers []runbatch.Tier) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0) //nolint:mnd

	fmt.Fprintln(tw, "TIER\tPROFILE\tREGION\tDESCRIPTION") //nolint:errcheck

	for _, t := range tiers {
		for _, p := range t.Profiles {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, p.Name, p.Region, p.Description) //nolint:errcheck
		}
	}

	return tw.Flush() //nolint:wrapcheck
}

func writeJSON(w io.Writer, tiers []runbatch.Tier) error {
	out := make([]tierListing, len(tiers))
	for i, t := range tiers {
		out[i] = tierListing{Tier: t.Name, Profiles: t.Profiles}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out) //nolint:wrapcheck
}

func writeYAML(w io.Writer, profiles []profile.Profile) error {
	data, err := yaml.Marshal(map[string][]profile.Profile{"profiles": profiles})
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = w.Write(data)

	return err //nolint:wrapcheck
}
