// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrReadProfiles is returned when the profiles file cannot be read.
	ErrReadProfiles = errors.New("failed to read profiles file")
	// ErrParseProfiles is returned when the profiles file is not valid YAML or HCL.
	ErrParseProfiles = errors.New("failed to parse profiles file")
	// ErrUnknownFormat is returned for file extensions other than .yaml, .yml and .hcl.
	ErrUnknownFormat = errors.New("unknown profiles file format, expected .yaml, .yml or .hcl")
	// ErrInvalidProfiles is returned when the loaded profiles fail validation.
	ErrInvalidProfiles = errors.New("invalid profiles")
	// ErrEmptyName is returned for a profile without a name.
	ErrEmptyName = errors.New("profile name must not be empty")
	// ErrDuplicateName is returned when two profiles share a name.
	ErrDuplicateName = errors.New("duplicate profile name")
)

// FsFactory returns the filesystem profiles are read from. Tests swap it for a memory fs.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

type yamlFile struct {
	Profiles []Profile            `yaml:"profiles"`
	Groups   map[string][]Profile `yaml:"groups"`
}

type hclFile struct {
	Profiles []hclProfile `hcl:"profile,block"`
}

type hclProfile struct {
	Name        string            `hcl:"name,label"`
	Tier        string            `hcl:"tier,optional"`
	Region      string            `hcl:"region,optional"`
	Description string            `hcl:"description,optional"`
	Env         map[string]string `hcl:"env,optional"`
}

// LoadFile reads path from FsFactory and returns a validated registry.
func LoadFile(path string) (*StaticRegistry, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadProfiles, err)
	}

	return LoadBytes(path, data)
}

// LoadBytes parses data, choosing the format from the extension of name.
func LoadBytes(name string, data []byte) (*StaticRegistry, error) {
	var (
		profiles []Profile
		err      error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		profiles, err = parseYAML(data)
	case ".hcl":
		profiles, err = parseHCL(name, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}

	if err != nil {
		return nil, err
	}

	if err := Validate(profiles); err != nil {
		return nil, err
	}

	return NewStaticRegistry(profiles...), nil
}

// parseYAML accepts a flat `profiles:` list and/or a `groups:` map whose key is the
// default tier of its members. Groups are appended in key order.
func parseYAML(data []byte) ([]Profile, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrParseProfiles, err)
	}

	out := slices.Clone(f.Profiles)

	keys := make([]string, 0, len(f.Groups))
	for k := range f.Groups {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		for _, p := range f.Groups[k] {
			if p.Tier == "" {
				p.Tier = k
			}

			out = append(out, p)
		}
	}

	return out, nil
}

// parseHCL decodes `profile "<name>" { ... }` blocks. Expressions may read the
// process environment through the `env` object, e.g. `region = env.AWS_REGION`.
func parseHCL(name string, data []byte) ([]Profile, error) {
	file, diags := hclsyntax.ParseConfig(data, name, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Join(ErrParseProfiles, diagErrors(diags))
	}

	var f hclFile
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &f); diags.HasErrors() {
		return nil, errors.Join(ErrParseProfiles, diagErrors(diags))
	}

	out := make([]Profile, 0, len(f.Profiles))
	for _, p := range f.Profiles {
		out = append(out, Profile{
			Name:        p.Name,
			Tier:        p.Tier,
			Region:      p.Region,
			Description: p.Description,
			Env:         p.Env,
		})
	}

	return out, nil
}

func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func diagErrors(diags hcl.Diagnostics) error {
	var err error
	for _, e := range diags.Errs() {
		err = multierror.Append(err, e)
	}

	return err
}

// Validate reports every empty or duplicated profile name.
func Validate(profiles []Profile) error {
	var result *multierror.Error

	seen := make(map[string]struct{}, len(profiles))

	for i, p := range profiles {
		if strings.TrimSpace(p.Name) == "" {
			result = multierror.Append(result, fmt.Errorf("%w (entry %d)", ErrEmptyName, i))
			continue
		}

		if _, ok := seen[p.Name]; ok {
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrDuplicateName, p.Name))
			continue
		}

		seen[p.Name] = struct{}{}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Join(ErrInvalidProfiles, err)
	}

	return nil
}
