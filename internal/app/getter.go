// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
)

// ErrFetchFile is returned when a profiles file cannot be fetched.
var ErrFetchFile = errors.New("failed to fetch file")

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // scheme, host and path
)

// FetchFile retrieves src using go-getter syntax, so profiles can live in a
// local file, a git repository, an S3 bucket or behind HTTP.
// The temporary download directory is removed before returning.
func FetchFile(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, ErrFetchFile
	}

	tmpDir, err := os.MkdirTemp("", "fanrun-getter-*")
	if err != nil {
		return nil, errors.Join(ErrFetchFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrFetchFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     src,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string

	// Remote sources are fetched as a directory and the file is read from it.
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return nil, errors.Join(ErrFetchFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(src)
		if newURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL format: %s", ErrFetchFile, src)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(src)
		fileName = filepath.Base(src)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrFetchFile, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrFetchFile, err)
	}

	return data, nil
}

// splitFileNameFromGetterURL returns the getter URL of the directory holding the
// file, with any ref query re-attached, and the file name.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]
	if path, query, ok := strings.Cut(last, goGetterRefSeparator); ok {
		ref = query
		last = path
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)
	parts[len(parts)-1] = filepath.Dir(last)

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1]
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
