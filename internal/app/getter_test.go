// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchFile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		src      string
		wantErr  error
		contains string
	}{
		{
			name:    "empty source returns error",
			src:     "",
			wantErr: ErrFetchFile,
		},
		{
			name:    "unreachable remote returns error",
			src:     "git::http://notexist//profiles.yaml",
			wantErr: ErrFetchFile,
		},
		{
			name:     "local file",
			src:      "./testdata/profiles.yaml",
			contains: "sandbox-eu",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := FetchFile(context.Background(), tc.src)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, data)

				return
			}

			require.NoError(t, err)
			assert.Contains(t, string(data), tc.contains)
		})
	}
}

func TestSplitFileNameFromGetterURL(t *testing.T) {
	testCases := []struct {
		url      string
		wantURL  string
		wantFile string
	}{
		{
			url:      "git::https://github.com/org/infra.git//profiles.yaml",
			wantURL:  "git::https://github.com/org/infra.git",
			wantFile: "profiles.yaml",
		},
		{
			url:      "git::https://github.com/org/infra.git//envs/profiles.hcl?ref=v1.2.0",
			wantURL:  "git::https://github.com/org/infra.git//envs?ref=v1.2.0",
			wantFile: "profiles.hcl",
		},
		{
			url: "https://example.com/profiles.yaml",
		},
		{
			url: "git::https://github.com/org/infra.git//",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			gotURL, gotFile := splitFileNameFromGetterURL(tc.url)
			assert.Equal(t, tc.wantURL, gotURL)
			assert.Equal(t, tc.wantFile, gotFile)
		})
	}
}
