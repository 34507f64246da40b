// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package app holds the pieces shared by the loadline subcommands.
package app

import (
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	outputDir         = "output.dir"
	outputComponent   = "output.component"
	adminHTTPHostPort = "admin.http.host-port"

	artifactTimestampLayout = "20060102_150405"
)

// OutputOptions says where artifacts go and which component name they are
// stamped with.
type OutputOptions struct {
	Dir       string
	Component string
}

// AddOutputFlags registers the artifact output flags with the given default
// component name.
func AddOutputFlags(defaultComponent string) func(*flag.FlagSet) {
	return func(flagSet *flag.FlagSet) {
		flagSet.String(outputDir, "datas", "Directory for result artifacts")
		flagSet.String(outputComponent, defaultComponent, "Component name embedded in artifact file names")
	}
}

// InitFromViper initializes OutputOptions with values from Viper.
func (opts *OutputOptions) InitFromViper(v *viper.Viper) *OutputOptions {
	opts.Dir = v.GetString(outputDir)
	opts.Component = v.GetString(outputComponent)
	return opts
}

// ArtifactPath builds "<dir>/<Component>_<kind>_<timestamp>.csv", the naming
// convention the discovery side of the pipeline relies on.
func (opts *OutputOptions) ArtifactPath(kind string, now time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.csv", opts.Component, kind, now.Format(artifactTimestampLayout))
	return filepath.Join(opts.Dir, name)
}

// AddAdminFlags registers the admin server flag.
func AddAdminFlags(flagSet *flag.FlagSet) {
	flagSet.String(adminHTTPHostPort, "", "host:port of the admin server exposing /metrics and /version; empty disables it")
}

// AdminHostPort reads the admin server address from Viper.
func AdminHostPort(v *viper.Viper) string {
	return v.GetString(adminHTTPHostPort)
}
