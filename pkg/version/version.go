// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package version

import "fmt"

// Values are set by the build via -ldflags.
var (
	commitSHA     string
	latestVersion string
	date          string
)

// Info holds build information.
type Info struct {
	GitCommit  string `json:"gitCommit"`
	GitVersion string `json:"gitVersion"`
	BuildDate  string `json:"buildDate"`
}

// Get creates and initialized Info object.
func Get() Info {
	return Info{
		GitCommit:  commitSHA,
		GitVersion: latestVersion,
		BuildDate:  date,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("git-commit=%s, git-version=%s, build-date=%s",
		i.GitCommit, i.GitVersion, i.BuildDate)
}
