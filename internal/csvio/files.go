// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package csvio

import (
	"os"
	"path/filepath"
	"strings"
)

// LatestMatching returns the most recently modified file under dir whose
// base name matches pattern, or "" when nothing matches.
func LatestMatching(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	latest := ""
	var latestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if latest == "" || info.ModTime().UnixNano() > latestMod {
			latest = m
			latestMod = info.ModTime().UnixNano()
		}
	}
	return latest, nil
}

// ComponentFromFilename extracts the component name from the artifact
// naming convention "<Component>_<kind>_<timestamp>.csv" for the known
// artifact kinds. The second return value is false when the name does not
// follow the convention.
func ComponentFromFilename(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, ".csv") {
		return "", false
	}
	for _, kind := range []string{"_kbbench_results_", "_perftest_summary_"} {
		if i := strings.Index(base, kind); i > 0 {
			return base[:i], true
		}
	}
	return "", false
}
