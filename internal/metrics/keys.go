// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sort"
	"strings"
)

// GetKey converts a metric name and tags into a deterministic backend key.
func GetKey(name string, tags map[string]string, tagsSep string, tagKVSep string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := name
	for _, k := range keys {
		key += tagsSep + k + tagKVSep + tags[k]
	}
	return key
}

func mergeTags(a, b map[string]string) map[string]string {
	merged := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	return merged
}

func scopedName(scope, name string) string {
	if scope == "" {
		return name
	}
	if name == "" {
		return scope
	}
	return strings.Join([]string{scope, name}, ".")
}
