// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package testutils provides shared helpers for tests.
package testutils

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyGoLeaks verifies that no goroutines are leaked at the end of a
// package's tests. Call it from TestMain.
func VerifyGoLeaks(m *testing.M) {
	goleak.VerifyTestMain(m)
}
