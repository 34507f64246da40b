// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package testutils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// NewLogger creates a logger that records entries in memory so tests can
// assert on what was logged.
func NewLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}
