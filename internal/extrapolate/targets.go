// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package extrapolate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/loadline/loadline/internal/model"
)

// Default latency bounds applied when a target omits its constraint.
const (
	defaultDBMaxLatencyMS = 1000
	defaultMQMaxP95MS     = 2000
)

// DBTarget is the objective for a transactional component.
type DBTarget struct {
	// TargetTPS is the throughput the sized environment must sustain.
	TargetTPS float64
	// MaxLatencyMS excludes baselines measured above this latency.
	MaxLatencyMS float64
}

// MQTarget is the objective for a messaging component.
type MQTarget struct {
	TargetMsgPerSec float64
	MaxP95MS        float64
}

// Targets is a set of objectives, grouped by component family.
type Targets struct {
	DB []DBTarget
	MQ []MQTarget
}

type rawTarget struct {
	ComponentType   model.ComponentType `json:"component_type"`
	TargetTPS       float64             `json:"target_tps"`
	MaxLatencyMS    float64             `json:"max_latency_ms"`
	TargetMsgPerSec float64             `json:"target_msg_per_sec"`
	MaxP95MS        float64             `json:"max_p95_ms"`
}

// LoadTargets reads a JSON array of objectives. Each entry is tagged with
// component_type; missing latency bounds get family defaults.
func LoadTargets(path string) (*Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SLO targets: %w", err)
	}
	return ParseTargets(data)
}

// ParseTargets parses and validates the JSON form of Targets.
func ParseTargets(data []byte) (*Targets, error) {
	var raw []rawTarget
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing SLO targets: %w", err)
	}
	targets := &Targets{}
	for i, r := range raw {
		switch r.ComponentType {
		case model.ComponentDB:
			if r.TargetTPS <= 0 {
				return nil, fmt.Errorf("target %d: target_tps must be greater than 0", i)
			}
			if r.MaxLatencyMS == 0 {
				r.MaxLatencyMS = defaultDBMaxLatencyMS
			}
			targets.DB = append(targets.DB, DBTarget{TargetTPS: r.TargetTPS, MaxLatencyMS: r.MaxLatencyMS})
		case model.ComponentMQ:
			if r.TargetMsgPerSec <= 0 {
				return nil, fmt.Errorf("target %d: target_msg_per_sec must be greater than 0", i)
			}
			if r.MaxP95MS == 0 {
				r.MaxP95MS = defaultMQMaxP95MS
			}
			targets.MQ = append(targets.MQ, MQTarget{TargetMsgPerSec: r.TargetMsgPerSec, MaxP95MS: r.MaxP95MS})
		default:
			return nil, fmt.Errorf("target %d: unknown component_type %q", i, r.ComponentType)
		}
	}
	return targets, nil
}
