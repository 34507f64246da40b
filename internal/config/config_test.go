// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViperize(t *testing.T) {
	intFlag := func(fs *flag.FlagSet) {
		fs.Int("some.flag", 17, "test flag")
	}
	v, command := Viperize(intFlag)
	require.NoError(t, command.ParseFlags([]string{"--some.flag=42"}))
	assert.Equal(t, 42, v.GetInt("some.flag"))
}

func TestViperizeEnvOverride(t *testing.T) {
	strFlag := func(fs *flag.FlagSet) {
		fs.String("other.flag", "default", "test flag")
	}
	t.Setenv("OTHER_FLAG", "from-env")
	v, _ := Viperize(strFlag)
	assert.Equal(t, "from-env", v.GetString("other.flag"))
}
