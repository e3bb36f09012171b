// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package env reports which deployment the process runs in.
package env

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	Local      = "local"
	Production = "production"
	Testing    = "testing"
)

// Env is resolved once at startup from LANDINGPRESS_ENV, falling back to ENV.
var Env = detect(viper.New())

func IsLocal() bool {
	return Env == Local
}

func IsProduction() bool {
	return Env == Production
}

func IsTesting() bool {
	return Env == Testing
}

func detect(v *viper.Viper) string {
	_ = v.BindEnv("env", "LANDINGPRESS_ENV", "ENV")
	return Normalize(v.GetString("env"))
}

// Normalize maps common spellings onto Local, Production or Testing.
// Unknown names are kept lowercased.
func Normalize(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "":
		return Local
	case "prod", "production":
		return Production
	case "test", "testing", "ci":
		return Testing
	case "dev", "development", "local":
		return Local
	default:
		return n
	}
}
