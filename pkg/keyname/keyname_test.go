// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package keyname

import (
	"testing"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	project = types.ProjectContext{
		UserID:    "u1",
		Name:      "My Site!",
		CreatedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	uploadDate = time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)
)

func TestBuildKey(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		role Role
		want string
	}{
		{"logo", Logo(), "u1/MySite_05012024/fotos/09032024MySite_logo.jpg"},
		{"first additional", Sequence(1), "u1/MySite_05012024/fotos/09032024MySite0001.jpg"},
		{"twelfth additional", Sequence(12), "u1/MySite_05012024/fotos/09032024MySite0012.jpg"},
		{"label", Label("hero-background"), "u1/MySite_05012024/fotos/09032024MySite_hero-background.jpg"},
		{"label sanitized", Label("sections/0 image"), "u1/MySite_05012024/fotos/09032024MySite_sections0image.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.BuildKey(project, tt.role, uploadDate, "jpg"))
		})
	}
}

func TestBuildKey_Deterministic(t *testing.T) {
	n := New(nil)
	later := uploadDate.Add(3 * time.Hour)
	assert.Equal(t,
		n.BuildKey(project, Logo(), uploadDate, ".jpg"),
		n.BuildKey(project, Logo(), later, "jpg"),
		"same calendar day collides by design")
	assert.NotEqual(t,
		n.BuildKey(project, Logo(), uploadDate, "jpg"),
		n.BuildKey(project, Logo(), uploadDate.AddDate(0, 0, 1), "jpg"))
}

func TestBuildKey_Location(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	n := New(saoPaulo)
	// 01:00 UTC on the 10th is still the 9th in BRT.
	key := n.BuildKey(project, Sequence(1), time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC), "jpg")
	assert.Contains(t, key, "/fotos/09032024MySite0001.jpg")

	created, err := types.ParseDate("2024-01-05")
	require.NoError(t, err)
	saoPauloProject := types.ProjectContext{UserID: "u1", Name: "My Site!", CreatedAt: created}
	assert.Equal(t, "u1/MySite_05012024/fotos/09032024MySite_logo.jpg",
		n.BuildKey(saoPauloProject, Logo(), uploadDate, "jpg"))

	tokyo := New(time.FixedZone("JST", 9*60*60))
	assert.Equal(t, "u1/MySite_05012024/fotos/10032024MySite_logo.jpg",
		tokyo.BuildKey(saoPauloProject, Logo(), time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC), "jpg"))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, Logo(), ParseRole("logo"))
	assert.Equal(t, Logo(), ParseRole("LOGO"))
	assert.Equal(t, Sequence(1), ParseRole("additional-0"))
	assert.Equal(t, Sequence(3), ParseRole("additional-2"))
	assert.Equal(t, Label("additional-x"), ParseRole("additional-x"))
	assert.Equal(t, Label("hero-image"), ParseRole("hero-image"))

	assert.Equal(t, "additional-2", Sequence(3).String())
	assert.Equal(t, "logo", Logo().String())
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "MySite", SanitizeName("My Site!"))
	assert.Equal(t, "ClnicadoSol2024", SanitizeName("Clínica do Sol - 2024"))
	assert.Equal(t, "", SanitizeName("../../"))
}
