// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyname derives deterministic storage keys for project assets.
//
// Layout:
//
//	{userId}/{name}_{createdDDMMYYYY}/fotos/{uploadDDMMYYYY}{name}_logo.{ext}
//	{userId}/{name}_{createdDDMMYYYY}/fotos/{uploadDDMMYYYY}{name}{NNNN}.{ext}
//	{userId}/{name}_{createdDDMMYYYY}/fotos/{uploadDDMMYYYY}{name}_{label}.{ext}
//
// Keys for the same project, role and calendar day are identical, so a second
// upload on that day overwrites the first.
package keyname

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/types"
)

const (
	dateLayout   = "02012006"
	photosFolder = "fotos"

	logoHint       = "logo"
	additionalHint = "additional-"
)

// RoleKind distinguishes how a file name is derived.
type RoleKind int

const (
	RoleLogo RoleKind = iota
	RoleSequence
	RoleLabel
)

// Role is the role/sequence hint used only to name the stored object.
type Role struct {
	Kind  RoleKind
	Seq   int    // 1-indexed, RoleSequence only
	Label string // RoleLabel only
}

// Logo is the role of the project's logo.
func Logo() Role {
	return Role{Kind: RoleLogo}
}

// Sequence is the role of the n-th (1-indexed) additional image.
func Sequence(n int) Role {
	return Role{Kind: RoleSequence, Seq: n}
}

// Label is a free-form role, typically derived from a document path.
func Label(label string) Role {
	return Role{Kind: RoleLabel, Label: label}
}

// ParseRole maps hints such as "logo" and "additional-2" onto roles.
// "additional-N" is 0-indexed and becomes Sequence(N+1).
func ParseRole(hint string) Role {
	hint = strings.TrimSpace(hint)
	if strings.EqualFold(hint, logoHint) {
		return Logo()
	}
	if rest, ok := strings.CutPrefix(hint, additionalHint); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return Sequence(n + 1)
		}
	}
	return Label(hint)
}

// String renders the role back as a hint.
func (r Role) String() string {
	switch r.Kind {
	case RoleLogo:
		return logoHint
	case RoleSequence:
		return additionalHint + strconv.Itoa(r.Seq-1)
	default:
		return r.Label
	}
}

// Namer builds storage keys, rendering dates in a fixed location.
type Namer struct {
	loc *time.Location
}

// New returns a Namer. A nil location means UTC.
func New(loc *time.Location) *Namer {
	if loc == nil {
		loc = time.UTC
	}
	return &Namer{loc: loc}
}

// BuildKey returns the storage key for one asset of project. The creation
// date keeps the calendar day it was given in; only uploadDate is rendered
// in the Namer's location.
func (n *Namer) BuildKey(project types.ProjectContext, role Role, uploadDate time.Time, ext string) string {
	name := SanitizeName(project.Name)
	folder := fmt.Sprintf("%s_%s", name, project.CreatedAt.Format(dateLayout))
	return strings.Join([]string{
		project.UserID,
		folder,
		photosFolder,
		n.FileName(name, role, uploadDate, ext),
	}, "/")
}

// FileName returns the object file name for an already sanitized project name.
func (n *Namer) FileName(sanitizedName string, role Role, uploadDate time.Time, ext string) string {
	prefix := uploadDate.In(n.loc).Format(dateLayout) + sanitizedName
	ext = strings.TrimPrefix(ext, ".")

	var base string
	switch role.Kind {
	case RoleLogo:
		base = prefix + "_logo"
	case RoleSequence:
		base = fmt.Sprintf("%s%04d", prefix, role.Seq)
	default:
		base = prefix + "_" + sanitizeLabel(role.Label)
	}
	return base + "." + ext
}

// SanitizeName drops every character outside [a-zA-Z0-9].
func SanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return -1
	}, s)
}

// sanitizeLabel keeps [a-zA-Z0-9-] so path-derived hints stay readable.
func sanitizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		if isAlnum(r) || r == '-' {
			return r
		}
		return -1
	}, s)
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
