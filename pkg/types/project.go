// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ProjectContext identifies the project that owns the assets of a document.
type ProjectContext struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate reports whether the context carries enough to derive storage keys.
func (p ProjectContext) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("project context: user id is required")
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("project context: creation date is required")
	}
	return nil
}

func (p *ProjectContext) UnmarshalJSON(data []byte) error {
	var aux struct {
		UserID    string `json:"userId"`
		Name      string `json:"name"`
		CreatedAt string `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.UserID = aux.UserID
	p.Name = aux.Name
	p.CreatedAt = time.Time{}
	if aux.CreatedAt != "" {
		t, err := ParseDate(aux.CreatedAt)
		if err != nil {
			return err
		}
		p.CreatedAt = t
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// UploadResult describes one persisted object.
type UploadResult struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}
