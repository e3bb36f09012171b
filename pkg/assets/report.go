// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"encoding/json"

	"github.com/LeeDigitalWorks/landingpress/pkg/types"
)

// Phases of a walk.
const (
	PhaseKnown   = "known"
	PhaseGeneric = "generic"
)

// LeafResult is the outcome for one reference found in the document.
type LeafResult struct {
	Path   string
	Role   string
	Phase  string
	Result *types.UploadResult
	Err    error
}

// OK reports whether the leaf was persisted.
func (l LeafResult) OK() bool {
	return l.Err == nil && l.Result != nil
}

func (l LeafResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Path   string              `json:"path"`
		Role   string              `json:"role"`
		Phase  string              `json:"phase"`
		Result *types.UploadResult `json:"result,omitempty"`
		Error  string              `json:"error,omitempty"`
		Class  string              `json:"errorClass,omitempty"`
	}{
		Path:   l.Path,
		Role:   l.Role,
		Phase:  l.Phase,
		Result: l.Result,
		Class:  errorClass(l.Err),
	}
	if l.Err != nil {
		out.Error = l.Err.Error()
	}
	return json.Marshal(out)
}

// Report collects per-leaf outcomes in planning order.
type Report struct {
	RunID  string       `json:"runId"`
	Leaves []LeafResult `json:"leaves"`
}

// Uploaded returns the successful leaves.
func (r *Report) Uploaded() []LeafResult {
	return r.filter(true)
}

// Failed returns leaves that were left untouched.
func (r *Report) Failed() []LeafResult {
	return r.filter(false)
}

// Complete reports whether every discovered reference was persisted.
func (r *Report) Complete() bool {
	return len(r.Failed()) == 0
}

func (r *Report) filter(ok bool) []LeafResult {
	var out []LeafResult
	for _, l := range r.Leaves {
		if l.OK() == ok {
			out = append(out, l)
		}
	}
	return out
}
