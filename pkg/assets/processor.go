// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package assets persists the ephemeral image references of a project data
// document to object storage and rewrites them in place with public URLs.
//
// A run has two phases over one document: the known-shape fields
// (visualIdentity.logoUrl and additionalResources.images) are planned first,
// then every remaining string leaf is sniffed by prefix. Each leaf uploads
// independently; a failed leaf keeps its original value and is reported.
package assets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const fieldProjectID = "projectId"

// ProjectStore looks up the owning project of a document.
type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (types.ProjectContext, error)
}

// Processor is the pipeline entry point.
type Processor struct {
	uploader *Uploader
	walker   *Walker
	projects ProjectStore
}

// NewProcessor creates a Processor. projects may be nil when callers always
// pass a ProjectContext.
func NewProcessor(uploader *Uploader, walker *Walker, projects ProjectStore) *Processor {
	return &Processor{uploader: uploader, walker: walker, projects: projects}
}

// Uploader returns the single-asset uploader used by the processor.
func (p *Processor) Uploader() *Uploader {
	return p.uploader
}

// ProcessDocument persists every image reference in doc and rewrites it in
// place. When project is nil it is looked up once from the document's
// projectId.
//
// Leaf failures never produce an error; they are listed in the report and the
// leaf keeps its original value. An error is returned only when the run could
// not start, when fail-fast stopped it after a storage outage, or when ctx
// ended before every leaf was attempted. In those cases doc and the report
// still reflect the leaves that were persisted.
func (p *Processor) ProcessDocument(ctx context.Context, doc *Node, project *types.ProjectContext) (*Node, *Report, error) {
	runID := uuid.NewString()
	ctx, log := logger.With(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("run_id", runID)
	})
	report := &Report{RunID: runID}

	if doc == nil {
		return nil, report, fmt.Errorf("process document: document is required")
	}

	pc, err := p.projectContext(ctx, doc, project)
	if err != nil {
		return doc, report, err
	}

	s, err := p.uploader.session(ctx)
	if err != nil {
		return doc, report, fmt.Errorf("process document: %w", err)
	}

	leaves, err := p.walker.walk(ctx, s, doc, pc)
	report.Leaves = leaves

	log.Info().
		Str("user_id", pc.UserID).
		Int("references", len(leaves)).
		Int("uploaded", len(report.Uploaded())).
		Int("failed", len(report.Failed())).
		Msg("document processed")

	if err != nil {
		return doc, report, fmt.Errorf("process document: aborted: %w", err)
	}
	return doc, report, nil
}

func (p *Processor) projectContext(ctx context.Context, doc *Node, project *types.ProjectContext) (types.ProjectContext, error) {
	if project != nil {
		if err := project.Validate(); err != nil {
			return types.ProjectContext{}, fmt.Errorf("%w: %w", ErrProjectContextRequired, err)
		}
		return *project, nil
	}

	id := projectID(doc)
	if id == "" {
		return types.ProjectContext{}, fmt.Errorf("%w: no context and no %s in document", ErrProjectContextRequired, fieldProjectID)
	}
	if p.projects == nil {
		return types.ProjectContext{}, fmt.Errorf("%w: no project store configured", ErrProjectContextRequired)
	}

	pc, err := p.projects.GetProject(ctx, id)
	if err != nil {
		return types.ProjectContext{}, fmt.Errorf("%w: lookup project %s: %w", ErrProjectContextRequired, id, err)
	}
	if err := pc.Validate(); err != nil {
		return types.ProjectContext{}, fmt.Errorf("%w: %w", ErrProjectContextRequired, err)
	}
	return pc, nil
}

func projectID(doc *Node) string {
	n := doc.Get(fieldProjectID)
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindString:
		return strings.TrimSpace(n.Str)
	case KindNumber:
		return n.Num.String()
	default:
		return ""
	}
}

// RemainingReferences lists the paths of string leaves that still hold
// ephemeral (data: or blob:) references. Callers that need all-or-nothing
// semantics can treat a non-empty result as failure.
func RemainingReferences(doc *Node) []string {
	var paths []string
	var visit func(n *Node, path string)
	visit = func(n *Node, path string) {
		if n == nil {
			return
		}
		switch n.Kind {
		case KindString:
			if Classify(n.Str).Ephemeral() {
				paths = append(paths, path)
			}
		case KindObject:
			for _, f := range n.Fields {
				childPath := f.Key
				if path != "" {
					childPath = path + "." + f.Key
				}
				visit(f.Value, childPath)
			}
		case KindArray:
			for i, item := range n.Items {
				visit(item, path+"["+strconv.Itoa(i)+"]")
			}
		}
	}
	visit(doc, "")
	return paths
}
