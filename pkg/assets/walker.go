// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/keyname"
	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/types"

	"golang.org/x/sync/errgroup"
)

// Known-shape locations of the project data document.
const (
	fieldVisualIdentity      = "visualIdentity"
	fieldLogoURL             = "logoUrl"
	fieldAdditionalResources = "additionalResources"
	fieldImages              = "images"
	fieldURL                 = "url"
)

const DefaultLeafTimeout = 30 * time.Second

// WalkerOptions configures a Walker
type WalkerOptions struct {
	// Concurrency bounds parallel uploads; 1 uploads strictly in order.
	Concurrency int
	// LeafTimeout bounds each leaf independently.
	LeafTimeout time.Duration
	// ScanRemoteURLs makes the generic scan treat http(s) strings as references.
	// Known-shape fields always accept them.
	ScanRemoteURLs bool
	// FailFast skips the remaining leaves after the first storage outage.
	FailFast bool
}

// task is one planned upload. node is the string leaf rewritten on success.
type task struct {
	path  string
	phase string
	role  keyname.Role
	node  *Node
}

// Walker finds image references in a document and replaces them with
// persisted URLs.
type Walker struct {
	opts WalkerOptions
}

// NewWalker creates a Walker.
func NewWalker(opts WalkerOptions) *Walker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.LeafTimeout <= 0 {
		opts.LeafTimeout = DefaultLeafTimeout
	}
	return &Walker{opts: opts}
}

// plan collects every upload in declaration order: known-shape fields first,
// then the generic scan. Roles, and therefore storage keys, are fixed here
// before any upload is dispatched.
func (w *Walker) plan(doc *Node, publicPrefix string) []task {
	var tasks []task
	skip := make(map[*Node]bool)

	if vi := doc.Get(fieldVisualIdentity); vi != nil {
		if logo := vi.Get(fieldLogoURL); logo.IsString() {
			skip[logo] = true
			if w.isReference(logo.Str, true, publicPrefix) {
				tasks = append(tasks, task{
					path:  fieldVisualIdentity + "." + fieldLogoURL,
					phase: PhaseKnown,
					role:  keyname.Logo(),
					node:  logo,
				})
			}
		}
	}

	// A malformed images value is left to the generic scan.
	if images := doc.Get(fieldAdditionalResources).Get(fieldImages); images != nil && images.Kind == KindArray {
		skip[images] = true
		base := fieldAdditionalResources + "." + fieldImages
		for i, item := range images.Items {
			leaf, path := item, fmt.Sprintf("%s[%d]", base, i)
			if item != nil && item.Kind == KindObject {
				leaf, path = item.Get(fieldURL), path+"."+fieldURL
			}
			if leaf.IsString() && w.isReference(leaf.Str, true, publicPrefix) {
				tasks = append(tasks, task{
					path:  path,
					phase: PhaseKnown,
					role:  keyname.Sequence(i + 1),
					node:  leaf,
				})
			}
		}
	}

	w.scan(doc, "", "", skip, publicPrefix, &tasks)
	return tasks
}

// scan walks n depth-first. parent is the name of the nearest enclosing
// member (array indices appended) and feeds the "parent-field" role hint.
func (w *Walker) scan(n *Node, parent, path string, skip map[*Node]bool, publicPrefix string, tasks *[]task) {
	if n == nil {
		return
	}

	visit := func(child *Node, field, childPath, childParent string) {
		if child == nil || skip[child] {
			return
		}
		if child.IsString() {
			if w.isReference(child.Str, false, publicPrefix) {
				*tasks = append(*tasks, task{
					path:  childPath,
					phase: PhaseGeneric,
					role:  keyname.Label(roleHint(parent, field)),
					node:  child,
				})
			}
			return
		}
		w.scan(child, childParent, childPath, skip, publicPrefix, tasks)
	}

	switch n.Kind {
	case KindObject:
		for _, f := range n.Fields {
			childPath := f.Key
			if path != "" {
				childPath = path + "." + f.Key
			}
			visit(f.Value, f.Key, childPath, f.Key)
		}
	case KindArray:
		for i, item := range n.Items {
			idx := strconv.Itoa(i)
			visit(item, idx, path+"["+idx+"]", parent+idx)
		}
	}
}

func roleHint(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "-" + field
}

func (w *Walker) isReference(s string, knownShape bool, publicPrefix string) bool {
	if isPersisted(s, publicPrefix) {
		return false
	}
	kind := Classify(s)
	if kind.Ephemeral() {
		return true
	}
	return kind == RefRemote && (knownShape || w.opts.ScanRemoteURLs)
}

// walk plans and dispatches every upload, rewriting successful leaves in place.
// The returned error is non-nil when FailFast aborted the run or ctx ended
// before every leaf was attempted.
func (w *Walker) walk(ctx context.Context, s *session, doc *Node, project types.ProjectContext) ([]LeafResult, error) {
	tasks := w.plan(doc, s.prefix)
	results := make([]LeafResult, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)

	for i, t := range tasks {
		results[i] = LeafResult{Path: t.path, Role: t.role.String(), Phase: t.phase}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = fmt.Errorf("%w: %w", ErrSkipped, err)
				uploadsTotal.WithLabelValues(t.phase, "skipped").Inc()
				return nil
			}

			leafCtx, cancel := context.WithTimeout(gctx, w.opts.LeafTimeout)
			res, err := s.upload(leafCtx, t.node.Str, project, t.role)
			cancel()

			if err != nil {
				results[i].Err = err
				uploadsTotal.WithLabelValues(t.phase, "failed").Inc()
				logger.Ctx(ctx).Warn().Err(err).
					Str("path", t.path).
					Str("role", t.role.String()).
					Str("error_class", errorClass(err)).
					Msg("asset upload failed, leaving reference in place")
				if w.opts.FailFast && errors.Is(err, ErrStorageUnavailable) {
					return err
				}
				return nil
			}

			t.node.Str = res.URL
			results[i].Result = &res
			uploadsTotal.WithLabelValues(t.phase, "ok").Inc()
			logger.Ctx(ctx).Info().
				Str("path", t.path).
				Str("key", res.Key).
				Msg("asset persisted")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		for _, r := range results {
			if errors.Is(r.Err, ErrSkipped) {
				return results, err
			}
		}
	}
	return results, nil
}
