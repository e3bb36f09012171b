// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/LeeDigitalWorks/landingpress/pkg/assets"
	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/types"
	"github.com/LeeDigitalWorks/landingpress/pkg/utils"

	"github.com/spf13/cobra"
)

type IngestOpts struct {
	Input       string
	Output      string
	ReportPath  string
	UserID      string
	ProjectName string
	CreatedAt   string
	ProjectID   string
	Strict      bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Persist the images of a project document",
	Long: `Read a project data document, upload every image reference it holds
(data: URIs, blob: references and the known logo and gallery fields) to
object storage, and write the rewritten document.

The project context comes from --user_id/--project_name/--created_at, or is
looked up by --project_id (or the document's projectId) in the postgres store.`,
	Run: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	f := ingestCmd.Flags()
	f.String("input", "-", "Project document to read (- for stdin)")
	f.String("output", "-", "Where to write the rewritten document (- for stdout)")
	f.String("report", "", "Optional path for the JSON upload report")
	f.String("user_id", "", "Owner of the project")
	f.String("project_name", "", "Project name")
	f.String("created_at", "", "Project creation date (YYYY-MM-DD or RFC 3339)")
	f.String("project_id", "", "Look the project up by id instead of passing its context")
	f.Bool("strict", false, "Exit non-zero when any reference could not be persisted")
	addPipelineFlags(f)
}

func runIngest(cmd *cobra.Command, args []string) {
	utils.LoadConfiguration("landingpress", false)
	f := NewFlagLoader(cmd)
	opts := IngestOpts{
		Input:       f.String("input"),
		Output:      f.String("output"),
		ReportPath:  f.String("report"),
		UserID:      f.String("user_id"),
		ProjectName: f.String("project_name"),
		CreatedAt:   f.String("created_at"),
		ProjectID:   f.String("project_id"),
		Strict:      f.Bool("strict"),
	}

	p, err := buildPipeline(cmd.Context(), loadPipelineOpts(cmd))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}
	defer p.Close()

	if err := ingest(cmd.Context(), p, opts, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		logger.Fatal().Err(err).Msg("ingest failed")
	}
}

func ingest(ctx context.Context, p *pipeline, opts IngestOpts, stdin io.Reader, stdout io.Writer) error {
	raw, err := readInput(opts.Input, stdin)
	if err != nil {
		return err
	}
	doc, err := assets.ParseDocument(raw)
	if err != nil {
		return err
	}

	project, err := ingestContext(ctx, p, opts)
	if err != nil {
		return err
	}

	doc, report, runErr := p.processor.ProcessDocument(ctx, doc, project)
	// A storage outage still yields a partially rewritten document worth keeping.
	if runErr != nil && !errors.Is(runErr, assets.ErrStorageUnavailable) {
		return runErr
	}

	out, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := writeOutput(opts.Output, stdout, append(out, '\n')); err != nil {
		return err
	}

	if opts.ReportPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(opts.ReportPath, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if remaining := assets.RemainingReferences(doc); opts.Strict && len(remaining) > 0 {
		return fmt.Errorf("%d references were not persisted: %s", len(remaining), strings.Join(remaining, ", "))
	}
	return nil
}

// ingestContext returns the explicit project context, the one looked up by
// --project_id, or nil to let the processor use the document's projectId.
func ingestContext(ctx context.Context, p *pipeline, opts IngestOpts) (*types.ProjectContext, error) {
	if opts.UserID != "" {
		pc := types.ProjectContext{UserID: opts.UserID, Name: opts.ProjectName}
		if opts.CreatedAt != "" {
			t, err := types.ParseDate(opts.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("created_at: %w", err)
			}
			pc.CreatedAt = t
		}
		return &pc, nil
	}
	if opts.ProjectID == "" {
		return nil, nil
	}
	if p.projects == nil {
		return nil, fmt.Errorf("--project_id needs config_source=postgres")
	}
	pc, err := p.projects.GetProject(ctx, opts.ProjectID)
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(utils.ResolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(utils.ResolvePath(path), data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
