// Package packaging bundles a stored analysis, its report and its source
// document into a single ZIP archive.
package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/unalkalkan/la5asni/internal/export"
	"github.com/unalkalkan/la5asni/internal/planner"
	"github.com/unalkalkan/la5asni/internal/repository"
	"github.com/unalkalkan/la5asni/internal/storage"
	"github.com/unalkalkan/la5asni/pkg/types"
)

// bundleVersion is bumped whenever the archive layout changes
const bundleVersion = "1"

// Service handles analysis packaging into ZIP archives
type Service struct {
	repo     repository.Repository
	renderer *export.Renderer
	now      func() time.Time
}

// NewService creates a new packaging service
func NewService(repo repository.Repository, renderer *export.Renderer) *Service {
	return &Service{
		repo:     repo,
		renderer: renderer,
		now:      time.Now,
	}
}

// Manifest describes the archive contents
type Manifest struct {
	AnalysisID   string     `json:"analysis_id"`
	Filename     string     `json:"filename,omitempty"`
	Language     string     `json:"language,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	PackagedAt   time.Time  `json:"packaged_at"`
	Modules      int        `json:"modules"`
	TotalMinutes int        `json:"total_minutes"`
	PlanDays     int        `json:"plan_days,omitempty"`
	Files        []string   `json:"files"`
	Version      string     `json:"version"`
}

// PackageAnalysis creates a ZIP archive holding manifest.json,
// analysis.json, report.pdf, plan.json when plan is set, and the uploaded
// document under source/ when it was stored.
func (s *Service) PackageAnalysis(ctx context.Context, id string, plan *planner.Plan) (io.Reader, error) {
	analysis, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	source, format, err := s.repo.GetSource(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to get source document: %w", err)
	}

	var report bytes.Buffer
	if err := s.renderer.Render(&report, analysis, plan); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	files := []string{"analysis.json", "report.pdf"}
	if plan != nil {
		files = append(files, "plan.json")
	}
	sourcePath := ""
	if source != nil {
		sourcePath = "source/" + sourceName(analysis, format)
		files = append(files, sourcePath)
	}

	manifest := s.generateManifest(analysis, plan, files)
	if err := addJSONFile(zipWriter, "manifest.json", manifest); err != nil {
		return nil, fmt.Errorf("failed to add manifest: %w", err)
	}
	if err := addJSONFile(zipWriter, "analysis.json", analysis); err != nil {
		return nil, fmt.Errorf("failed to add analysis: %w", err)
	}
	if err := addFileFromReader(zipWriter, "report.pdf", &report); err != nil {
		return nil, fmt.Errorf("failed to add report: %w", err)
	}
	if plan != nil {
		if err := addJSONFile(zipWriter, "plan.json", plan.Days); err != nil {
			return nil, fmt.Errorf("failed to add plan: %w", err)
		}
	}
	if source != nil {
		if err := addFileFromReader(zipWriter, sourcePath, bytes.NewReader(source)); err != nil {
			return nil, fmt.Errorf("failed to add source document: %w", err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

func (s *Service) generateManifest(a *types.Analysis, plan *planner.Plan, files []string) *Manifest {
	m := &Manifest{
		AnalysisID:   a.ID,
		Filename:     a.Filename,
		Language:     a.Language,
		Provider:     a.Provider,
		CreatedAt:    a.CreatedAt,
		PackagedAt:   s.now().UTC(),
		Modules:      len(a.TrainingModules),
		TotalMinutes: a.TotalMinutes(),
		Files:        files,
		Version:      bundleVersion,
	}
	if plan != nil {
		m.PlanDays = len(plan.Days)
	}
	return m
}

// sourceName keeps the uploaded base name, falling back to document.<ext>
func sourceName(a *types.Analysis, format string) string {
	name := path.Base(strings.ReplaceAll(a.Filename, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "document." + format
	}
	return name
}

// addJSONFile adds a JSON file to the ZIP
func addJSONFile(zipWriter *zip.Writer, name string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	writer, err := zipWriter.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := writer.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}

// addFileFromReader adds a file from an io.Reader to the ZIP
func addFileFromReader(zipWriter *zip.Writer, name string, reader io.Reader) error {
	writer, err := zipWriter.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := io.Copy(writer, reader); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}

	return nil
}
