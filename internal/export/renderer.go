// Package export renders analyses as printable PDF reports.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/unalkalkan/la5asni/internal/planner"
	"github.com/unalkalkan/la5asni/pkg/types"
)

const unicodeFamily = "ReportSans"

// Renderer draws analysis reports. It is safe for concurrent use; every
// Render call builds its own document.
type Renderer struct {
	font []byte // UTF-8 TTF, nil when only core fonts are available
}

// NewRenderer loads the configured report font. Without a font only
// cp1252 text renders correctly, so Arabic reports need font_path.
func NewRenderer(cfg types.ExportConfig) (*Renderer, error) {
	r := &Renderer{}
	if cfg.FontPath == "" {
		return r, nil
	}
	font, err := os.ReadFile(cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report font: %w", err)
	}
	r.font = font
	return r, nil
}

// UnicodeCapable reports whether a UTF-8 font is loaded
func (r *Renderer) UnicodeCapable() bool {
	return r.font != nil
}

// Render writes an A4 report for a. plan is optional; when present its
// days are listed after the modules.
func (r *Renderer) Render(w io.Writer, a *types.Analysis, plan *planner.Plan) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(18, 18, 18)
	doc.SetAutoPageBreak(true, 20)
	doc.SetCreator("la5asni", true)
	doc.SetTitle(reportTitle(a), true)
	doc.AliasNbPages("")

	family := "Helvetica"
	tr := doc.UnicodeTranslatorFromDescriptor("")
	if r.font != nil {
		family = unicodeFamily
		doc.AddUTF8FontFromBytes(family, "", r.font)
		doc.AddUTF8FontFromBytes(family, "B", r.font)
		tr = func(s string) string { return s }
		if a.Language == "ar" {
			doc.RTL()
		}
	}

	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(family, "", 8)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	p := &page{doc: doc, family: family, tr: tr}
	doc.AddPage()

	doc.SetFont(family, "B", 18)
	doc.MultiCell(0, 10, tr(reportTitle(a)), "", "C", false)
	doc.Ln(6)

	p.heading("Summary")
	p.paragraph(a.Summary)

	p.heading("Key Points")
	if len(a.KeyPoints) == 0 {
		p.paragraph("No key points.")
	}
	for _, kp := range a.KeyPoints {
		p.paragraph("- " + kp)
	}

	p.heading("Training Modules")
	if len(a.TrainingModules) == 0 {
		p.paragraph("No modules available.")
	}
	for _, m := range a.TrainingModules {
		doc.SetFont(family, "B", 11)
		doc.MultiCell(0, 7, tr(fmt.Sprintf("%s (%d min)", m.Title, m.EstimatedMinutes)), "", "", false)
		if m.Description != "" {
			p.paragraph(m.Description)
		}
		doc.Ln(2)
	}

	p.heading("Document Statistics")
	p.paragraph(fmt.Sprintf("Pages: %d", a.NumPages))
	p.paragraph(fmt.Sprintf("Useful text: %.0f%%", a.UsefulTextRatio*100))
	p.paragraph(fmt.Sprintf("Key points: %d", a.NumKeyPoints))
	p.paragraph(fmt.Sprintf("Total training time: %d min", a.TotalMinutes()))

	if plan != nil {
		p.heading(fmt.Sprintf("Training Plan (%d min/day)", plan.Capacity.MinutesPerDay))
		for _, day := range plan.Days {
			doc.SetFont(family, "B", 11)
			doc.MultiCell(0, 7, tr(fmt.Sprintf("Day %d (%d min)", day.Number, day.TotalMinutes)), "", "", false)
			for _, s := range day.Sessions {
				p.paragraph(fmt.Sprintf("- %s (%d min)", s.Title, s.Duration))
			}
		}
	}

	if err := doc.Error(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return doc.Output(w)
}

type page struct {
	doc    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func (p *page) heading(text string) {
	p.doc.Ln(3)
	p.doc.SetFont(p.family, "B", 13)
	p.doc.MultiCell(0, 8, p.tr(text), "", "", false)
}

func (p *page) paragraph(text string) {
	p.doc.SetFont(p.family, "", 11)
	p.doc.MultiCell(0, 6, p.tr(text), "", "", false)
}

func reportTitle(a *types.Analysis) string {
	if name := strings.TrimSpace(a.Filename); name != "" {
		return "Training Analysis: " + name
	}
	return "Training Analysis"
}
