package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/frame-labeler/internal/model"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// Report formats accepted by WriteReport.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

// FileResult is the outcome of classifying one image file.
type FileResult struct {
	Err         error
	Path        string
	Predictions model.Predictions
	Duration    time.Duration
}

type fileReport struct {
	Path        string             `yaml:"path"`
	Error       string             `yaml:"error,omitempty"`
	Predictions []model.Prediction `yaml:"predictions,omitempty"`
	DurationMS  int64              `yaml:"duration_ms"`
}

// WriteReport writes results in the given format, keeping the top
// predictions of each file. top <= 0 keeps all of them.
func WriteReport(w io.Writer, results []FileResult, format string, top int) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return writeTable(w, results, top)
	case FormatYAML:
		return writeYAML(w, results, top)
	default:
		return fmt.Errorf("unsupported output format %q (want table or yaml)", format)
	}
}

func keep(preds model.Predictions, top int) model.Predictions {
	if top <= 0 {
		return preds.Clone()
	}
	return preds.TopN(top)
}

func writeYAML(w io.Writer, results []FileResult, top int) error {
	reports := make([]fileReport, 0, len(results))
	for _, r := range results {
		rep := fileReport{
			Path:       r.Path,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			rep.Error = r.Err.Error()
		} else {
			rep.Predictions = keep(r.Predictions, top)
		}
		reports = append(reports, rep)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return enc.Close()
}

func writeTable(w io.Writer, results []FileResult, top int) error {
	pathWidth := runewidth.StringWidth("FILE")
	for _, r := range results {
		pathWidth = max(pathWidth, runewidth.StringWidth(r.Path))
	}
	pathWidth = min(pathWidth, 48)

	var sb strings.Builder
	sb.WriteString(TableHeaderStyle.Render(runewidth.FillRight("FILE", pathWidth) + "  RESULT"))
	sb.WriteByte('\n')

	for _, r := range results {
		path := runewidth.FillRight(runewidth.Truncate(r.Path, pathWidth, "…"), pathWidth)
		sb.WriteString(path)
		sb.WriteString("  ")

		switch {
		case r.Err != nil:
			sb.WriteString(FormatError(r.Err.Error()))
		case len(r.Predictions) == 0:
			sb.WriteString(WarningStyle.Render("no target"))
		default:
			parts := make([]string, 0, len(r.Predictions))
			for _, p := range keep(r.Predictions, top) {
				parts = append(parts, fmt.Sprintf("%s %s", p.Label, BoldStyle.Render(p.ConfidenceText())))
			}
			sb.WriteString(strings.Join(parts, SubtleStyle.Render(" · ")))
		}
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Summary describes a batch in one line.
func Summary(results []FileResult, elapsed time.Duration) string {
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	msg := fmt.Sprintf("Classified %d of %d files in %s", len(results)-failed, len(results), elapsed.Round(time.Millisecond))
	if failed > 0 {
		return FormatWarning(fmt.Sprintf("%s, %d failed", msg, failed))
	}
	return FormatSuccess(msg)
}
