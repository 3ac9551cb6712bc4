// Package report assembles the final eligibility report from a scoring
// result, optionally enriched with AI suggestions.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aivira/grantdna/internal/enrich"
	"github.com/aivira/grantdna/internal/model"
	"github.com/aivira/grantdna/internal/scoring"
)

// Confidence labels derived from the best-match score.
const (
	ConfidenceHigh   = "High Confidence"
	ConfidenceMedium = "Medium Confidence"
	ConfidenceLow    = "Low Confidence"
)

// Assembler builds Reports. The enricher may be nil, in which case the
// static fallback content is used directly.
type Assembler struct {
	enricher enrich.Enricher
}

// New creates an Assembler.
func New(e enrich.Enricher) *Assembler {
	return &Assembler{enricher: e}
}

// Assemble combines answers and the scoring result into an immutable Report.
// It never fails: enrichment errors are absorbed into the fallback tables,
// so the caller always gets a complete report.
func (as *Assembler) Assemble(ctx context.Context, a model.Answers, res scoring.Result) model.Report {
	best := res.BestMatch

	enrichment := enrich.Fallback(best.Program)
	if as.enricher != nil {
		e, err := as.enricher.Enrich(ctx, a, best.Program)
		if err != nil {
			slog.Warn("enrichment failed, using fallback", "program", best.Program, "error", err)
		} else {
			enrichment = e
		}
	}

	return model.Report{
		Score:      best.Score,
		Confidence: ConfidenceFor(best.Score),
		Category:   res.Category,
		Program:    best.Program,
		Summary:    Summary(a),
		FitReasons: FitReasons(a, best.Program),
		Enrichment: enrichment,
		Snapshot: model.Snapshot{
			PrimaryGoal:        a.PrimaryGoal,
			EstimatedBudget:    a.EstimatedBudget,
			StartTimeline:      a.StartTimeline,
			ProjectDescription: a.ProjectDescription,
		},
		Identity: model.Identity{
			Name:        a.Name,
			CompanyName: a.CompanyName,
			Email:       a.Email,
		},
		Metadata: model.ReportMeta{
			CreatedAt: time.Now().UTC(),
			ReportID:  uuid.NewString(),
		},
	}
}

// ConfidenceFor maps a score to its confidence label.
func ConfidenceFor(score int) string {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Summary synthesizes the narrative sentence locally, with no external call.
func Summary(a model.Answers) string {
	timeframe := strings.TrimPrefix(a.StartTimeline, "In ")
	return fmt.Sprintf(
		"The project aims to %s with a budget of %s. The key objective is to %s and achieve measurable outcomes within the %s timeframe.",
		strings.ToLower(a.PrimaryGoal),
		a.EstimatedBudget,
		strings.ToLower(a.ProjectDescription),
		timeframe,
	)
}

// FitReasons returns the per-program reasons the answers fit the matched
// grant, with the user's budget substituted into the second reason.
func FitReasons(a model.Answers, program model.Program) []string {
	switch program {
	case model.ProgramMRA:
		return []string{
			"Your **overseas expansion** project directly aligns with MRA's focus on market access and international growth.",
			fmt.Sprintf("Your **%s** budget is well-suited for market entry activities supported by MRA.", a.EstimatedBudget),
			"Your **new market entry** approach qualifies for MRA's specialized overseas market assistance.",
		}
	case model.ProgramPSG:
		return []string{
			"Your **automation/IT adoption** project perfectly matches PSG's focus on productivity solutions and technology implementation.",
			fmt.Sprintf("Your **%s** budget aligns with PSG's preferred project scope and funding levels.", a.EstimatedBudget),
			"Your **vendor engagement needs** qualify for PSG's pre-approved solution provider network.",
		}
	case model.ProgramEDG:
		return []string{
			"Your **business transformation** project directly aligns with EDG's goal of enhancing business strategy and capabilities.",
			fmt.Sprintf("Your **%s** budget is well-suited for a transformational project of this scope.", a.EstimatedBudget),
			"Your **capability development** focus qualifies for EDG's comprehensive business enhancement support.",
		}
	default:
		return nil
	}
}
