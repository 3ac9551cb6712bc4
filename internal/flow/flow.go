// Package flow drives the questionnaire as an explicit state machine. The
// visible step sequence is a pure function of the answers, so changing the
// primary goal retroactively re-branches the sequence (8 or 9 steps).
package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aivira/grantdna/internal/enrich"
	"github.com/aivira/grantdna/internal/model"
	"github.com/aivira/grantdna/internal/report"
	"github.com/aivira/grantdna/internal/scoring"
)

// Step names one questionnaire page.
type Step string

const (
	StepWelcome         Step = "welcome"
	StepProjectOverview Step = "project-overview"
	StepOverseas        Step = "overseas-expansion"
	StepEligibility     Step = "business-eligibility"
	StepPreCheck        Step = "pre-check"
	StepSupportNeeds    Step = "support-needs"
	StepConsent         Step = "consent"
	StepContactInfo     Step = "contact-info"
	StepReport          Step = "report"
)

// VisibleSteps returns the step sequence for the current answers. The
// overseas step only appears when the primary goal is overseas expansion.
func VisibleSteps(a model.Answers) []Step {
	steps := []Step{StepWelcome, StepProjectOverview}
	if a.PrimaryGoal == model.GoalOverseas {
		steps = append(steps, StepOverseas)
	}
	return append(steps,
		StepEligibility, StepPreCheck, StepSupportNeeds, StepConsent, StepContactInfo, StepReport)
}

// Progress returns the 1-based position of step within the visible sequence
// and the total step count. A step hidden by a retroactive goal change
// reports the project overview position.
func Progress(step Step, a model.Answers) (current, total int) {
	steps := VisibleSteps(a)
	for i, s := range steps {
		if s == step {
			return i + 1, len(steps)
		}
	}
	return 2, len(steps)
}

// CanProceed is the per-step forward-navigation gate. These checks are
// deliberately lighter than full submission validation: they only require
// the step's own fields to be present.
func CanProceed(step Step, a model.Answers) bool {
	switch step {
	case StepWelcome:
		return true
	case StepProjectOverview:
		return a.PrimaryGoal != "" && strings.TrimSpace(a.ProjectDescription) != "" &&
			a.EstimatedBudget != "" && a.StartTimeline != ""
	case StepOverseas:
		return strings.TrimSpace(a.TargetMarkets) != "" && a.PreviousSales != ""
	case StepEligibility:
		return a.SingaporeRegistered != "" && a.LocalShareholding != "" &&
			a.EmployeeCount != "" && a.FinancialViability != ""
	case StepPreCheck:
		return a.VendorDeposit != ""
	case StepSupportNeeds:
		return a.HasConsultant != "" && a.NeedVendorHelp != "" && len(a.SupportNeeds) > 0
	case StepConsent:
		return a.ConsentSharing
	case StepContactInfo:
		return strings.TrimSpace(a.Name) != "" && strings.TrimSpace(a.Email) != "" &&
			strings.TrimSpace(a.CompanyName) != ""
	default:
		// Report is terminal.
		return false
	}
}

// Cache is the answer-autosave port. Its presence or absence never affects
// validation or scoring; writes are last-write-wins.
type Cache interface {
	GetCachedAnswers(key string) (model.Answers, bool, error)
	SetCachedAnswers(key string, a model.Answers) error
	ClearCachedAnswers(key string) error
}

// Session holds one questionnaire run: the mutable answers, the current
// step, and after a successful submission the generated report.
type Session struct {
	ID      string
	Answers model.Answers
	Step    Step
	Report  *model.Report
	Errors  []scoring.FieldError
}

// Controller advances sessions through the step sequence and runs the
// submission pipeline at the terminal transition.
type Controller struct {
	cache     Cache
	assembler *report.Assembler
}

// NewController creates a Controller. Both dependencies are optional: a nil
// cache disables autosave and a nil assembler falls back to static content.
func NewController(cache Cache, asm *report.Assembler) *Controller {
	return &Controller{cache: cache, assembler: asm}
}

// NewSession starts a session at the Welcome step, restoring cached answers
// for the key when present.
func (c *Controller) NewSession(id string) *Session {
	s := &Session{ID: id, Step: StepWelcome}
	if c.cache != nil {
		if a, ok, err := c.cache.GetCachedAnswers(id); err != nil {
			slog.Warn("answer cache read failed", "session", id, "error", err)
		} else if ok {
			s.Answers = a
		}
	}
	return s
}

// Next advances one step when the current step's gate holds. Advancing from
// the contact step is the terminal transition: full validation runs first,
// and on failure the session stays put with field errors surfaced.
func (c *Controller) Next(ctx context.Context, s *Session) {
	if !CanProceed(s.Step, s.Answers) {
		return
	}
	if s.Step == StepContactInfo {
		c.submit(ctx, s)
		return
	}
	s.Step = stepAfter(s.Step, s.Answers)
}

// Prev retreats one step unconditionally (no-op at Welcome).
func (c *Controller) Prev(s *Session) {
	steps := VisibleSteps(s.Answers)
	for i, st := range steps {
		if st == s.Step {
			if i > 0 {
				s.Step = steps[i-1]
			}
			return
		}
	}
	// Current step hidden by a goal change; fall back to the overview.
	s.Step = StepProjectOverview
}

// Restart resets to Welcome, clears all answers, and drops the cache entry.
func (c *Controller) Restart(s *Session) {
	s.Answers = model.Answers{}
	s.Step = StepWelcome
	s.Report = nil
	s.Errors = nil
	if c.cache != nil {
		if err := c.cache.ClearCachedAnswers(s.ID); err != nil {
			slog.Warn("answer cache clear failed", "session", s.ID, "error", err)
		}
	}
}

// Save writes the in-progress answers to the cache (explicit autosave).
func (c *Controller) Save(s *Session) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetCachedAnswers(s.ID, s.Answers); err != nil {
		slog.Warn("answer cache write failed", "session", s.ID, "error", err)
	}
}

func (c *Controller) submit(ctx context.Context, s *Session) {
	v := scoring.Validate(s.Answers)
	if !v.Valid {
		s.Errors = v.Errors
		return
	}
	s.Errors = nil

	res := scoring.Calculate(s.Answers)
	rep := c.assemble(ctx, s.Answers, res)
	s.Report = &rep
	s.Step = StepReport
}

// assemble produces a report even if the assembler misbehaves: a missing
// assembler or a panic degrades to static fallback content rather than
// leaving the session stuck on the contact step.
func (c *Controller) assemble(ctx context.Context, a model.Answers, res scoring.Result) (rep model.Report) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("report assembly failed, using fallback", "panic", r)
			rep = fallbackReport(a, res)
		}
	}()
	if c.assembler == nil {
		return fallbackReport(a, res)
	}
	return c.assembler.Assemble(ctx, a, res)
}

func fallbackReport(a model.Answers, res scoring.Result) model.Report {
	best := res.BestMatch
	return model.Report{
		Score:      best.Score,
		Confidence: report.ConfidenceFor(best.Score),
		Category:   res.Category,
		Program:    best.Program,
		Summary:    report.Summary(a),
		FitReasons: report.FitReasons(a, best.Program),
		Enrichment: enrich.Fallback(best.Program),
		Snapshot: model.Snapshot{
			PrimaryGoal:        a.PrimaryGoal,
			EstimatedBudget:    a.EstimatedBudget,
			StartTimeline:      a.StartTimeline,
			ProjectDescription: a.ProjectDescription,
		},
		Identity: model.Identity{Name: a.Name, CompanyName: a.CompanyName, Email: a.Email},
		Metadata: model.ReportMeta{CreatedAt: time.Now().UTC(), ReportID: uuid.NewString()},
	}
}

func stepAfter(step Step, a model.Answers) Step {
	steps := VisibleSteps(a)
	for i, st := range steps {
		if st == step {
			if i+1 < len(steps) {
				return steps[i+1]
			}
			return step
		}
	}
	return StepProjectOverview
}
