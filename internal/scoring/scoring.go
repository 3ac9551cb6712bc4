// Package scoring implements the grant eligibility rule engine: submission
// validation, the three program scorers, and best-match selection.
//
// Each scorer is a pure function over the questionnaire answers. A program
// either trips one or more hard disqualifiers (score 0, empty breakdown) or
// earns a weighted sum of component points totalling at most 100. Point
// assignments are table lookups on one or two answer fields, never continuous
// functions, so every result is exactly reproducible.
package scoring

import (
	"fmt"
	"strings"

	"github.com/aivira/grantdna/internal/model"
)

// Result is the aggregate of all three program scores.
type Result struct {
	Scores    []model.GrantScore `json:"scores"`
	BestMatch model.GrantScore   `json:"bestMatch"`
	Category  string             `json:"category"`
}

// Short keys for the closed answer vocabularies, used by the point tables.
var (
	goalKey = map[string]string{
		model.GoalInternal: "internal",
		model.GoalAutomate: "automate",
		model.GoalOverseas: "overseas",
	}
	budgetKey = map[string]string{
		model.BudgetBelow50k:  "<50k",
		model.Budget50to150k:  "50-150k",
		model.Budget150to500k: "150-500k",
		model.BudgetAbove500k: ">500k",
	}
	timelineKey = map[string]string{
		model.TimelineNext3Months: "<3mo",
		model.Timeline3to6Months:  "3-6mo",
		model.TimelineAfter6Mo:    ">6mo",
		model.TimelineUnsure:      "unsure",
	}
)

// Per-program point tables. Component maxima sum to 100 for each program.
var (
	mraTimelinePts = map[string]int{"<3mo": 10, "3-6mo": 7, ">6mo": 4, "unsure": 5}

	psgGoalPts     = map[string]int{"automate": 40, "internal": 20, "overseas": 0}
	psgBudgetPts   = map[string]int{"<50k": 20, "50-150k": 15, "150-500k": 8, ">500k": 4}
	psgTimelinePts = map[string]int{"<3mo": 15, "3-6mo": 12, ">6mo": 6, "unsure": 8}

	edgGoalPts     = map[string]int{"internal": 35, "automate": 30, "overseas": 10}
	edgBudgetPts   = map[string]int{"150-500k": 25, ">500k": 22, "50-150k": 18, "<50k": 10}
	edgTimelinePts = map[string]int{"<3mo": 10, "3-6mo": 8, ">6mo": 5, "unsure": 6}
)

var categoryByProgram = map[model.Program]string{
	model.ProgramMRA: "Market Access",
	model.ProgramPSG: "Innovation & Productivity",
	model.ProgramEDG: "Core Capabilities",
}

// CategoryFor maps a program id to its display category name.
func CategoryFor(p model.Program) string {
	return categoryByProgram[p]
}

// ScoreMRA scores the Market Readiness Assistance program. MRA only applies
// to expansion into markets where the company has no established sales.
func ScoreMRA(a model.Answers) model.GrantScore {
	var disqualifiers []string
	if goalKey[a.PrimaryGoal] != "overseas" {
		disqualifiers = append(disqualifiers, "Project goal must be overseas expansion for MRA")
	}
	if a.SingaporeRegistered != "Yes" {
		disqualifiers = append(disqualifiers, "Must be registered in Singapore for MRA")
	}
	if a.LocalShareholding != "Yes" {
		disqualifiers = append(disqualifiers, "Must have at least 30% local shareholding for MRA")
	}
	if a.EmployeeCount != model.EmployeesAtMost200 {
		disqualifiers = append(disqualifiers, "Group employment must be ≤ 200 employees for MRA")
	}
	if a.PreviousSales == "Yes" {
		disqualifiers = append(disqualifiers, "Cannot have >S$100k sales in target market in last 3 years for MRA")
	}
	if len(disqualifiers) > 0 {
		return model.GrantScore{Program: model.ProgramMRA, Disqualifiers: disqualifiers}
	}

	var breakdown []model.BreakdownEntry
	total := 0
	add := func(e model.BreakdownEntry) {
		total += e.Points
		breakdown = append(breakdown, e)
	}

	marketPts := 0
	marketReason := "Uncertain about previous sales"
	if a.PreviousSales == "No" {
		marketPts = 40
		marketReason = "No previous sales in target market"
	} else if a.PreviousSales == "Not sure" {
		marketPts = 20
	}
	add(model.BreakdownEntry{Component: "New Market Confirmation", Points: marketPts, MaxPoints: 40, Reason: marketReason})

	add(model.BreakdownEntry{Component: "Singapore Registration", Points: 20, MaxPoints: 20,
		Reason: "Registered and operating in Singapore"})
	add(model.BreakdownEntry{Component: "Local Shareholding", Points: 20, MaxPoints: 20,
		Reason: "At least 30% local shareholding"})
	add(model.BreakdownEntry{Component: "Group Size", Points: 10, MaxPoints: 10,
		Reason: "Group employment ≤ 200 employees"})
	add(model.BreakdownEntry{Component: "Timeline Readiness", Points: mraTimelinePts[timelineKey[a.StartTimeline]], MaxPoints: 10,
		Reason: "Project start timeline: " + a.StartTimeline})

	return model.GrantScore{Program: model.ProgramMRA, Score: total, Breakdown: breakdown}
}

// ScorePSG scores the Productivity Solutions Grant. PSG favors automation
// projects with modest budgets and pre-approved vendor solutions.
func ScorePSG(a model.Answers) model.GrantScore {
	var disqualifiers []string
	if a.SingaporeRegistered != "Yes" {
		disqualifiers = append(disqualifiers, "Must be registered in Singapore for PSG")
	}
	if a.LocalShareholding != "Yes" {
		disqualifiers = append(disqualifiers, "Must have at least 30% local shareholding for PSG")
	}
	if a.EmployeeCount != model.EmployeesAtMost200 {
		disqualifiers = append(disqualifiers, "Group employment must be ≤ 200 employees for PSG")
	}
	if a.VendorDeposit == "Yes" {
		disqualifiers = append(disqualifiers, "Cannot have pre-paid vendor deposits for PSG")
	}
	if len(disqualifiers) > 0 {
		return model.GrantScore{Program: model.ProgramPSG, Disqualifiers: disqualifiers}
	}

	var breakdown []model.BreakdownEntry
	total := 0
	add := func(e model.BreakdownEntry) {
		total += e.Points
		breakdown = append(breakdown, e)
	}

	goal := goalKey[a.PrimaryGoal]
	add(model.BreakdownEntry{Component: "Project Goal Alignment", Points: psgGoalPts[goal], MaxPoints: 40,
		Reason: fmt.Sprintf("Goal type: %s (automation preferred for PSG)", goal)})

	budget := budgetKey[a.EstimatedBudget]
	add(model.BreakdownEntry{Component: "Budget Suitability", Points: psgBudgetPts[budget], MaxPoints: 20,
		Reason: fmt.Sprintf("Budget range: %s (lower budgets preferred for PSG)", budget)})

	add(model.BreakdownEntry{Component: "Timeline", Points: psgTimelinePts[timelineKey[a.StartTimeline]], MaxPoints: 15,
		Reason: "Project start timeline: " + a.StartTimeline})

	vendorPts, vendorReason := 4, "No vendor help needed"
	if a.NeedVendorHelp == "Yes" {
		vendorPts, vendorReason = 10, "Needs vendor help (preferred for PSG)"
	}
	add(model.BreakdownEntry{Component: "Vendor Need", Points: vendorPts, MaxPoints: 10, Reason: vendorReason})

	add(supportNeedsEntry(a, map[string]int{
		model.SupportVendorSourcing: 7,
		model.SupportProjectMgmt:    5,
		model.SupportGrantWriting:   3,
	}))

	return model.GrantScore{Program: model.ProgramPSG, Score: total, Breakdown: breakdown}
}

// ScoreEDG scores the Enterprise Development Grant. EDG favors larger
// transformation projects backed by a financially viable business.
func ScoreEDG(a model.Answers) model.GrantScore {
	var disqualifiers []string
	if a.SingaporeRegistered != "Yes" {
		disqualifiers = append(disqualifiers, "Must be registered in Singapore for EDG")
	}
	if a.LocalShareholding != "Yes" {
		disqualifiers = append(disqualifiers, "Must have at least 30% local shareholding for EDG")
	}
	if a.FinancialViability != "Yes" {
		disqualifiers = append(disqualifiers, "Must be financially viable for EDG")
	}
	if len(disqualifiers) > 0 {
		return model.GrantScore{Program: model.ProgramEDG, Disqualifiers: disqualifiers}
	}

	var breakdown []model.BreakdownEntry
	total := 0
	add := func(e model.BreakdownEntry) {
		total += e.Points
		breakdown = append(breakdown, e)
	}

	goal := goalKey[a.PrimaryGoal]
	add(model.BreakdownEntry{Component: "Project Goal Alignment", Points: edgGoalPts[goal], MaxPoints: 35,
		Reason: fmt.Sprintf("Goal type: %s (internal processes preferred for EDG)", goal)})

	budget := budgetKey[a.EstimatedBudget]
	add(model.BreakdownEntry{Component: "Budget Adequacy", Points: edgBudgetPts[budget], MaxPoints: 25,
		Reason: fmt.Sprintf("Budget range: %s (higher budgets preferred for EDG)", budget)})

	add(model.BreakdownEntry{Component: "Timeline", Points: edgTimelinePts[timelineKey[a.StartTimeline]], MaxPoints: 10,
		Reason: "Project start timeline: " + a.StartTimeline})

	consultantPts, consultantReason := 5, "No consultant engaged"
	if a.HasConsultant == "Yes" {
		consultantPts, consultantReason = 15, "Has management consultant"
	}
	add(model.BreakdownEntry{Component: "Consultant Engagement", Points: consultantPts, MaxPoints: 15, Reason: consultantReason})

	// Vendor sourcing deliberately contributes nothing to EDG fit.
	add(supportNeedsEntry(a, map[string]int{
		model.SupportGrantWriting: 8,
		model.SupportProjectMgmt:  7,
	}))

	return model.GrantScore{Program: model.ProgramEDG, Score: total, Breakdown: breakdown}
}

// supportNeedsEntry sums per-option points for the support-needs composite,
// capped at 15. A lone "Not sure yet" selection scores a flat 5.
func supportNeedsEntry(a model.Answers, pts map[string]int) model.BreakdownEntry {
	score := 0
	for option, p := range pts {
		if a.HasSupportNeed(option) {
			score += p
		}
	}
	if len(a.SupportNeeds) == 1 && a.SupportNeeds[0] == model.SupportNotSure {
		score = 5
	}
	if score > 15 {
		score = 15
	}
	return model.BreakdownEntry{
		Component: "Support Needs",
		Points:    score,
		MaxPoints: 15,
		Reason:    "Support needs: " + strings.Join(a.SupportNeeds, ", "),
	}
}

// Calculate runs all three scorers and selects the best match. Ties resolve
// to the first program in evaluation order (MRA, PSG, EDG); when every
// program is disqualified the first zero-score still wins, which keeps the
// result deterministic rather than signalling an error.
func Calculate(a model.Answers) Result {
	scores := []model.GrantScore{ScoreMRA(a), ScorePSG(a), ScoreEDG(a)}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	return Result{
		Scores:    scores,
		BestMatch: best,
		Category:  categoryByProgram[best.Program],
	}
}
