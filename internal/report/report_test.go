package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aivira/grantdna/internal/enrich"
	"github.com/aivira/grantdna/internal/model"
	"github.com/aivira/grantdna/internal/scoring"
)

type stubEnricher struct {
	enrichment model.Enrichment
	err        error
	calls      int
}

func (s *stubEnricher) Enrich(_ context.Context, _ model.Answers, _ model.Program) (model.Enrichment, error) {
	s.calls++
	return s.enrichment, s.err
}

func reportAnswers() model.Answers {
	return model.Answers{
		PrimaryGoal:         model.GoalOverseas,
		ProjectDescription:  "Launch our SaaS product in Indonesia",
		EstimatedBudget:     model.Budget50to150k,
		StartTimeline:       model.TimelineNext3Months,
		TargetMarkets:       "Indonesia",
		PreviousSales:       "No",
		SingaporeRegistered: "Yes",
		LocalShareholding:   "Yes",
		EmployeeCount:       model.EmployeesAtMost200,
		FinancialViability:  "Yes",
		VendorDeposit:       "No",
		HasConsultant:       "No",
		NeedVendorHelp:      "Yes",
		SupportNeeds:        []string{model.SupportVendorSourcing},
		ConsentSharing:      true,
		Name:                "Chen Li Wei",
		Email:               "liwei@saas.sg",
		CompanyName:         "SaaS Ventures Pte Ltd",
	}
}

func TestAssembleWithEnrichment(t *testing.T) {
	a := reportAnswers()
	res := scoring.Calculate(a)
	stub := &stubEnricher{enrichment: model.Enrichment{
		Suggestions: []string{"a", "b", "c"},
		Reasoning:   "tailored",
	}}

	rep := New(stub).Assemble(context.Background(), a, res)

	if stub.calls != 1 {
		t.Errorf("enricher called %d times, want 1", stub.calls)
	}
	if rep.Enrichment.Reasoning != "tailored" {
		t.Errorf("enrichment not used: %+v", rep.Enrichment)
	}
	if rep.Program != model.ProgramMRA {
		t.Errorf("program = %s, want MRA", rep.Program)
	}
	if rep.Score != res.BestMatch.Score {
		t.Errorf("score = %d, want %d", rep.Score, res.BestMatch.Score)
	}
	if rep.Category != "Market Access" {
		t.Errorf("category = %q", rep.Category)
	}
	if rep.Metadata.ReportID == "" {
		t.Error("report id not set")
	}
	if rep.Metadata.CreatedAt.IsZero() {
		t.Error("created at not set")
	}
	if rep.Identity.Email != a.Email || rep.Identity.Name != a.Name {
		t.Errorf("identity not carried over: %+v", rep.Identity)
	}
	if rep.Snapshot.ProjectDescription != a.ProjectDescription {
		t.Errorf("snapshot not carried over: %+v", rep.Snapshot)
	}
}

func TestAssembleEnrichmentFailureFallsBack(t *testing.T) {
	a := reportAnswers()
	res := scoring.Calculate(a)
	stub := &stubEnricher{err: errors.New("backend down")}

	rep := New(stub).Assemble(context.Background(), a, res)

	want := enrich.Fallback(res.BestMatch.Program)
	if rep.Enrichment.Reasoning != want.Reasoning {
		t.Errorf("expected fallback enrichment, got %+v", rep.Enrichment)
	}
	if len(rep.Enrichment.Suggestions) != len(want.Suggestions) {
		t.Errorf("fallback suggestions count = %d", len(rep.Enrichment.Suggestions))
	}
	// The rest of the report is unaffected by the enrichment failure.
	if rep.Score != res.BestMatch.Score || rep.Summary == "" || len(rep.FitReasons) != 3 {
		t.Error("report degraded beyond enrichment content")
	}
}

func TestAssembleNilEnricher(t *testing.T) {
	a := reportAnswers()
	res := scoring.Calculate(a)
	rep := New(nil).Assemble(context.Background(), a, res)
	want := enrich.Fallback(res.BestMatch.Program)
	if rep.Enrichment.Reasoning != want.Reasoning {
		t.Errorf("nil enricher should use fallback, got %+v", rep.Enrichment)
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, ConfidenceHigh},
		{80, ConfidenceHigh},
		{79, ConfidenceMedium},
		{60, ConfidenceMedium},
		{59, ConfidenceLow},
		{0, ConfidenceLow},
	}
	for _, tt := range tests {
		if got := ConfidenceFor(tt.score); got != tt.want {
			t.Errorf("ConfidenceFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	a := reportAnswers()
	got := Summary(a)
	want := "The project aims to expand into new markets overseas with a budget of $50k–$150k. " +
		"The key objective is to launch our saas product in indonesia and achieve measurable outcomes " +
		"within the the next 3 months timeframe."
	if got != want {
		t.Errorf("Summary() =\n%q\nwant\n%q", got, want)
	}
}

func TestFitReasonsSubstituteBudget(t *testing.T) {
	a := reportAnswers()
	for _, p := range []model.Program{model.ProgramMRA, model.ProgramPSG, model.ProgramEDG} {
		reasons := FitReasons(a, p)
		if len(reasons) != 3 {
			t.Fatalf("%s: expected 3 reasons, got %d", p, len(reasons))
		}
		if !strings.Contains(reasons[1], a.EstimatedBudget) {
			t.Errorf("%s: second reason missing budget: %q", p, reasons[1])
		}
	}
	if FitReasons(a, model.Program("XYZ")) != nil {
		t.Error("unknown program should return nil reasons")
	}
}

func TestReportIDsUnique(t *testing.T) {
	a := reportAnswers()
	res := scoring.Calculate(a)
	asm := New(nil)
	r1 := asm.Assemble(context.Background(), a, res)
	r2 := asm.Assemble(context.Background(), a, res)
	if r1.Metadata.ReportID == r2.Metadata.ReportID {
		t.Error("report ids should be unique per assembly")
	}
}
