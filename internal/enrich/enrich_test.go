package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aivira/grantdna/internal/model"
)

func testAnswers() model.Answers {
	return model.Answers{
		PrimaryGoal:         model.GoalOverseas,
		ProjectDescription:  "Expand our B2B marketplace into Vietnam",
		EstimatedBudget:     model.Budget50to150k,
		StartTimeline:       model.TimelineNext3Months,
		EmployeeCount:       model.EmployeesAtMost200,
		FinancialViability:  "Yes",
		SingaporeRegistered: "Yes",
		LocalShareholding:   "Yes",
		Email:               "founder@marketplace.sg",
	}
}

func TestFallbackPerProgram(t *testing.T) {
	for _, p := range []model.Program{model.ProgramMRA, model.ProgramPSG, model.ProgramEDG} {
		e := Fallback(p)
		if len(e.Suggestions) != 3 {
			t.Errorf("%s: expected 3 suggestions, got %d", p, len(e.Suggestions))
		}
		if e.Reasoning == "" {
			t.Errorf("%s: empty reasoning", p)
		}
		if !strings.Contains(e.Reasoning, string(p)) {
			t.Errorf("%s: reasoning does not mention the program: %q", p, e.Reasoning)
		}
	}
}

func TestFallbackUnknownProgram(t *testing.T) {
	e := Fallback(model.Program("XYZ"))
	if len(e.Suggestions) != 3 {
		t.Fatalf("expected 3 generic suggestions, got %d", len(e.Suggestions))
	}
	if e.Reasoning == "" {
		t.Error("generic fallback has empty reasoning")
	}
}

func TestBuildPrompt(t *testing.T) {
	a := testAnswers()
	prompt := BuildPrompt(a, model.ProgramMRA)

	for _, want := range []string{
		"MRA expert",
		a.PrimaryGoal,
		a.EstimatedBudget,
		a.ProjectDescription,
		a.EmployeeCount,
		a.StartTimeline,
		"Market Readiness Assistance",
		`Format as JSON`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptProgramContext(t *testing.T) {
	a := testAnswers()
	psg := BuildPrompt(a, model.ProgramPSG)
	if !strings.Contains(psg, "Productivity Solutions Grant") {
		t.Error("PSG prompt missing PSG context")
	}
	edg := BuildPrompt(a, model.ProgramEDG)
	if !strings.Contains(edg, "Enterprise Development Grant") {
		t.Error("EDG prompt missing EDG context")
	}
}

func TestEdgeClientStructuredResponse(t *testing.T) {
	var captured edgeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"enrichment": map[string]any{
				"suggestions": []string{"s1", "s2", "s3"},
				"reasoning":   "because",
			},
		})
	}))
	defer srv.Close()

	c := NewEdgeClient(srv.URL, "test-key", 0)
	e, err := c.Enrich(context.Background(), testAnswers(), model.ProgramMRA)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(e.Suggestions) != 3 || e.Reasoning != "because" {
		t.Errorf("unexpected enrichment: %+v", e)
	}

	if captured.Email != "founder@marketplace.sg" {
		t.Errorf("request email = %q", captured.Email)
	}
	if captured.ConsentPurpose != ConsentPurpose {
		t.Errorf("consent purpose = %q", captured.ConsentPurpose)
	}
	if captured.Version != Version {
		t.Errorf("version = %d", captured.Version)
	}
	if captured.Prompt == "" {
		t.Error("request prompt is empty")
	}
	if captured.FormData.ProjectDescription == "" {
		t.Error("request form data missing")
	}
}

func TestEdgeClientStringResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"enrichment": "Free-form advice from the model.",
		})
	}))
	defer srv.Close()

	c := NewEdgeClient(srv.URL, "", 0)
	e, err := c.Enrich(context.Background(), testAnswers(), model.ProgramPSG)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if e.Reasoning != "Free-form advice from the model." {
		t.Errorf("reasoning = %q", e.Reasoning)
	}
	if len(e.Suggestions) != 3 {
		t.Errorf("string payload should get generic suggestions, got %d", len(e.Suggestions))
	}
}

func TestEdgeClientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
		}},
		{"malformed enrichment", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "enrichment": 42})
		}},
		{"empty suggestions object", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":    true,
				"enrichment": map[string]any{"suggestions": []string{}, "reasoning": "r"},
			})
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>oops</html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c := NewEdgeClient(srv.URL, "", 0)
			if _, err := c.Enrich(context.Background(), testAnswers(), model.ProgramMRA); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEdgeClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewEdgeClient(srv.URL, "", 20*time.Millisecond)
	if _, err := c.Enrich(context.Background(), testAnswers(), model.ProgramMRA); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestEdgeClientContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewEdgeClient(srv.URL, "", 0)
	if _, err := c.Enrich(ctx, testAnswers(), model.ProgramMRA); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
