package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aivira/grantdna/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testReport(id string) model.Report {
	return model.Report{
		Score:      92,
		Confidence: "High Confidence",
		Category:   "Market Access",
		Program:    model.ProgramMRA,
		Summary:    "summary text",
		FitReasons: []string{"r1", "r2", "r3"},
		Enrichment: model.Enrichment{Suggestions: []string{"s1"}, Reasoning: "why"},
		Snapshot: model.Snapshot{
			PrimaryGoal:     model.GoalOverseas,
			EstimatedBudget: model.Budget50to150k,
		},
		Identity: model.Identity{
			Name:        "Lim Jun Hao",
			CompanyName: "Junhao Foods Pte Ltd",
			Email:       "junhao@foods.sg",
		},
		Metadata: model.ReportMeta{CreatedAt: time.Now().UTC(), ReportID: id},
	}
}

func testStoreAnswers() model.Answers {
	return model.Answers{
		PrimaryGoal:  model.GoalOverseas,
		Name:         "Lim Jun Hao",
		Email:        "junhao@foods.sg",
		CompanyName:  "Junhao Foods Pte Ltd",
		SupportNeeds: []string{model.SupportVendorSourcing, model.SupportGrantWriting},
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id := uuid.NewString()
	if err := s.InsertSubmission(testReport(id), testStoreAnswers()); err != nil {
		t.Fatalf("InsertSubmission: %v", err)
	}

	sub, err := s.GetSubmission(id)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if sub == nil {
		t.Fatal("submission not found")
	}
	if sub.ID != id {
		t.Errorf("id = %q, want %q", sub.ID, id)
	}
	if sub.Report.Score != 92 || sub.Report.Program != model.ProgramMRA {
		t.Errorf("report not round-tripped: %+v", sub.Report)
	}
	if len(sub.Report.FitReasons) != 3 {
		t.Errorf("fit reasons lost: %v", sub.Report.FitReasons)
	}
	if len(sub.Answers.SupportNeeds) != 2 {
		t.Errorf("answers not round-tripped: %+v", sub.Answers)
	}

	count, err := s.SubmissionCount()
	if err != nil {
		t.Fatalf("SubmissionCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestGetSubmissionMissing(t *testing.T) {
	s := newTestStore(t)
	sub, err := s.GetSubmission("nope")
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if sub != nil {
		t.Errorf("expected nil for missing submission, got %+v", sub)
	}
}

func TestListSubmissionsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	older := testReport(uuid.NewString())
	older.Metadata.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testReport(uuid.NewString())

	if err := s.InsertSubmission(older, testStoreAnswers()); err != nil {
		t.Fatalf("insert older: %v", err)
	}
	if err := s.InsertSubmission(newer, testStoreAnswers()); err != nil {
		t.Fatalf("insert newer: %v", err)
	}

	subs, err := s.ListSubmissions()
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	if subs[0].ID != newer.Metadata.ReportID {
		t.Errorf("expected newest first, got %s", subs[0].ID)
	}
}

func TestAnswerCacheLastWriteWins(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.GetCachedAnswers("k1"); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	first := testStoreAnswers()
	if err := s.SetCachedAnswers("k1", first); err != nil {
		t.Fatalf("SetCachedAnswers: %v", err)
	}

	second := first
	second.PrimaryGoal = model.GoalAutomate
	if err := s.SetCachedAnswers("k1", second); err != nil {
		t.Fatalf("SetCachedAnswers overwrite: %v", err)
	}

	got, ok, err := s.GetCachedAnswers("k1")
	if err != nil {
		t.Fatalf("GetCachedAnswers: %v", err)
	}
	if !ok {
		t.Fatal("cache entry missing")
	}
	if got.PrimaryGoal != model.GoalAutomate {
		t.Errorf("expected last write to win, got %q", got.PrimaryGoal)
	}

	if err := s.ClearCachedAnswers("k1"); err != nil {
		t.Fatalf("ClearCachedAnswers: %v", err)
	}
	if _, ok, _ := s.GetCachedAnswers("k1"); ok {
		t.Error("cache entry survived clear")
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty users table, got %d", count)
	}

	id, err := s.CreateUser(model.User{
		Username:     "staff1",
		DisplayName:  "Staff One",
		PasswordHash: "hash",
		Role:         model.UserRoleStaff,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername("staff1")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleStaff {
		t.Fatalf("unexpected user: %+v", u)
	}

	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ = s.GetUserByID(id)
	if u.Active {
		t.Error("user should be inactive after toggle")
	}

	missing, err := s.GetUserByUsername("ghost")
	if err != nil {
		t.Fatalf("GetUserByUsername missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing user, got %+v", missing)
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser(model.User{Username: "admin", PasswordHash: "h", Role: model.UserRoleAdmin, Active: true})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("session should be gone after delete")
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("missing")
	if err != nil {
		t.Fatalf("GetMetadata missing: %v", err)
	}
	if v != "" {
		t.Errorf("missing key = %q, want empty", v)
	}

	if err := s.SetMetadata("schema_version", "1"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata("schema_version", "2"); err != nil {
		t.Fatalf("SetMetadata upsert: %v", err)
	}
	v, err = s.GetMetadata("schema_version")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "2" {
		t.Errorf("value = %q, want 2", v)
	}
}
