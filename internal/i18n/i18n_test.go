package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "GrantDNA" {
		t.Errorf("T(AppTitle) = %q, want 'GrantDNA'", got)
	}
	if got := T(ctx, "StartCheck"); got != "Start Eligibility Check" {
		t.Errorf("T(StartCheck) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "StepProgress", map[string]any{"Current": 3, "Total": 9})
	if got != "Step 3 of 9" {
		t.Errorf("Td(StepProgress) = %q, want 'Step 3 of 9'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}

func TestMissingLocalizerFallsBack(t *testing.T) {
	initLang(t, "en")

	// A bare context without a localizer still translates via the default.
	if got := T(context.Background(), "AppTitle"); got != "GrantDNA" {
		t.Errorf("T without localizer = %q", got)
	}
}
