package scoring

import (
	"regexp"
	"strings"

	"github.com/aivira/grantdna/internal/model"
)

// FieldError is a single user-facing validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of submission-time validation.
type ValidationResult struct {
	Valid  bool         `json:"isValid"`
	Errors []FieldError `json:"errors"`
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks a completed questionnaire for submission. Every rule is
// evaluated independently (no short-circuiting) and errors accumulate in
// declaration order. Missing data is reported as an error, never as a panic.
func Validate(a model.Answers) ValidationResult {
	var errs []FieldError

	if strings.TrimSpace(a.Email) == "" {
		errs = append(errs, FieldError{"email", "Email address is required"})
	} else if !emailRe.MatchString(strings.TrimSpace(a.Email)) {
		errs = append(errs, FieldError{"email", "Please enter a valid email address"})
	}

	required := []struct {
		field   string
		value   string
		message string
	}{
		{"name", a.Name, "Full name is required"},
		{"companyName", a.CompanyName, "Company name is required"},
		{"primaryGoal", a.PrimaryGoal, "Primary goal is required"},
		{"projectDescription", a.ProjectDescription, "Project description is required"},
		{"estimatedBudget", a.EstimatedBudget, "Estimated budget is required"},
		{"startTimeline", a.StartTimeline, "Start timeline is required"},
		{"singaporeRegistered", a.SingaporeRegistered, "Singapore registration status is required"},
		{"localShareholding", a.LocalShareholding, "Local shareholding status is required"},
		{"employeeCount", a.EmployeeCount, "Employee count is required"},
		{"financialViability", a.FinancialViability, "Financial viability status is required"},
		{"vendorDeposit", a.VendorDeposit, "Vendor deposit status is required"},
		{"hasConsultant", a.HasConsultant, "Consultant status is required"},
		{"needVendorHelp", a.NeedVendorHelp, "Vendor help status is required"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{r.field, r.message})
		}
	}

	if len(a.SupportNeeds) == 0 {
		errs = append(errs, FieldError{"supportNeeds", "At least one support need must be selected"})
	}

	if a.PrimaryGoal == model.GoalOverseas {
		if strings.TrimSpace(a.TargetMarkets) == "" {
			errs = append(errs, FieldError{"targetMarkets", "Target markets are required for overseas expansion"})
		}
		if strings.TrimSpace(a.PreviousSales) == "" {
			errs = append(errs, FieldError{"previousSales", "Previous sales status is required for overseas expansion"})
		}
	}

	if !a.ConsentSharing {
		errs = append(errs, FieldError{"consentSharing", "Consent to share project details is required"})
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ErrorFor returns the message for a field, or empty string if the field
// has no error.
func (v ValidationResult) ErrorFor(field string) string {
	for _, e := range v.Errors {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}
