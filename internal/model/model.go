package model

import (
	"context"
	"time"
)

// Program identifies one of the three grant rule-sets.
type Program string

const (
	// ProgramMRA is the Market Readiness Assistance grant (overseas expansion).
	ProgramMRA Program = "MRA"
	// ProgramPSG is the Productivity Solutions Grant (IT adoption, automation).
	ProgramPSG Program = "PSG"
	// ProgramEDG is the Enterprise Development Grant (capability development).
	ProgramEDG Program = "EDG"
)

// Primary goal options shown on the project overview step.
const (
	GoalInternal = "Improve internal processes"
	GoalAutomate = "Create new products / automate ops"
	GoalOverseas = "Expand into new markets overseas"
)

// Budget bands, ordered smallest to largest.
const (
	BudgetBelow50k  = "Below $50,000"
	Budget50to150k  = "$50k–$150k"
	Budget150to500k = "$150k–$500k"
	BudgetAbove500k = "Above $500k"
)

// Start timeline buckets.
const (
	TimelineNext3Months = "In the next 3 months"
	Timeline3to6Months  = "In 3–6 months"
	TimelineAfter6Mo    = "After 6 months"
	TimelineUnsure      = "Not sure yet"
)

// Employee count buckets.
const (
	EmployeesAtMost200 = "≤ 200 employees"
	EmployeesOver200   = "> 200 employees"
)

// Support need options (multi-select).
const (
	SupportGrantWriting   = "Grant writing"
	SupportVendorSourcing = "Vendor sourcing"
	SupportProjectMgmt    = "Project management"
	SupportNotSure        = "Not sure yet"
)

// Answers is the single mutable questionnaire record for one session.
// All closed-vocabulary fields hold the exact option strings above; free
// text fields are unconstrained. JSON tags match the submission wire format.
type Answers struct {
	// Project overview
	PrimaryGoal        string `json:"primaryGoal"`
	ProjectDescription string `json:"projectDescription"`
	EstimatedBudget    string `json:"estimatedBudget"`
	StartTimeline      string `json:"startTimeline"`

	// Overseas expansion (only when PrimaryGoal is GoalOverseas)
	TargetMarkets string `json:"targetMarkets"`
	PreviousSales string `json:"previousSales"` // Yes | No | Not sure

	// Business eligibility
	SingaporeRegistered string `json:"singaporeRegistered"`
	LocalShareholding   string `json:"localShareholding"`
	EmployeeCount       string `json:"employeeCount"`
	FinancialViability  string `json:"financialViability"`

	// Pre-check
	VendorDeposit string `json:"vendorDeposit"`

	// Support needs
	HasConsultant  string   `json:"hasConsultant"`
	NeedVendorHelp string   `json:"needVendorHelp"`
	SupportNeeds   []string `json:"supportNeeds"`

	// Consent
	ConsentSharing bool `json:"consentSharing"`

	// Contact info
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
	PhoneNumber string `json:"phoneNumber"`
}

// HasSupportNeed reports whether the given option is selected.
func (a Answers) HasSupportNeed(option string) bool {
	for _, n := range a.SupportNeeds {
		if n == option {
			return true
		}
	}
	return false
}

// BreakdownEntry is one scored component of a grant score.
type BreakdownEntry struct {
	Component string `json:"component"`
	Points    int    `json:"points"`
	MaxPoints int    `json:"maxPoints"`
	Reason    string `json:"reason"`
}

// GrantScore is the result of scoring one program against the answers.
// It is recomputed on every scoring request and never persisted on its own.
type GrantScore struct {
	Program       Program          `json:"grantType"`
	Score         int              `json:"score"`
	Disqualifiers []string         `json:"disqualifiers"`
	Breakdown     []BreakdownEntry `json:"breakdown"`
}

// Disqualified reports whether any hard disqualifier tripped.
func (g GrantScore) Disqualified() bool {
	return len(g.Disqualifiers) > 0
}

// Enrichment holds AI-generated implementation suggestions for a report.
type Enrichment struct {
	Suggestions []string `json:"suggestions"`
	Reasoning   string   `json:"reasoning"`
}

// Snapshot captures the key project answers at submission time.
type Snapshot struct {
	PrimaryGoal        string `json:"primaryGoal"`
	EstimatedBudget    string `json:"estimatedBudget"`
	StartTimeline      string `json:"startTimeline"`
	ProjectDescription string `json:"projectDescription"`
}

// Identity captures who submitted the questionnaire.
type Identity struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
}

// ReportMeta holds report creation metadata.
type ReportMeta struct {
	CreatedAt time.Time `json:"createdAt"`
	ReportID  string    `json:"reportId"`
}

// Report is the immutable result of one successful submission. A new
// submission always creates a new Report.
type Report struct {
	Score      int        `json:"score"`
	Confidence string     `json:"confidence"`
	Category   string     `json:"matchedCategory"`
	Program    Program    `json:"grantType"`
	Summary    string     `json:"aiSummary"`
	FitReasons []string   `json:"reasonsForFit"`
	Enrichment Enrichment `json:"aiEnrichment"`
	Snapshot   Snapshot   `json:"snapshot"`
	Identity   Identity   `json:"identity"`
	Metadata   ReportMeta `json:"metadata"`
}

// Submission is a persisted report together with the answers that produced it.
type Submission struct {
	ID        string    `json:"id"`
	Report    Report    `json:"report_data"`
	Answers   Answers   `json:"form_data"`
	CreatedAt time.Time `json:"created_at"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/sg")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	EnrichMode    string // Enrichment backend (edge, openai)
}

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStaff is a staff user reviewing leads.
	UserRoleStaff UserRole = "staff"
	// UserRoleAdmin is an admin user.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
