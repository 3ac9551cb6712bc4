package handler

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aivira/grantdna/internal/flow"
	"github.com/aivira/grantdna/internal/model"
	"github.com/aivira/grantdna/internal/store"
)

const visitorCookieName = "qsession"

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	flow   *flow.Controller
	config model.AppConfig

	mu       sync.Mutex
	sessions map[string]*flow.Session
}

// New creates a new Handler.
func New(s *store.Store, fc *flow.Controller, cfg model.AppConfig) *Handler {
	return &Handler{
		store:    s,
		flow:     fc,
		config:   cfg,
		sessions: make(map[string]*flow.Session),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)
		r.Get("/", h.handleQuestionnaire)
		r.Post("/step", h.handleStep)
		r.Post("/next", h.handleNext)
		r.Post("/prev", h.handlePrev)
		r.Post("/restart", h.handleRestart)
		r.Post("/save", h.handleSave)
		r.Post("/submit", h.handleSubmit)
		r.Get("/login", h.handleLoginPage)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
	})

	r.Get("/report/{reportID}", h.handleReportPage)

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware, h.requireAuth, requireRole(model.UserRoleAdmin, model.UserRoleStaff))
		r.Get("/admin/leads", h.handleAdminLeads)
	})
}

// path prefixes a route with the configured base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

// BasePathMiddleware puts the configured base path into the request context
// so templates can build absolute links under sub-path deployments.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// session returns the questionnaire session for the visitor cookie, creating
// both the cookie and the session on first contact.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *flow.Session {
	var id string
	if cookie, err := r.Cookie(visitorCookieName); err == nil && cookie.Value != "" {
		id = cookie.Value
	} else {
		b := make([]byte, 16)
		if _, err := rand.Read(b); err != nil {
			slog.Error("failed to generate visitor id", "error", err)
		}
		id = hex.EncodeToString(b)
		cookiePath := "/"
		if h.config.BasePath != "" {
			cookiePath = h.config.BasePath + "/"
		}
		http.SetCookie(w, &http.Cookie{
			Name:     visitorCookieName,
			Value:    id,
			Path:     cookiePath,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   h.config.SecureCookies,
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		return s
	}
	s := h.flow.NewSession(id)
	h.sessions[id] = s
	return s
}

// applyForm copies posted form values onto the session's answers. Only
// fields present in the form are touched, so a step submission never
// clobbers answers from other steps. The checkbox group and the consent
// checkbox need special handling.
func applyForm(r *http.Request, a *model.Answers) {
	if err := r.ParseForm(); err != nil {
		slog.Warn("form parse failed", "error", err)
		return
	}
	set := func(key string, dst *string) {
		if v, ok := r.PostForm[key]; ok && len(v) > 0 {
			*dst = strings.TrimSpace(v[0])
		}
	}
	set("primaryGoal", &a.PrimaryGoal)
	set("projectDescription", &a.ProjectDescription)
	set("estimatedBudget", &a.EstimatedBudget)
	set("startTimeline", &a.StartTimeline)
	set("targetMarkets", &a.TargetMarkets)
	set("previousSales", &a.PreviousSales)
	set("singaporeRegistered", &a.SingaporeRegistered)
	set("localShareholding", &a.LocalShareholding)
	set("employeeCount", &a.EmployeeCount)
	set("financialViability", &a.FinancialViability)
	set("vendorDeposit", &a.VendorDeposit)
	set("hasConsultant", &a.HasConsultant)
	set("needVendorHelp", &a.NeedVendorHelp)
	set("name", &a.Name)
	set("email", &a.Email)
	set("companyName", &a.CompanyName)
	set("phoneNumber", &a.PhoneNumber)
	if v, ok := r.PostForm["supportNeeds"]; ok {
		a.SupportNeeds = v
	}
	if _, ok := r.PostForm["_consentPresent"]; ok {
		a.ConsentSharing = r.PostForm.Get("consentSharing") == "on"
	}
}

func (h *Handler) handleQuestionnaire(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.renderStep(w, r, s)
}

// handleStep records posted answers without navigating, so partial input
// survives a page reload.
func (h *Handler) handleStep(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	applyForm(r, &s.Answers)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	applyForm(r, &s.Answers)
	h.flow.Next(r.Context(), s)
	h.afterTransition(w, r, s)
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	applyForm(r, &s.Answers)
	h.flow.Prev(s)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.flow.Restart(s)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	applyForm(r, &s.Answers)
	h.flow.Save(s)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

// handleSubmit is the terminal transition from the contact step. On
// validation failure the step re-renders with field errors; on success the
// report is persisted and the visitor lands on its permalink.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	applyForm(r, &s.Answers)
	if s.Step != flow.StepContactInfo {
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	}
	h.flow.Next(r.Context(), s)
	h.afterTransition(w, r, s)
}

func (h *Handler) afterTransition(w http.ResponseWriter, r *http.Request, s *flow.Session) {
	if s.Step == flow.StepReport && s.Report != nil {
		if err := h.store.InsertSubmission(*s.Report, s.Answers); err != nil {
			slog.Error("failed to store submission", "error", err)
		}
		if err := h.store.ClearCachedAnswers(s.ID); err != nil {
			slog.Warn("failed to clear answer cache", "error", err)
		}
		http.Redirect(w, r, h.path("/report/"+s.Report.Metadata.ReportID), http.StatusSeeOther)
		return
	}
	if len(s.Errors) > 0 {
		h.renderStep(w, r, s)
		return
	}
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleReportPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	sub, err := h.store.GetSubmission(id)
	if err != nil {
		slog.Error("failed to load submission", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "report", reportData{Report: sub.Report})
}

type stepData struct {
	Step    flow.Step
	Answers model.Answers
	Errors  map[string]string
	Current int
	Total   int
}

type reportData struct {
	Report model.Report
}

func (h *Handler) renderStep(w http.ResponseWriter, r *http.Request, s *flow.Session) {
	if s.Step == flow.StepReport && s.Report != nil {
		h.render(w, r, http.StatusOK, "report", reportData{Report: *s.Report})
		return
	}
	current, total := flow.Progress(s.Step, s.Answers)
	errs := make(map[string]string, len(s.Errors))
	for _, e := range s.Errors {
		if _, ok := errs[e.Field]; !ok {
			errs[e.Field] = e.Message
		}
	}
	h.render(w, r, http.StatusOK, "questionnaire", stepData{
		Step:    s.Step,
		Answers: s.Answers,
		Errors:  errs,
		Current: current,
		Total:   total,
	})
}
