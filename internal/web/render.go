package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
	"github.com/hpungsan/curatr/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "recommendations", "memorybox", "recipients", "quiz"
	Flash   string
}

// RecipientsPageData is the template data for the recipients page.
type RecipientsPageData struct {
	PageData
	Recipients []ops.RecipientSummary
}

// RecommendationsPageData is the template data for a recommendation session.
type RecommendationsPageData struct {
	PageData
	Session    *ops.RecommendOutput
	Recipients []ops.RecipientSummary
	Occasions  []gift.OccasionKind
	MinDate    string
}

// MemoryBoxPageData is the template data for the Memory Box page.
type MemoryBoxPageData struct {
	PageData
	Items       []ops.SavedView
	Upcoming    []ops.UpcomingOccasion
	Recipients  []ops.RecipientSummary
	RecipientID string
	Status      gift.Status
	Statuses    []gift.Status
	Total       int
}

// QuizPageData is the template data for the quiz form.
type QuizPageData struct {
	PageData
	Recipients  []ops.RecipientSummary
	Questions   []gift.Question
	RecipientID string
	Answers     map[int]string
}

// BuyPageData is the template data for the mock purchase page.
type BuyPageData struct {
	PageData
	Buy *ops.BuyOutput
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Code       string
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *zap.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"formatMillis": formatMillis,
		"formatPrice":  formatPrice,
		"markdown":     renderMarkdown,
		"answerFor":    func(m map[int]string, i int) string { return m[i] },
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"recipients":      "recipients.html",
		"recommendations": "recommendations.html",
		"memorybox":       "memorybox.html",
		"quiz":            "quiz.html",
		"buy":             "buy.html",
		"error":           "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}
}

func (r *Renderer) page(title, nav string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// For HTMX requests, only the "content" block is rendered to avoid duplicating the layout.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("template execution failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	cErr := errors.As(err)
	status := cErr.Status
	message := cErr.Message

	if status >= 500 {
		r.logger.Error("request failed",
			zap.String("path", req.URL.Path),
			zap.String("code", string(cErr.Code)),
			zap.Error(err),
		)
	}

	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(cErr.Code),
				"message": message,
				"status":  status,
				"details": cErr.Details,
			},
		})
		return
	}

	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", status), ""),
		StatusCode: status,
		Code:       string(cErr.Code),
		Message:    message,
	})
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts occasion notes to HTML. Raw HTML in the source is
// not passed through.
func renderMarkdown(md string) template.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatMillis formats a unix-millisecond timestamp as "2006-01-02 15:04" UTC.
func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

// formatPrice formats a price with two decimals.
func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}
