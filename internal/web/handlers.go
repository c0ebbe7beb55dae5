package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
	"github.com/hpungsan/curatr/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	env      *ops.Env
	renderer *Renderer
}

// HandleRecipients handles GET /recipients: list recipients with gift counts.
func (h *Handlers) HandleRecipients(w http.ResponseWriter, r *http.Request) {
	list, err := ops.ListRecipients(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, list)
		return
	}

	data := RecipientsPageData{
		PageData:   h.renderer.page("Recipients", "recipients"),
		Recipients: list.Recipients,
	}
	data.Flash = r.URL.Query().Get("flash")
	h.renderer.renderPage(w, r, "recipients", data)
}

// HandleCreateRecipient handles POST /recipients.
func (h *Handlers) HandleCreateRecipient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	rec, err := ops.CreateRecipient(r.Context(), h.env, ops.CreateRecipientInput{Name: r.FormValue("name")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, rec)
		return
	}
	redirectTo(w, r, "/recipients", "Added "+rec.Name)
}

// HandleRenameRecipient handles POST /recipients/{id}/rename.
func (h *Handlers) HandleRenameRecipient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	rec, err := ops.RenameRecipient(r.Context(), h.env, ops.RenameRecipientInput{
		ID:   r.PathValue("id"),
		Name: r.FormValue("name"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, rec)
		return
	}
	redirectTo(w, r, "/recipients", "Renamed to "+rec.Name)
}

// HandleDeleteRecipient handles DELETE /recipients/{id} and
// POST /recipients/{id}/delete (HTML forms cannot send DELETE).
func (h *Handlers) HandleDeleteRecipient(w http.ResponseWriter, r *http.Request) {
	out, err := ops.DeleteRecipient(r.Context(), h.env, ops.DeleteRecipientInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/recipients")
		w.WriteHeader(http.StatusOK)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	redirectTo(w, r, "/recipients", "Recipient and their saved gifts have been removed")
}

// HandleRecommendations handles GET /recommendations: one decorated session.
func (h *Handlers) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	session, err := ops.Recommend(r.Context(), h.env, ops.RecommendInput{
		RecipientID: r.URL.Query().Get("recipient"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderRecommendations(w, r, session)
}

func (h *Handlers) renderRecommendations(w http.ResponseWriter, r *http.Request, session *ops.RecommendOutput) {
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, session)
		return
	}

	recipients, err := ops.ListRecipients(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := RecommendationsPageData{
		PageData:   h.renderer.page("Recommendations", "recommendations"),
		Session:    session,
		Recipients: recipients.Recipients,
		Occasions:  gift.OccasionKinds(),
		MinDate:    h.env.Now().Format(gift.DateLayout),
	}
	data.Flash = r.URL.Query().Get("flash")
	h.renderer.renderPage(w, r, "recommendations", data)
}

// HandleQuiz handles GET /quiz: the intake form.
func (h *Handlers) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	recipients, err := ops.ListRecipients(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"questions": gift.Questions()})
		return
	}

	h.renderer.renderPage(w, r, "quiz", QuizPageData{
		PageData:    h.renderer.page("Gift Quiz", "quiz"),
		Recipients:  recipients.Recipients,
		Questions:   gift.Questions(),
		RecipientID: r.URL.Query().Get("recipient"),
		Answers:     map[int]string{},
	})
}

// HandleSubmitQuiz handles POST /quiz. The whole form is run through the quiz
// flow at once, then a recommendation session is rendered for the recipient.
func (h *Handlers) HandleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	answers := make(map[int]string)
	for i := range gift.Questions() {
		if v := r.FormValue(fmt.Sprintf("q%d", i)); v != "" {
			answers[i] = v
		}
	}
	if len(answers) == 0 {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("answer every question"))
		return
	}

	session, err := ops.Recommend(r.Context(), h.env, ops.RecommendInput{
		RecipientID: r.FormValue("recipient"),
		Answers:     answers,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderRecommendations(w, r, session)
}

// HandleMemoryBox handles GET /memorybox: filtered saved items plus upcoming occasions.
func (h *Handlers) HandleMemoryBox(w http.ResponseWriter, r *http.Request) {
	recipientID := r.URL.Query().Get("recipient")
	list, err := ops.ListSaved(r.Context(), h.env, ops.ListSavedInput{
		RecipientID: recipientID,
		Status:      r.URL.Query().Get("status"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	upcoming, err := ops.UpcomingOccasions(r.Context(), h.env, parseIntParam(r, "upcoming", 0))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"items":    list.Items,
			"total":    list.Total,
			"status":   list.Status,
			"upcoming": upcoming.Occasions,
		})
		return
	}

	recipients, err := ops.ListRecipients(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if recipientID == "" {
		recipientID = ops.AllRecipients
	}
	data := MemoryBoxPageData{
		PageData:    h.renderer.page("Memory Box", "memorybox"),
		Items:       list.Items,
		Upcoming:    upcoming.Occasions,
		Recipients:  recipients.Recipients,
		RecipientID: recipientID,
		Status:      list.Status,
		Statuses:    []gift.Status{gift.StatusAll, gift.StatusUpcoming, gift.StatusExpired},
		Total:       list.Total,
	}
	data.Flash = r.URL.Query().Get("flash")
	h.renderer.renderPage(w, r, "memorybox", data)
}

// HandleSave handles POST /memorybox: save an item for a recipient.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	itemID, err := strconv.Atoi(r.FormValue("item_id"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("item_id must be an integer"))
		return
	}
	var expiresAt int64
	if s := r.FormValue("expires_at"); s != "" {
		expiresAt, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("expires_at must be unix milliseconds"))
			return
		}
	}

	view, err := ops.SaveItem(r.Context(), h.env, ops.SaveItemInput{
		ItemID:      itemID,
		RecipientID: r.FormValue("recipient_id"),
		ExpiresAt:   expiresAt,
		Occasion: ops.OccasionInput{
			Type:        r.FormValue("occasion_type"),
			CustomLabel: r.FormValue("custom_label"),
			Date:        r.FormValue("occasion_date"),
			Notes:       r.FormValue("notes"),
		},
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, view)
		return
	}
	redirectTo(w, r, "/recommendations?recipient="+url.QueryEscape(view.RecipientID),
		fmt.Sprintf("%s saved for %s", view.Title, view.RecipientName))
}

// HandleRefresh handles POST /memorybox/{item}/refresh.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemParam(w, r)
	if !ok {
		return
	}
	out, err := ops.RefreshPrice(r.Context(), h.env, ops.RefreshPriceInput{
		ItemID:      itemID,
		RecipientID: r.FormValue("recipient_id"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	msg := "Price refreshed"
	if len(out.Items) == 0 {
		msg = "Nothing to refresh"
	}
	redirectTo(w, r, backTo(r, "/memorybox"), msg)
}

// HandleRemove handles DELETE /memorybox/{item} and POST /memorybox/{item}/remove.
func (h *Handlers) HandleRemove(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemParam(w, r)
	if !ok {
		return
	}
	out, err := ops.RemoveItem(r.Context(), h.env, ops.RemoveItemInput{
		ItemID:      itemID,
		RecipientID: r.FormValue("recipient_id"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	redirectTo(w, r, backTo(r, "/memorybox"), "Removed from Memory Box")
}

// HandleBuy handles POST /buy/{item}: the mock purchase hook.
func (h *Handlers) HandleBuy(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemParam(w, r)
	if !ok {
		return
	}
	out, err := ops.Buy(r.Context(), h.env, ops.BuyInput{ItemID: itemID})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	h.renderer.renderPage(w, r, "buy", BuyPageData{
		PageData: h.renderer.page("Buy "+out.Title, "memorybox"),
		Buy:      out,
	})
}

func (h *Handlers) itemParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return 0, false
	}
	id, err := strconv.Atoi(r.PathValue("item"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("item id must be an integer"))
		return 0, false
	}
	return id, true
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// backTo returns the form's "back" path when it is a local path.
func backTo(r *http.Request, fallback string) string {
	back := r.FormValue("back")
	if strings.HasPrefix(back, "/") && !strings.HasPrefix(back, "//") {
		return back
	}
	return fallback
}

// redirectTo sends a 303 to path carrying a one-shot flash message.
func redirectTo(w http.ResponseWriter, r *http.Request, path, flash string) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	http.Redirect(w, r, path+sep+"flash="+url.QueryEscape(flash), http.StatusSeeOther)
}
