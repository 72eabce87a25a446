package quote

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"Solaire/internal/auth"
	"Solaire/internal/httpx"
	"Solaire/internal/metrics"
	"Solaire/internal/repo"
	"Solaire/internal/validate"
)

const DefaultValidityDays = 30

type Handler struct {
	Repo  repo.QuoteRepository
	Users repo.UserRepository
	// ValidityDays sets valid_until on creation.
	ValidityDays int
	// UploadDir is where logos referenced by profiles are stored.
	UploadDir string
	Now       func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type ItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type CreateRequest struct {
	ProjectID   string           `json:"project_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Status      repo.QuoteStatus `json:"status"`
	Items       []ItemRequest    `json:"items"`
}

func (req *CreateRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Status == "" {
		req.Status = repo.QuoteDraft
	}

	errs := validate.FieldErrors{}
	if req.Name == "" {
		errs["name"] = "Le nom du devis est requis"
	}
	if _, err := uuid.Parse(req.ProjectID); err != nil {
		errs["project_id"] = "Le projet est requis"
	}
	if req.Status != repo.QuoteDraft && req.Status != repo.QuoteSent {
		errs["status"] = "Un devis est créé en brouillon ou envoyé"
	}
	if len(req.Items) == 0 {
		errs["items"] = "Au moins une ligne est requise"
	}
	for i, it := range req.Items {
		key := fmt.Sprintf("items[%d]", i)
		switch {
		case strings.TrimSpace(it.Description) == "":
			errs[key] = "La description est requise"
		case it.Quantity <= 0:
			errs[key] = "La quantité doit être positive"
		case it.UnitPrice < 0:
			errs[key] = "Le prix unitaire ne peut pas être négatif"
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Items computes line totals and the quote total.
func Items(reqs []ItemRequest) ([]repo.QuoteItem, float64) {
	items := make([]repo.QuoteItem, 0, len(reqs))
	total := 0.0
	for _, r := range reqs {
		line := r.Quantity * r.UnitPrice
		items = append(items, repo.QuoteItem{
			Description: strings.TrimSpace(r.Description),
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			Total:       line,
		})
		total += line
	}
	return items, total
}

// CanTransition reports whether a quote may move between two statuses.
// Sent quotes are settled as accepted or rejected, and settled quotes are
// final.
func CanTransition(from, to repo.QuoteStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case repo.QuoteDraft:
		return to == repo.QuoteSent
	case repo.QuoteSent:
		return to == repo.QuoteAccepted || to == repo.QuoteRejected || to == repo.QuoteDraft
	}
	return false
}

// Filter keeps quotes whose name, number or client full name contains q
// (case-insensitive) and whose status equals status when one is given.
func Filter(quotes []repo.Quote, q string, status repo.QuoteStatus) []repo.Quote {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]repo.Quote, 0, len(quotes))
	for _, qt := range quotes {
		if status != "" && qt.Status != status {
			continue
		}
		if q != "" {
			hit := strings.Contains(strings.ToLower(qt.Name), q) ||
				strings.Contains(strings.ToLower(qt.QuoteNumber), q)
			if !hit && qt.Client != nil {
				hit = strings.Contains(strings.ToLower(qt.Client.FullName()), q)
			}
			if !hit {
				continue
			}
		}
		out = append(out, qt)
	}
	return out
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.Repo.ListQuotes(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		httpx.Fail(w, r, err, "list quotes")
		return
	}
	q := r.URL.Query()
	httpx.JSON(w, http.StatusOK, Filter(quotes, q.Get("q"), repo.QuoteStatus(q.Get("status"))))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	qt, err := h.Repo.GetQuote(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		httpx.Fail(w, r, err, "get quote")
		return
	}
	httpx.JSON(w, http.StatusOK, qt)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Fail(w, r, err, "validate quote")
		return
	}
	days := h.ValidityDays
	if days <= 0 {
		days = DefaultValidityDays
	}
	items, total := Items(req.Items)
	qt, err := h.Repo.CreateQuote(r.Context(), repo.Quote{
		UserID:      auth.UserID(r.Context()),
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Items:       items,
		TotalAmount: total,
		ValidUntil:  h.now().AddDate(0, 0, days).UTC(),
	})
	if err != nil {
		httpx.Fail(w, r, err, "create quote")
		return
	}
	metrics.QuotesCreated.Inc()
	httpx.JSON(w, http.StatusCreated, qt)
}

type StatusRequest struct {
	Status repo.QuoteStatus `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	var req StatusRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		httpx.ValidationFailed(w, validate.FieldErrors{"status": "Statut inconnu"})
		return
	}

	userID := auth.UserID(r.Context())
	qt, err := h.Repo.GetQuote(r.Context(), userID, id)
	if err != nil {
		httpx.Fail(w, r, err, "get quote")
		return
	}
	if !CanTransition(qt.Status, req.Status) {
		http.Error(w, fmt.Sprintf("Cannot move quote from %s to %s", qt.Status, req.Status), http.StatusConflict)
		return
	}
	if err := h.Repo.UpdateQuoteStatus(r.Context(), userID, id, qt.Status, req.Status); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			http.Error(w, "Quote status changed concurrently, reload and retry", http.StatusConflict)
			return
		}
		httpx.Fail(w, r, err, "update quote status")
		return
	}
	qt.Status = req.Status
	httpx.JSON(w, http.StatusOK, qt)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	if err := h.Repo.DeleteQuote(r.Context(), auth.UserID(r.Context()), id); err != nil {
		httpx.Fail(w, r, err, "delete quote")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	userID := auth.UserID(r.Context())
	qt, err := h.Repo.GetQuote(r.Context(), userID, id)
	if err != nil {
		httpx.Fail(w, r, err, "get quote")
		return
	}
	issuer, err := h.Users.GetProfile(r.Context(), userID)
	if err != nil {
		httpx.Fail(w, r, err, "get profile")
		return
	}

	// render fully before writing so a failure can still be a 500
	var buf bytes.Buffer
	if err := Render(&buf, qt, issuer, logoPath(h.UploadDir, issuer.LogoURL)); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("quote", id).Msg("render quote pdf")
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", qt.QuoteNumber+".pdf"))
	buf.WriteTo(w)
}
