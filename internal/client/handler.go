package client

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"Solaire/internal/auth"
	"Solaire/internal/httpx"
	"Solaire/internal/repo"
	"Solaire/internal/validate"
)

type Handler struct {
	Repo     repo.ClientRepository
	Projects repo.ProjectRepository
}

type Request struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	PDL        string `json:"pdl"`
}

func (req *Request) normalize() {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.PostalCode = strings.TrimSpace(req.PostalCode)
	req.PDL = strings.TrimSpace(req.PDL)
}

// Validate trims the request and applies the prospect form rules.
func (req *Request) Validate() error {
	req.normalize()
	return validate.Client(validate.ClientFields{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		PDL:        req.PDL,
	})
}

func (req Request) toClient(userID, id string) repo.Client {
	return repo.Client{
		ID:         id,
		UserID:     userID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		PDL:        req.PDL,
	}
}

// Filter keeps clients whose full name, email or city contains q,
// ignoring case. An empty q keeps everything.
func Filter(clients []repo.Client, q string) []repo.Client {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return clients
	}
	out := make([]repo.Client, 0, len(clients))
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.FullName()), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(strings.ToLower(c.City), q) {
			out = append(out, c)
		}
	}
	return out
}

type Stats struct {
	Total   int `json:"total"`
	WithPDL int `json:"with_pdl"`
}

func ComputeStats(clients []repo.Client) Stats {
	s := Stats{Total: len(clients)}
	for _, c := range clients {
		if c.PDL != "" {
			s.WithPDL++
		}
	}
	return s
}

type Detail struct {
	repo.Client
	Projects []repo.Project `json:"projects"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	order := repo.ClientsNewestFirst
	if r.URL.Query().Get("sort") == "name" {
		order = repo.ClientsByFirstName
	}
	clients, err := h.Repo.ListClients(r.Context(), auth.UserID(r.Context()), order)
	if err != nil {
		httpx.Fail(w, r, err, "list clients")
		return
	}
	httpx.JSON(w, http.StatusOK, Filter(clients, r.URL.Query().Get("q")))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Repo.ListClients(r.Context(), auth.UserID(r.Context()), repo.ClientsNewestFirst)
	if err != nil {
		httpx.Fail(w, r, err, "client stats")
		return
	}
	httpx.JSON(w, http.StatusOK, ComputeStats(clients))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	userID := auth.UserID(r.Context())
	c, err := h.Repo.GetClient(r.Context(), userID, id)
	if err != nil {
		httpx.Fail(w, r, err, "get client")
		return
	}
	projects, err := h.Projects.ListProjectsByClient(r.Context(), userID, id)
	if err != nil {
		httpx.Fail(w, r, err, "list client projects")
		return
	}
	httpx.JSON(w, http.StatusOK, Detail{Client: c, Projects: projects})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !httpx.Decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Fail(w, r, err, "validate client")
		return
	}
	c, err := h.Repo.CreateClient(r.Context(), req.toClient(auth.UserID(r.Context()), ""))
	if err != nil {
		httpx.Fail(w, r, err, "create client")
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	var req Request
	if !httpx.Decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Fail(w, r, err, "validate client")
		return
	}
	c, err := h.Repo.UpdateClient(r.Context(), req.toClient(auth.UserID(r.Context()), id))
	if err != nil {
		httpx.Fail(w, r, err, "update client")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	if err := h.Repo.DeleteClient(r.Context(), auth.UserID(r.Context()), id); err != nil {
		httpx.Fail(w, r, err, "delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
