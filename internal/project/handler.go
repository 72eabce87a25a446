package project

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"Solaire/internal/auth"
	"Solaire/internal/calc/solar"
	"Solaire/internal/httpx"
	"Solaire/internal/metrics"
	"Solaire/internal/repo"
	"Solaire/internal/validate"
)

type Handler struct {
	Repo   repo.ProjectRepository
	Quotes repo.QuoteRepository
	// DefaultPrice is used by Simulate when the request carries no price.
	DefaultPrice float64
}

type Request struct {
	ClientID    string             `json:"client_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Status      repo.ProjectStatus `json:"status"`
	Roof        repo.RoofData      `json:"roof_data"`
	Panels      repo.PanelsConfig  `json:"panels_config"`
}

func (req *Request) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Status == "" {
		req.Status = repo.ProjectDraft
	}

	errs := validate.FieldErrors{}
	if req.Name == "" {
		errs["name"] = "Le nom du projet est requis"
	}
	if _, err := uuid.Parse(req.ClientID); err != nil {
		errs["client_id"] = "Le client est requis"
	}
	if !req.Status.Valid() {
		errs["status"] = "Statut inconnu"
	}
	if req.Panels.PanelCount < 0 {
		errs["panel_count"] = "Le nombre de panneaux doit être positif"
	}
	if req.Panels.PanelWattage < 0 {
		errs["panel_wattage"] = "La puissance doit être positive"
	}
	if req.Roof.Area < 0 {
		errs["area"] = "La surface doit être positive"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (req Request) toProject(userID, id string) repo.Project {
	return repo.Project{
		ID:          id,
		UserID:      userID,
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Roof:        req.Roof,
		Panels:      req.Panels,
	}
}

// Filter keeps projects whose name, client full name or roof city contains
// q (case-insensitive) and whose status equals status when one is given.
func Filter(projects []repo.Project, q string, status repo.ProjectStatus) []repo.Project {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]repo.Project, 0, len(projects))
	for _, p := range projects {
		if status != "" && p.Status != status {
			continue
		}
		if q != "" && !matches(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p repo.Project, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	if p.Client != nil {
		if strings.Contains(strings.ToLower(p.Client.FullName()), q) ||
			strings.Contains(strings.ToLower(p.Client.City), q) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(p.Roof.Address), q)
}

type Stats struct {
	Total              int                        `json:"total"`
	ByStatus           map[repo.ProjectStatus]int `json:"by_status"`
	TotalProduction    float64                    `json:"total_production"`
	TotalAnnualSavings float64                    `json:"total_annual_savings"`
}

// ComputeStats sums simulated projects only; every status appears in
// ByStatus, zero or not.
func ComputeStats(projects []repo.Project) Stats {
	s := Stats{Total: len(projects), ByStatus: make(map[repo.ProjectStatus]int, len(repo.ProjectStatuses))}
	for _, st := range repo.ProjectStatuses {
		s.ByStatus[st] = 0
	}
	for _, p := range projects {
		s.ByStatus[p.Status]++
		if p.Simulation != nil {
			s.TotalProduction += p.Simulation.AnnualProduction
			s.TotalAnnualSavings += p.Simulation.AnnualSavings
		}
	}
	return s
}

type Detail struct {
	repo.Project
	Quotes []repo.Quote `json:"quotes"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Repo.ListProjects(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		httpx.Fail(w, r, err, "list projects")
		return
	}
	q := r.URL.Query()
	httpx.JSON(w, http.StatusOK, Filter(projects, q.Get("q"), repo.ProjectStatus(q.Get("status"))))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Repo.ListProjects(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		httpx.Fail(w, r, err, "project stats")
		return
	}
	httpx.JSON(w, http.StatusOK, ComputeStats(projects))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	userID := auth.UserID(r.Context())
	p, err := h.Repo.GetProject(r.Context(), userID, id)
	if err != nil {
		httpx.Fail(w, r, err, "get project")
		return
	}
	quotes, err := h.Quotes.ListQuotesByProject(r.Context(), userID, id)
	if err != nil {
		httpx.Fail(w, r, err, "list project quotes")
		return
	}
	httpx.JSON(w, http.StatusOK, Detail{Project: p, Quotes: quotes})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !httpx.Decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Fail(w, r, err, "validate project")
		return
	}
	p, err := h.Repo.CreateProject(r.Context(), req.toProject(auth.UserID(r.Context()), ""))
	if err != nil {
		httpx.Fail(w, r, err, "create project")
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
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
		httpx.Fail(w, r, err, "validate project")
		return
	}
	p, err := h.Repo.UpdateProject(r.Context(), req.toProject(auth.UserID(r.Context()), id))
	if err != nil {
		httpx.Fail(w, r, err, "update project")
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	if err := h.Repo.DeleteProject(r.Context(), auth.UserID(r.Context()), id); err != nil {
		httpx.Fail(w, r, err, "delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type SimulateRequest struct {
	PricePerKWh float64 `json:"price_per_kwh"`
	InstallCost float64 `json:"install_cost"`
}

type SimulateResponse struct {
	Simulation repo.SimulationResults `json:"simulation_results"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// SimulationInput builds the estimator input from a stored project.
func SimulationInput(p repo.Project, req SimulateRequest) solar.Input {
	return solar.Input{
		PanelCount:     p.Panels.PanelCount,
		PanelWattage:   p.Panels.PanelWattage,
		OrientationDeg: p.Roof.Orientation,
		TiltDeg:        p.Roof.Tilt,
		Location:       solar.SiteLocation{Lat: p.Roof.Coordinates.Lat, Lng: p.Roof.Coordinates.Lng},
		PricePerKWh:    req.PricePerKWh,
		InstallCost:    req.InstallCost,
	}
}

// Simulate runs the estimator over the project's roof and panels and stores
// the results on the project. The body is optional.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !httpx.ValidID(w, id) {
		return
	}
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.PricePerKWh <= 0 {
		req.PricePerKWh = h.DefaultPrice
	}

	userID := auth.UserID(r.Context())
	p, err := h.Repo.GetProject(r.Context(), userID, id)
	if err != nil {
		httpx.Fail(w, r, err, "get project")
		return
	}
	res, err := solar.Calculate(SimulationInput(p, req))
	if err != nil {
		httpx.ValidationFailed(w, validate.FieldErrors{"panels_config": "Configuration des panneaux incomplète"})
		return
	}

	sim := repo.SimulationResults{
		AnnualProduction:  res.AnnualProduction,
		AnnualSavings:     res.AnnualSavings,
		MonthlySavings:    res.MonthlySavings,
		TwentyYearSavings: res.TwentyYearSavings,
		PaybackPeriod:     res.PaybackPeriod,
		PricePerKWh:       res.PricePerKWh,
		SimulatedAt:       time.Now().UTC(),
	}
	if err := h.Repo.SaveSimulation(r.Context(), userID, id, sim); err != nil {
		httpx.Fail(w, r, err, "save simulation")
		return
	}
	metrics.ObserveSimulation("project", res.AnnualProduction)
	if len(res.Warnings) > 0 {
		zerolog.Ctx(r.Context()).Warn().Str("project", id).Strs("warnings", res.Warnings).Msg("simulation warnings")
	}
	httpx.JSON(w, http.StatusOK, SimulateResponse{Simulation: sim, Warnings: res.Warnings})
}
