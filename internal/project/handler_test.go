package project

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Solaire/internal/auth"
	"Solaire/internal/calc/solar"
	"Solaire/internal/repo"
	"Solaire/internal/repo/memstore"
)

const (
	alice = "11111111-1111-1111-1111-111111111111"
	bob   = "22222222-2222-2222-2222-222222222222"
)

func do(t *testing.T, fn http.HandlerFunc, method, userID string, vars map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/user/projects", &buf)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func seedClient(t *testing.T, store *memstore.Store, userID, city string) repo.Client {
	t.Helper()
	c, err := store.CreateClient(t.Context(), repo.Client{UserID: userID, FirstName: "Jean", LastName: "Dupont", City: city})
	require.NoError(t, err)
	return c
}

func scenarioRequest(clientID string) Request {
	return Request{
		ClientID: clientID,
		Name:     "Maison Dupont",
		Roof:     repo.RoofData{Address: "1 rue A", Coordinates: repo.Coordinates{Lat: 45, Lng: 4.8}, Orientation: 180, Tilt: 30, Area: 40},
		Panels:   repo.PanelsConfig{PanelCount: 20, PanelWattage: 0.4},
	}
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	req := scenarioRequest("33333333-3333-3333-3333-333333333333")
	require.NoError(t, req.Validate())
	assert.Equal(t, repo.ProjectDraft, req.Status)

	bad := Request{Name: " ", ClientID: "x", Status: "archived", Panels: repo.PanelsConfig{PanelCount: -1}}
	err := bad.Validate()
	require.Error(t, err)
	for _, field := range []string{"name", "client_id", "status", "panel_count"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestFilterAndStats(t *testing.T) {
	t.Parallel()

	projects := []repo.Project{
		{Name: "Toiture Nord", Status: repo.ProjectDraft, Client: &repo.ClientSummary{FirstName: "Jean", LastName: "Dupont", City: "Paris"}},
		{Name: "Ferme", Status: repo.ProjectCompleted, Client: &repo.ClientSummary{FirstName: "Marie", LastName: "Curie", City: "Lyon"},
			Simulation: &repo.SimulationResults{AnnualProduction: 9000, AnnualSavings: 1800}},
		{Name: "Atelier", Status: repo.ProjectCompleted, Simulation: &repo.SimulationResults{AnnualProduction: 1000, AnnualSavings: 200}},
	}

	assert.Len(t, Filter(projects, "", ""), 3)
	assert.Len(t, Filter(projects, "", repo.ProjectCompleted), 2)
	assert.Len(t, Filter(projects, "lyon", ""), 1)
	assert.Len(t, Filter(projects, "jean dupont", ""), 1)
	assert.Empty(t, Filter(projects, "lyon", repo.ProjectDraft))

	s := ComputeStats(projects)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByStatus[repo.ProjectCompleted])
	assert.Equal(t, 0, s.ByStatus[repo.ProjectCancelled])
	assert.Len(t, s.ByStatus, len(repo.ProjectStatuses))
	assert.InDelta(t, 10000, s.TotalProduction, 1e-9)
	assert.InDelta(t, 2000, s.TotalAnnualSavings, 1e-9)
}

func TestCreateRequiresOwnedClient(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	h := &Handler{Repo: store, Quotes: store}
	bobs := seedClient(t, store, bob, "Nice")

	rec := do(t, h.Create, http.MethodPost, alice, nil, scenarioRequest(bobs.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h.Create, http.MethodPost, bob, nil, scenarioRequest(bobs.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	var p repo.Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, repo.ProjectDraft, p.Status)
	require.NotNil(t, p.Client)
	assert.Equal(t, "Nice", p.Client.City)
}

func TestSimulate(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	h := &Handler{Repo: store, Quotes: store, DefaultPrice: solar.DefaultElectricityPrice}
	c := seedClient(t, store, alice, "Lyon")

	rec := do(t, h.Create, http.MethodPost, alice, nil, scenarioRequest(c.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	var p repo.Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))

	rec = do(t, h.Simulate, http.MethodPost, alice, map[string]string{"id": p.ID}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res SimulateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.InDelta(t, 9659, res.Simulation.AnnualProduction, 1)
	assert.InDelta(t, 1931.8, res.Simulation.AnnualSavings, 0.1)
	assert.Zero(t, res.Simulation.PaybackPeriod)
	assert.Empty(t, res.Warnings)

	stored, err := store.GetProject(t.Context(), alice, p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Simulation)
	assert.Equal(t, res.Simulation.AnnualProduction, stored.Simulation.AnnualProduction)

	rec = do(t, h.Simulate, http.MethodPost, alice, map[string]string{"id": p.ID}, SimulateRequest{PricePerKWh: 0.25, InstallCost: 19318})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 0.25, res.Simulation.PricePerKWh)
	assert.InDelta(t, 19318/(res.Simulation.AnnualSavings), res.Simulation.PaybackPeriod, 1e-9)

	rec = do(t, h.Simulate, http.MethodPost, bob, map[string]string{"id": p.ID}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulateNorthFacingWarns(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	h := &Handler{Repo: store, Quotes: store, DefaultPrice: 0.2}
	c := seedClient(t, store, alice, "Lille")

	req := scenarioRequest(c.ID)
	req.Roof.Orientation = 0
	rec := do(t, h.Create, http.MethodPost, alice, nil, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p repo.Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))

	rec = do(t, h.Simulate, http.MethodPost, alice, map[string]string{"id": p.ID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res SimulateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Negative(t, res.Simulation.AnnualProduction)
	assert.Equal(t, []string{solar.WarnNegativeProduction}, res.Warnings)
}

func TestSimulateWithoutPanels(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	h := &Handler{Repo: store, Quotes: store}
	c := seedClient(t, store, alice, "Lyon")

	req := scenarioRequest(c.ID)
	req.Panels = repo.PanelsConfig{}
	rec := do(t, h.Create, http.MethodPost, alice, nil, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p repo.Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))

	rec = do(t, h.Simulate, http.MethodPost, alice, map[string]string{"id": p.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCascadesQuotes(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	h := &Handler{Repo: store, Quotes: store}
	c := seedClient(t, store, alice, "Lyon")
	p, err := store.CreateProject(t.Context(), scenarioRequest(c.ID).toProject(alice, ""))
	require.NoError(t, err)
	_, err = store.CreateQuote(t.Context(), repo.Quote{UserID: alice, ProjectID: p.ID, Name: "Devis", Status: repo.QuoteDraft})
	require.NoError(t, err)

	rec := do(t, h.Get, http.MethodGet, alice, map[string]string{"id": p.ID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var d Detail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	assert.Len(t, d.Quotes, 1)

	rec = do(t, h.Delete, http.MethodDelete, alice, map[string]string{"id": p.ID}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	quotes, err := store.ListQuotes(t.Context(), alice)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestUpdateGeometryDropsSimulation(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	h := &Handler{Repo: store, Quotes: store, DefaultPrice: 0.2}
	c := seedClient(t, store, alice, "Lyon")
	other := seedClient(t, store, alice, "Grenoble")

	req := scenarioRequest(c.ID)
	p, err := store.CreateProject(t.Context(), req.toProject(alice, ""))
	require.NoError(t, err)
	q, err := store.CreateQuote(t.Context(), repo.Quote{UserID: alice, ProjectID: p.ID, Name: "Devis", Status: repo.QuoteDraft})
	require.NoError(t, err)
	vars := map[string]string{"id": p.ID}
	require.Equal(t, http.StatusOK, do(t, h.Simulate, http.MethodPost, alice, vars, nil).Code)

	req.Description = "Accès par la cour"
	rec := do(t, h.Update, http.MethodPut, alice, vars, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated repo.Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.NotNil(t, updated.Simulation)

	req.Roof.Tilt = 45
	req.ClientID = other.ID
	rec = do(t, h.Update, http.MethodPut, alice, vars, req)
	require.Equal(t, http.StatusOK, rec.Code)
	updated = repo.Project{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Nil(t, updated.Simulation)

	stats := ComputeStats([]repo.Project{updated})
	assert.Zero(t, stats.TotalProduction)

	stored, err := store.GetQuote(t.Context(), alice, q.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, stored.ClientID)
	assert.Equal(t, "Grenoble", stored.Client.City)
}
