// Package memstore is an in-memory repo.Store used by handler tests and
// local runs without a database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"Solaire/internal/repo"
)

type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	users     map[string]repo.User
	passwords map[string]string
	clients   map[string]repo.Client
	projects  map[string]repo.Project
	quotes    map[string]repo.Quote
}

var _ repo.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:       time.Now,
		users:     map[string]repo.User{},
		passwords: map[string]string{},
		clients:   map[string]repo.Client{},
		projects:  map[string]repo.Project{},
		quotes:    map[string]repo.Quote{},
	}
}

// WithClock makes timestamps deterministic; each call advances by one second.
func (s *Store) WithClock(start time.Time) *Store {
	t := start
	s.now = func() time.Time {
		t = t.Add(time.Second)
		return t
	}
	return s
}

func (s *Store) CreateUser(_ context.Context, u repo.User, passwordHash string) (repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repo.User{}, repo.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	s.passwords[u.ID] = passwordHash
	return u, nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (repo.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, s.passwords[u.ID], nil
		}
	}
	return repo.User{}, "", repo.ErrNotFound
}

func (s *Store) GetProfile(_ context.Context, id string) (repo.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *Store) UpdateProfile(_ context.Context, id, fullName, companyName string) (repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	u.FullName, u.CompanyName, u.UpdatedAt = fullName, companyName, s.now()
	s.users[id] = u
	return u, nil
}

func (s *Store) UpdateLogo(_ context.Context, id, logoURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.LogoURL, u.UpdatedAt = logoURL, s.now()
	s.users[id] = u
	return nil
}

func (s *Store) ListClients(_ context.Context, userID string, order repo.ClientOrder) ([]repo.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []repo.Client{}
	for _, c := range s.clients {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	if order == repo.ClientsByFirstName {
		sort.Slice(out, func(i, j int) bool {
			if out[i].FirstName != out[j].FirstName {
				return out[i].FirstName < out[j].FirstName
			}
			return out[i].LastName < out[j].LastName
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (s *Store) GetClient(_ context.Context, userID, id string) (repo.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok || c.UserID != userID {
		return repo.Client{}, repo.ErrNotFound
	}
	return c, nil
}

func (s *Store) CreateClient(_ context.Context, c repo.Client) (repo.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.clients[c.ID] = c
	return c, nil
}

func (s *Store) UpdateClient(_ context.Context, c repo.Client) (repo.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.clients[c.ID]
	if !ok || old.UserID != c.UserID {
		return repo.Client{}, repo.ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = s.now()
	s.clients[c.ID] = c
	return c, nil
}

func (s *Store) DeleteClient(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok || c.UserID != userID {
		return repo.ErrNotFound
	}
	delete(s.clients, id)
	for pid, p := range s.projects {
		if p.ClientID == id {
			s.deleteProjectLocked(pid)
		}
	}
	return nil
}

func (s *Store) summary(clientID string) *repo.ClientSummary {
	c := s.clients[clientID]
	return &repo.ClientSummary{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName, Email: c.Email, Phone: c.Phone, City: c.City}
}

func (s *Store) listProjects(keep func(repo.Project) bool) []repo.Project {
	out := []repo.Project{}
	for _, p := range s.projects {
		if keep(p) {
			p.Client = s.summary(p.ClientID)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListProjects(_ context.Context, userID string) ([]repo.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listProjects(func(p repo.Project) bool { return p.UserID == userID }), nil
}

func (s *Store) ListProjectsByClient(_ context.Context, userID, clientID string) ([]repo.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listProjects(func(p repo.Project) bool { return p.UserID == userID && p.ClientID == clientID }), nil
}

func (s *Store) GetProject(_ context.Context, userID, id string) (repo.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return repo.Project{}, repo.ErrNotFound
	}
	p.Client = s.summary(p.ClientID)
	return p, nil
}

func (s *Store) ownsClient(userID, clientID string) bool {
	c, ok := s.clients[clientID]
	return ok && c.UserID == userID
}

func (s *Store) CreateProject(ctx context.Context, p repo.Project) (repo.Project, error) {
	s.mu.Lock()
	if !s.ownsClient(p.UserID, p.ClientID) {
		s.mu.Unlock()
		return repo.Project{}, repo.ErrNotFound
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Simulation = nil
	p.Client = nil
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.projects[p.ID] = p
	s.mu.Unlock()
	return s.GetProject(ctx, p.UserID, p.ID)
}

func (s *Store) UpdateProject(ctx context.Context, p repo.Project) (repo.Project, error) {
	s.mu.Lock()
	old, ok := s.projects[p.ID]
	if !ok || old.UserID != p.UserID || !s.ownsClient(p.UserID, p.ClientID) {
		s.mu.Unlock()
		return repo.Project{}, repo.ErrNotFound
	}
	p.Simulation = nil
	if old.Roof == p.Roof && old.Panels == p.Panels {
		p.Simulation = old.Simulation
	}
	if old.ClientID != p.ClientID {
		for qid, q := range s.quotes {
			if q.ProjectID == p.ID {
				q.ClientID = p.ClientID
				s.quotes[qid] = q
			}
		}
	}
	p.Client = nil
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = s.now()
	s.projects[p.ID] = p
	s.mu.Unlock()
	return s.GetProject(ctx, p.UserID, p.ID)
}

func (s *Store) SaveSimulation(_ context.Context, userID, id string, sim repo.SimulationResults) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return repo.ErrNotFound
	}
	p.Simulation = &sim
	p.UpdatedAt = s.now()
	s.projects[id] = p
	return nil
}

func (s *Store) DeleteProject(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return repo.ErrNotFound
	}
	s.deleteProjectLocked(id)
	return nil
}

func (s *Store) deleteProjectLocked(id string) {
	for qid, q := range s.quotes {
		if q.ProjectID == id {
			delete(s.quotes, qid)
		}
	}
	delete(s.projects, id)
}

func (s *Store) decorate(q repo.Quote) repo.Quote {
	q.ProjectName = s.projects[q.ProjectID].Name
	q.Client = s.summary(q.ClientID)
	return q
}

func (s *Store) listQuotes(keep func(repo.Quote) bool) []repo.Quote {
	out := []repo.Quote{}
	for _, q := range s.quotes {
		if keep(q) {
			out = append(out, s.decorate(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListQuotes(_ context.Context, userID string) ([]repo.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listQuotes(func(q repo.Quote) bool { return q.UserID == userID }), nil
}

func (s *Store) ListQuotesByProject(_ context.Context, userID, projectID string) ([]repo.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listQuotes(func(q repo.Quote) bool { return q.UserID == userID && q.ProjectID == projectID }), nil
}

func (s *Store) GetQuote(_ context.Context, userID, id string) (repo.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[id]
	if !ok || q.UserID != userID {
		return repo.Quote{}, repo.ErrNotFound
	}
	return s.decorate(q), nil
}

func (s *Store) CreateQuote(ctx context.Context, q repo.Quote) (repo.Quote, error) {
	s.mu.Lock()
	p, ok := s.projects[q.ProjectID]
	if !ok || p.UserID != q.UserID {
		s.mu.Unlock()
		return repo.Quote{}, repo.ErrNotFound
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = s.now()
	q.UpdatedAt = q.CreatedAt
	q.ClientID = p.ClientID

	prefix := fmt.Sprintf("DEV-%d-", q.CreatedAt.Year())
	last := 0
	for _, other := range s.quotes {
		var n int
		if other.UserID == q.UserID && strings.HasPrefix(other.QuoteNumber, prefix) {
			if _, err := fmt.Sscanf(strings.TrimPrefix(other.QuoteNumber, prefix), "%d", &n); err == nil && n > last {
				last = n
			}
		}
	}
	q.QuoteNumber = repo.QuoteNumber(q.CreatedAt.Year(), last+1)
	q.ProjectName = ""
	q.Client = nil
	s.quotes[q.ID] = q
	s.mu.Unlock()
	return s.GetQuote(ctx, q.UserID, q.ID)
}

func (s *Store) UpdateQuoteStatus(_ context.Context, userID, id string, from, to repo.QuoteStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok || q.UserID != userID {
		return repo.ErrNotFound
	}
	if q.Status != from {
		return repo.ErrConflict
	}
	q.Status, q.UpdatedAt = to, s.now()
	s.quotes[id] = q
	return nil
}

func (s *Store) DeleteQuote(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok || q.UserID != userID {
		return repo.ErrNotFound
	}
	delete(s.quotes, id)
	return nil
}
