package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type UserRepository interface {
	CreateUser(ctx context.Context, u User, passwordHash string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, string, error)
	GetProfile(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, id, fullName, companyName string) (User, error)
	UpdateLogo(ctx context.Context, id, logoURL string) error
}

type ClientOrder int

const (
	ClientsNewestFirst ClientOrder = iota
	ClientsByFirstName
)

type ClientRepository interface {
	ListClients(ctx context.Context, userID string, order ClientOrder) ([]Client, error)
	GetClient(ctx context.Context, userID, id string) (Client, error)
	CreateClient(ctx context.Context, c Client) (Client, error)
	UpdateClient(ctx context.Context, c Client) (Client, error)
	DeleteClient(ctx context.Context, userID, id string) error
}

type ProjectRepository interface {
	ListProjects(ctx context.Context, userID string) ([]Project, error)
	ListProjectsByClient(ctx context.Context, userID, clientID string) ([]Project, error)
	GetProject(ctx context.Context, userID, id string) (Project, error)
	CreateProject(ctx context.Context, p Project) (Project, error)
	// UpdateProject drops stored simulation results when the roof or panels
	// change, and moves the project's quotes along with a client change.
	UpdateProject(ctx context.Context, p Project) (Project, error)
	SaveSimulation(ctx context.Context, userID, id string, sim SimulationResults) error
	// DeleteProject removes the project's quotes before the project itself.
	DeleteProject(ctx context.Context, userID, id string) error
}

type QuoteRepository interface {
	ListQuotes(ctx context.Context, userID string) ([]Quote, error)
	ListQuotesByProject(ctx context.Context, userID, projectID string) ([]Quote, error)
	GetQuote(ctx context.Context, userID, id string) (Quote, error)
	// CreateQuote assigns the next quote number for the owner and year.
	CreateQuote(ctx context.Context, q Quote) (Quote, error)
	// UpdateQuoteStatus moves a quote from one status to another. It fails
	// with ErrConflict when the stored status is no longer from.
	UpdateQuoteStatus(ctx context.Context, userID, id string, from, to QuoteStatus) error
	DeleteQuote(ctx context.Context, userID, id string) error
}

// Store groups every repository the HTTP layer needs.
type Store interface {
	UserRepository
	ClientRepository
	ProjectRepository
	QuoteRepository
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// QuoteNumber formats the per-user, per-year quote sequence.
func QuoteNumber(year, seq int) string {
	return fmt.Sprintf("DEV-%d-%04d", year, seq)
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func fromJSON(b []byte, dst any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
