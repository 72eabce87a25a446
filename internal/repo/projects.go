package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const projectColumns = `p.id, p.user_id, p.client_id, p.name, p.description, p.status,
	p.roof_data, p.panels_config, p.simulation_results, p.created_at, p.updated_at,
	c.first_name, c.last_name, c.email, c.phone, c.city`

const projectFrom = " FROM projects p JOIN clients c ON c.id = p.client_id"

func scanProject(row interface{ Scan(...any) error }, p *Project) error {
	var roof, panels, sim []byte
	cs := ClientSummary{}
	err := row.Scan(&p.ID, &p.UserID, &p.ClientID, &p.Name, &p.Description, &p.Status,
		&roof, &panels, &sim, &p.CreatedAt, &p.UpdatedAt,
		&cs.FirstName, &cs.LastName, &cs.Email, &cs.Phone, &cs.City)
	if err != nil {
		return err
	}
	cs.ID = p.ClientID
	p.Client = &cs
	if err := fromJSON(roof, &p.Roof); err != nil {
		return fmt.Errorf("roof_data: %w", err)
	}
	if err := fromJSON(panels, &p.Panels); err != nil {
		return fmt.Errorf("panels_config: %w", err)
	}
	if len(sim) > 0 {
		p.Simulation = &SimulationResults{}
		if err := fromJSON(sim, p.Simulation); err != nil {
			return fmt.Errorf("simulation_results: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) queryProjects(ctx context.Context, query string, args ...any) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *PostgresRepository) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	return r.queryProjects(ctx, "SELECT "+projectColumns+projectFrom+
		" WHERE p.user_id=$1 ORDER BY p.created_at DESC", userID)
}

func (r *PostgresRepository) ListProjectsByClient(ctx context.Context, userID, clientID string) ([]Project, error) {
	return r.queryProjects(ctx, "SELECT "+projectColumns+projectFrom+
		" WHERE p.user_id=$1 AND p.client_id=$2 ORDER BY p.created_at DESC", userID, clientID)
}

func (r *PostgresRepository) GetProject(ctx context.Context, userID, id string) (Project, error) {
	var p Project
	query := "SELECT " + projectColumns + projectFrom + " WHERE p.id=$1 AND p.user_id=$2"
	err := scanProject(r.db.QueryRowContext(ctx, query, id, userID), &p)
	return p, notFound(err)
}

func (r *PostgresRepository) CreateProject(ctx context.Context, p Project) (Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	roof, err := toJSON(p.Roof)
	if err != nil {
		return Project{}, err
	}
	panels, err := toJSON(p.Panels)
	if err != nil {
		return Project{}, err
	}
	query := `INSERT INTO projects (id, user_id, client_id, name, description, status, roof_data, panels_config)
		SELECT $1::uuid, $2::uuid, c.id, $4::text, $5::text, $6::text, $7::jsonb, $8::jsonb FROM clients c WHERE c.id=$3 AND c.user_id=$2`
	res, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.ClientID, p.Name, p.Description, p.Status, roof, panels)
	if err != nil {
		return Project{}, err
	}
	// no row inserted means the client is not owned by this user
	if err := expectOne(res); err != nil {
		return Project{}, err
	}
	return r.GetProject(ctx, p.UserID, p.ID)
}

func (r *PostgresRepository) UpdateProject(ctx context.Context, p Project) (Project, error) {
	roof, err := toJSON(p.Roof)
	if err != nil {
		return Project{}, err
	}
	panels, err := toJSON(p.Panels)
	if err != nil {
		return Project{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Project{}, err
	}
	defer tx.Rollback()

	// a simulation only stays valid for the geometry it was run on
	query := `UPDATE projects SET client_id=c.id, name=$4, description=$5, status=$6,
		roof_data=$7::jsonb, panels_config=$8::jsonb,
		simulation_results = CASE
			WHEN projects.roof_data = $7::jsonb AND projects.panels_config = $8::jsonb THEN projects.simulation_results
			ELSE NULL END,
		updated_at=now()
		FROM clients c WHERE projects.id=$1 AND projects.user_id=$2 AND c.id=$3 AND c.user_id=$2`
	res, err := tx.ExecContext(ctx, query, p.ID, p.UserID, p.ClientID, p.Name, p.Description, p.Status, roof, panels)
	if err != nil {
		return Project{}, err
	}
	if err := expectOne(res); err != nil {
		return Project{}, err
	}
	_, err = tx.ExecContext(ctx, `UPDATE quotes SET client_id=$3::uuid, updated_at=now()
		WHERE project_id=$1 AND user_id=$2 AND client_id <> $3::uuid`, p.ID, p.UserID, p.ClientID)
	if err != nil {
		return Project{}, fmt.Errorf("move quotes to client: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Project{}, err
	}
	return r.GetProject(ctx, p.UserID, p.ID)
}

func (r *PostgresRepository) SaveSimulation(ctx context.Context, userID, id string, sim SimulationResults) error {
	body, err := toJSON(sim)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE projects SET simulation_results=$3, updated_at=now() WHERE id=$1 AND user_id=$2", id, userID, body)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *PostgresRepository) DeleteProject(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM quotes WHERE project_id=$1 AND user_id=$2", id, userID); err != nil {
		return fmt.Errorf("delete quotes: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return tx.Commit()
}
