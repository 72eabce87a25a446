package repo

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCommercial Role = "commercial"
	RoleTechnician Role = "technicien"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCommercial, RoleTechnician:
		return true
	}
	return false
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	CompanyName string    `json:"company_name"`
	Role        Role      `json:"role"`
	LogoURL     string    `json:"logo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Client struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	PDL        string    `json:"pdl"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ClientSummary is the client subset embedded in project and quote listings.
type ClientSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city"`
}

func (c ClientSummary) FullName() string {
	return c.FirstName + " " + c.LastName
}

type ProjectStatus string

const (
	ProjectDraft      ProjectStatus = "draft"
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

var ProjectStatuses = []ProjectStatus{ProjectDraft, ProjectPending, ProjectInProgress, ProjectCompleted, ProjectCancelled}

func (s ProjectStatus) Valid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RoofData struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	Orientation float64     `json:"orientation"`
	Tilt        float64     `json:"tilt"`
	Area        float64     `json:"area"`
}

type PanelsConfig struct {
	PanelCount   int     `json:"panel_count"`
	PanelWattage float64 `json:"panel_wattage"`
}

type SimulationResults struct {
	AnnualProduction  float64   `json:"annual_production"`
	AnnualSavings     float64   `json:"annual_savings"`
	MonthlySavings    float64   `json:"monthly_savings"`
	TwentyYearSavings float64   `json:"twenty_year_savings"`
	PaybackPeriod     float64   `json:"payback_period"`
	PricePerKWh       float64   `json:"price_per_kwh"`
	SimulatedAt       time.Time `json:"simulated_at"`
}

type Project struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	ClientID    string             `json:"client_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Status      ProjectStatus      `json:"status"`
	Roof        RoofData           `json:"roof_data"`
	Panels      PanelsConfig       `json:"panels_config"`
	Simulation  *SimulationResults `json:"simulation_results,omitempty"`
	Client      *ClientSummary     `json:"client,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected:
		return true
	}
	return false
}

type QuoteItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

type Quote struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	ProjectID   string         `json:"project_id"`
	ClientID    string         `json:"client_id"`
	QuoteNumber string         `json:"quote_number"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	TotalAmount float64        `json:"total_amount"`
	Status      QuoteStatus    `json:"status"`
	ValidUntil  time.Time      `json:"valid_until"`
	Items       []QuoteItem    `json:"items"`
	ProjectName string         `json:"project_name,omitempty"`
	Client      *ClientSummary `json:"client,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
