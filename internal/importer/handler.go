package importer

import (
	"errors"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"Solaire/internal/auth"
	"Solaire/internal/client"
	"Solaire/internal/httpx"
	"Solaire/internal/repo"
	"Solaire/internal/validate"
)

const maxImportSize = 10 << 20

type Handler struct {
	Repo repo.ClientRepository
}

type RowError struct {
	Row    int                  `json:"row"`
	Errors validate.FieldErrors `json:"errors"`
}

type ClientImportResult struct {
	Count   int           `json:"count"`
	Clients []repo.Client `json:"clients"`
	Skipped []RowError    `json:"skipped"`
}

// columns expected in the first sheet, header row first
var columns = []string{"first_name", "last_name", "email", "phone", "address", "city", "postal_code", "pdl"}

func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil || len(rows) < 2 {
		http.Error(w, "Empty sheet", http.StatusBadRequest)
		return
	}

	reqs, skipped := ParseRows(rows)
	userID := auth.UserID(r.Context())
	out := ClientImportResult{Clients: make([]repo.Client, 0, len(reqs)), Skipped: skipped}
	for _, req := range reqs {
		c, err := h.Repo.CreateClient(r.Context(), repo.Client{
			UserID:     userID,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Email:      req.Email,
			Phone:      req.Phone,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
			PDL:        req.PDL,
		})
		if err != nil {
			httpx.Fail(w, r, err, "import client")
			return
		}
		out.Clients = append(out.Clients, c)
	}
	out.Count = len(out.Clients)
	httpx.JSON(w, http.StatusOK, out)
}

// ParseRows turns sheet rows into validated client requests. rows[0] is the
// header; a header naming the expected columns may reorder them. Row numbers
// in the skipped list are 1-based sheet rows.
func ParseRows(rows [][]string) ([]client.Request, []RowError) {
	index := headerIndex(rows[0])
	var (
		reqs    []client.Request
		skipped []RowError
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		cell := func(name string) string {
			j := index[name]
			if j < len(row) {
				return row[j]
			}
			return ""
		}
		req := client.Request{
			FirstName:  cell("first_name"),
			LastName:   cell("last_name"),
			Email:      cell("email"),
			Phone:      cell("phone"),
			Address:    cell("address"),
			City:       cell("city"),
			PostalCode: cell("postal_code"),
			PDL:        cell("pdl"),
		}
		if err := req.Validate(); err != nil {
			skipped = append(skipped, RowError{Row: i + 1, Errors: fieldErrors(err)})
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, skipped
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}
	named := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := index[key]; ok {
			named[key] = i
		}
	}
	// positional layout unless every column is named in the header
	if len(named) == len(columns) {
		return named
	}
	return index
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func fieldErrors(err error) validate.FieldErrors {
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return validate.FieldErrors{"row": err.Error()}
}
