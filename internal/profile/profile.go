package profile

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"Solaire/internal/auth"
	"Solaire/internal/httpx"
	"Solaire/internal/repo"
)

type ProfileHandler struct {
	Repo repo.UserRepository
	// UploadDir is where company logos land; they are served under /uploads/.
	UploadDir string
}

type UpdateProfileRequest struct {
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
}

const MaxUploadSize = 10 << 20 // 10MB

var logoExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

func (h *ProfileHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		http.Error(w, "File too big", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// gofpdf only embeds png and jpeg
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !logoExtensions[ext] {
		http.Error(w, "Logo must be a PNG or JPEG image", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.UploadDir, 0755); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("dir", h.UploadDir).Msg("create upload dir")
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	f, err := os.OpenFile(filepath.Join(h.UploadDir, fileName), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if _, err := io.Copy(f, file); err != nil {
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}

	logoURL := "/uploads/" + fileName
	if err := h.Repo.UpdateLogo(r.Context(), userID, logoURL); err != nil {
		httpx.Fail(w, r, err, "update logo")
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"logo_url": logoURL})
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	prof, err := h.Repo.GetProfile(r.Context(), userID)
	if err != nil {
		httpx.Fail(w, r, err, "get profile")
		return
	}
	httpx.JSON(w, http.StatusOK, prof)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		http.Error(w, "Full name required", http.StatusBadRequest)
		return
	}

	prof, err := h.Repo.UpdateProfile(r.Context(), userID, req.FullName, strings.TrimSpace(req.CompanyName))
	if err != nil {
		httpx.Fail(w, r, err, "update profile")
		return
	}
	httpx.JSON(w, http.StatusOK, prof)
}
