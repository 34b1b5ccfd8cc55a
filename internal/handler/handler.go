package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/studentworks/freelancer-service/internal/config"
	"github.com/studentworks/freelancer-service/internal/feed"
	"github.com/studentworks/freelancer-service/internal/media"
	"github.com/studentworks/freelancer-service/internal/middleware"
	"github.com/studentworks/freelancer-service/internal/repository"
	"github.com/studentworks/freelancer-service/internal/service"
)

// multipart memory ceiling before spooling to disk
const maxFormMemory = 32 << 20

type Handler struct {
	svc      *service.Service
	cfg      *config.Config
	log      *logrus.Logger
	validate *validator.Validate
}

func NewHandler(svc *service.Service, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log, validate: newValidator()}
}

// Register handles POST /api/users/register (multipart form).
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	rate, ok := parseHourlyRate(r.FormValue("hourly_rate"))
	if !ok {
		h.respondValidation(w, map[string]string{"hourly_rate": fieldMessages["HourlyRate"]})
		return
	}

	form := registerForm{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
		Password:   r.FormValue("password"),
		Skills:     r.FormValue("skills"),
		Bio:        r.FormValue("bio"),
		HourlyRate: rate,
	}
	if err := h.validate.Struct(&form); err != nil {
		if errs := validationErrors(err); errs != nil {
			h.respondValidation(w, errs)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to register user. Please try again.", err)
		return
	}

	upload, closeUpload, err := formUpload(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File upload error", err)
		return
	}
	defer closeUpload()

	user, err := h.svc.Register(service.RegisterInput{
		Name:       form.Name,
		Email:      form.Email,
		Phone:      form.Phone,
		Password:   form.Password,
		Skills:     form.Skills,
		Bio:        form.Bio,
		HourlyRate: form.HourlyRate,
		Picture:    upload,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			h.respondError(w, http.StatusConflict, "User with this email already exists", nil)
		case errors.Is(err, media.ErrUnsupportedType):
			h.respondError(w, http.StatusBadRequest, "Only image files are allowed", nil)
		case errors.Is(err, media.ErrTooLarge):
			h.respondError(w, http.StatusBadRequest, "File size too large. Maximum size is 5MB.", nil)
		default:
			h.respondError(w, http.StatusInternalServerError, "Failed to register user. Please try again.", err)
		}
		return
	}

	h.respond(w, http.StatusCreated, "User registered successfully! Welcome to Student Freelancer Workplace!", user)
}

// List handles GET /api/users with pagination and search.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	search := r.URL.Query().Get("search")

	result, err := h.svc.ListUsers(page, limit, search)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve users", err)
		return
	}
	h.respond(w, http.StatusOK, "Users retrieved successfully", result)
}

// GetByID handles GET /api/users/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	user, err := h.svc.GetUser(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve user", err)
		return
	}
	h.respond(w, http.StatusOK, "User retrieved successfully", user)
}

// Update handles PUT /api/users/{id} (multipart form).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	rate, ok := parseHourlyRate(r.FormValue("hourly_rate"))
	if !ok {
		h.respondValidation(w, map[string]string{"hourly_rate": fieldMessages["HourlyRate"]})
		return
	}

	form := updateForm{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
		Skills:     r.FormValue("skills"),
		Bio:        r.FormValue("bio"),
		HourlyRate: rate,
	}
	if err := h.validate.Struct(&form); err != nil {
		if errs := validationErrors(err); errs != nil {
			h.respondValidation(w, errs)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to update user", err)
		return
	}

	upload, closeUpload, err := formUpload(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File upload error", err)
		return
	}
	defer closeUpload()

	user, err := h.svc.UpdateUser(id, service.UpdateInput{
		Name:       form.Name,
		Email:      form.Email,
		Phone:      form.Phone,
		Skills:     form.Skills,
		Bio:        form.Bio,
		HourlyRate: form.HourlyRate,
		Picture:    upload,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.respondError(w, http.StatusNotFound, "User not found", nil)
		case errors.Is(err, repository.ErrDuplicateEmail):
			h.respondError(w, http.StatusConflict, "Email is already taken by another user", nil)
		case errors.Is(err, media.ErrUnsupportedType):
			h.respondError(w, http.StatusBadRequest, "Only image files are allowed", nil)
		case errors.Is(err, media.ErrTooLarge):
			h.respondError(w, http.StatusBadRequest, "File size too large. Maximum size is 5MB.", nil)
		default:
			h.respondError(w, http.StatusInternalServerError, "Failed to update user", err)
		}
		return
	}

	h.respond(w, http.StatusOK, "User updated successfully", user)
}

// Delete handles DELETE /api/users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	if err := h.svc.DeleteUser(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to delete user", err)
		return
	}
	h.respond(w, http.StatusOK, "User deleted successfully", nil)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		if errs := validationErrors(err); errs != nil {
			h.respondValidation(w, errs)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Login failed. Please try again.", err)
		return
	}

	user, token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.respondError(w, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Login failed. Please try again.", err)
		return
	}

	h.respond(w, http.StatusOK, "Login successful! Welcome back!", map[string]any{
		"user":  user,
		"token": token,
	})
}

// Profile handles GET /api/auth/profile for the authenticated user.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Access denied. No token provided.", nil)
		return
	}

	user, err := h.svc.GetUser(claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve profile", err)
		return
	}
	h.respond(w, http.StatusOK, "Profile retrieved successfully", user)
}

// UpdateProfile handles PUT /api/auth/profile (JSON body, no picture).
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Access denied. No token provided.", nil)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		if errs := validationErrors(err); errs != nil {
			h.respondValidation(w, errs)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to update profile", err)
		return
	}

	user, err := h.svc.UpdateProfile(claims.UserID, service.ProfileInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Skills:     req.Skills,
		Bio:        req.Bio,
		HourlyRate: req.HourlyRate,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to update profile", err)
		return
	}
	h.respond(w, http.StatusOK, "Profile updated successfully", user)
}

// Logout handles POST /api/auth/logout. Tokens are not revoked server-side;
// the client is expected to discard its copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, "Logout successful. Please remove the token from your client.", nil)
}

// Feed handles GET /api/users/feed, an RSS listing of the newest freelancers.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListUsers(1, 20, "")
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to build feed", err)
		return
	}

	out, err := feed.Build(result.Users, h.cfg.FrontendURL)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to build feed", err)
		return
	}

	w.Header().Set("Content-Type", feed.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.log.Errorf("Failed to write feed: %v", err)
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, "OK", map[string]string{"status": "up"})
}

// NotFound is the JSON catch-all for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, http.StatusNotFound, "Route not found", nil)
}

func formUpload(r *http.Request) (*service.Upload, func(), error) {
	file, header, err := r.FormFile("profile_picture")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return &service.Upload{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, func() { closeFile(file) }, nil
}

func closeFile(f multipart.File) {
	_ = f.Close()
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func parseHourlyRate(raw string) (*float64, bool) {
	if raw == "" {
		return nil, true
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &rate, true
}
