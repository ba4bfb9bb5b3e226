package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/adoptme/pet-adoption/backend/internal/common"
	"github.com/adoptme/pet-adoption/backend/internal/models"
)

const maxUploadSize = 10 << 20 // 10MB multipart memory limit

// UserStore defines the interface for user persistence.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	HasOtherWithEmailOrContact(ctx context.Context, id, email, contact string) (bool, error)
	Update(ctx context.Context, u *models.User) error
}

// PhotoStore defines the interface for profile photo storage.
type PhotoStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users     UserStore
	photos    PhotoStore
	secret    string
	adminCode string
}

func NewHandler(users UserStore, photos PhotoStore, secret, adminCode string) *Handler {
	return &Handler{users: users, photos: photos, secret: secret, adminCode: adminCode}
}

// RegisterUser creates a regular account from a multipart form. The role is
// always "user" regardless of form input; admin accounts only come from the
// admin registration route.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	u := &models.User{
		ID:       uuid.NewString(),
		FullName: strings.TrimSpace(r.FormValue("fullname")),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Contact:  strings.TrimSpace(r.FormValue("contact")),
		Locality: strings.TrimSpace(r.FormValue("locality")),
		City:     strings.TrimSpace(r.FormValue("city")),
		State:    strings.TrimSpace(r.FormValue("state")),
		Country:  strings.TrimSpace(r.FormValue("country")),
		Pincode:  strings.TrimSpace(r.FormValue("pincode")),
		Role:     models.RoleUser,
		PetIDs:   []string{},
	}

	if msg, ok := validateIdentity(u.FullName, u.Email, u.Contact, r.FormValue("password")); !ok {
		common.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	h.createAccount(w, r, u)
}

// RegisterAdmin creates an admin account, gated by the admin secret code.
// Admin profiles carry identity fields only.
func (h *Handler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	if h.adminCode == "" || r.FormValue("code") != h.adminCode {
		common.RespondWithError(w, http.StatusForbidden, "Admin secret code is incorrect.")
		return
	}

	u := &models.User{
		ID:       uuid.NewString(),
		FullName: strings.TrimSpace(r.FormValue("fullname")),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Contact:  strings.TrimSpace(r.FormValue("contact")),
		Role:     models.RoleAdmin,
		PetIDs:   []string{},
	}

	if msg, ok := validateIdentity(u.FullName, u.Email, u.Contact, r.FormValue("password")); !ok {
		common.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	h.createAccount(w, r, u)
}

// createAccount hashes the password, stores the optional profile photo and
// the user row, and sets the session cookie.
func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request, u *models.User) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(r.FormValue("password")), bcrypt.DefaultCost)
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Error creating user.")
		return
	}
	u.Password = string(hashed)

	if file, header, err := r.FormFile("profilepic"); err == nil {
		defer file.Close()
		key, err := h.savePhoto(r.Context(), file, header)
		if err != nil {
			common.RespondWithError(w, http.StatusInternalServerError, "Error creating user.")
			return
		}
		u.ProfilePic = key
	}

	if err := h.users.Create(r.Context(), u); err != nil {
		if u.ProfilePic != "" {
			// the photo object is orphaned otherwise
			if rmErr := h.photos.Remove(r.Context(), u.ProfilePic); rmErr != nil {
				slog.Error("couldn't remove profile photo", "object", u.ProfilePic, "error", rmErr)
			}
		}
		if errors.Is(err, common.ErrConflict) {
			common.RespondWithError(w, http.StatusBadRequest, "User with this email or contact number already exists.")
			return
		}
		slog.Error("create user failed", "error", err)
		common.RespondWithError(w, http.StatusInternalServerError, "Error creating user.")
		return
	}

	token, err := GenerateToken(u.ID, u.Email, h.secret)
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Error creating user.")
		return
	}
	SetTokenCookie(w, token)

	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Account created successfully!",
		"user":    u,
	})
}

// Login authenticates by email and password and sets the session cookie.
// Unknown email and wrong password produce the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		common.RespondWithError(w, http.StatusBadRequest, "Both email and password are required.")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, "Server error.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		common.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token, err := GenerateToken(user.ID, user.Email, h.secret)
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Server error.")
		return
	}
	SetTokenCookie(w, token)

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged in successfully!",
		"user":    user,
	})
}

// Logout clears the session cookie. Previously issued tokens are not
// revoked server-side.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearTokenCookie(w)
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out.",
	})
}

// Me returns the currently authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value("user_id").(string)
	if userID == "" {
		common.RespondWithError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.RespondWithError(w, http.StatusNotFound, "User not found.")
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// UpdateProfile applies a multipart profile patch for the authenticated
// user. The previous photo object is removed only after the row update
// commits.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value("user_id").(string)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.RespondWithError(w, http.StatusNotFound, "User not found.")
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, "Couldn't update profile.")
		return
	}

	fullname := strings.TrimSpace(r.FormValue("fullname"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	contact := strings.TrimSpace(r.FormValue("contact"))

	if fullname == "" {
		common.RespondWithError(w, http.StatusBadRequest, "Full name is required.")
		return
	}
	if !models.ValidEmail(email) {
		common.RespondWithError(w, http.StatusBadRequest, "Please enter a valid email address.")
		return
	}
	if !models.ValidContact(contact) {
		common.RespondWithError(w, http.StatusBadRequest, "Please enter a valid 10-digit mobile number.")
		return
	}

	taken, err := h.users.HasOtherWithEmailOrContact(r.Context(), user.ID, email, contact)
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Couldn't update profile.")
		return
	}
	if taken {
		common.RespondWithError(w, http.StatusBadRequest, "There already exists a user with this email or contact.")
		return
	}

	user.FullName = fullname
	user.Email = email
	user.Contact = contact
	if user.Role == models.RoleUser {
		user.Locality = strings.TrimSpace(r.FormValue("locality"))
		user.City = strings.TrimSpace(r.FormValue("city"))
		user.State = strings.TrimSpace(r.FormValue("state"))
		user.Country = strings.TrimSpace(r.FormValue("country"))
		user.Pincode = strings.TrimSpace(r.FormValue("pincode"))
	}

	prevPhoto := user.ProfilePic
	if file, header, err := r.FormFile("profilepic"); err == nil {
		defer file.Close()
		key, err := h.savePhoto(r.Context(), file, header)
		if err != nil {
			common.RespondWithError(w, http.StatusInternalServerError, "Couldn't update profile.")
			return
		}
		user.ProfilePic = key
	} else if r.FormValue("photoAction") == "remove" {
		user.ProfilePic = ""
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			common.RespondWithError(w, http.StatusBadRequest, "There already exists a user with this email or contact.")
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, "Couldn't update profile.")
		return
	}

	if prevPhoto != "" && prevPhoto != user.ProfilePic {
		if err := h.photos.Remove(r.Context(), prevPhoto); err != nil {
			slog.Error("couldn't remove profile photo", "object", prevPhoto, "error", err)
		}
	}

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated.",
		"user":    user,
	})
}

// savePhoto streams an uploaded file into the photo store under a fresh
// object name and returns that name.
func (h *Handler) savePhoto(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	key := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	if err := h.photos.Upload(ctx, key, file, header.Size, header.Header.Get("Content-Type")); err != nil {
		return "", err
	}
	return key, nil
}

// validateIdentity checks the shared registration constraints and returns a
// field-level message on failure.
func validateIdentity(fullname, email, contact, password string) (string, bool) {
	if fullname == "" {
		return "Full name is required.", false
	}
	if !models.ValidEmail(email) {
		return "Please enter a valid email address.", false
	}
	if !models.ValidContact(contact) {
		return "Please enter a valid 10-digit mobile number.", false
	}
	if !models.ValidPassword(password) {
		return "Password must have atleast 6 characters.", false
	}
	return "", true
}
