package pets

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adoptme/pet-adoption/backend/internal/common"
	"github.com/adoptme/pet-adoption/backend/internal/models"
)

const maxUploadSize = 10 << 20

// Cache keeps the joined all-pets listing between reads.
type Cache interface {
	GetListing(ctx context.Context) ([]models.PetWithOwner, bool)
	SetListing(ctx context.Context, pets []models.PetWithOwner)
	Invalidate(ctx context.Context)
}

// Handler holds pet and community HTTP handlers.
type Handler struct {
	svc    *Service
	users  UserStore
	photos FileStore
	cache  Cache
}

func NewHandler(svc *Service, users UserStore, photos FileStore, cache Cache) *Handler {
	return &Handler{svc: svc, users: users, photos: photos, cache: cache}
}

// OwnedPets returns the pet ids owned by the user in the path.
func (h *Handler) OwnedPets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Error fetching pet data.")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Pets fetched successfully",
		"pets":    user.PetIDs,
	})
}

// PetDetails returns a single listing.
func (h *Handler) PetDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pet_id")
	pet, err := h.svc.GetPet(r.Context(), id)
	if err != nil {
		msg := "Server error."
		if errors.Is(err, common.ErrNotFound) {
			msg = "Pet not found."
		}
		common.RespondWithError(w, common.HTTPStatusFromError(err), msg)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Pet data fetched successfully.",
		"details": pet,
	})
}

// AllPets returns every listing joined with owner contact fields, served
// from the Redis cache when warm.
func (h *Handler) AllPets(w http.ResponseWriter, r *http.Request) {
	if pets, ok := h.cache.GetListing(r.Context()); ok {
		common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Pet details fetched successfully",
			"pets":    pets,
		})
		return
	}

	pets, err := h.svc.AllPetsWithOwners(r.Context())
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Can't fetch pets.")
		return
	}
	h.cache.SetListing(r.Context(), pets)

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Pet details fetched successfully",
		"pets":    pets,
	})
}

// Community lists every account with the user role.
func (h *Handler) Community(w http.ResponseWriter, r *http.Request) {
	members, err := h.users.ListByRole(r.Context(), models.RoleUser)
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Couldn't fetch community members.")
		return
	}
	if members == nil {
		members = []models.User{}
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Successfully fetched community members",
		"members": members,
	})
}

// UploadPet creates a listing from a multipart form. The photo is required;
// the owner must exist.
func (h *Handler) UploadPet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	pet := &models.Pet{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Species:     strings.TrimSpace(r.FormValue("species")),
		Breed:       strings.TrimSpace(r.FormValue("breed")),
		Color:       strings.TrimSpace(r.FormValue("color")),
		Nature:      strings.TrimSpace(r.FormValue("nature")),
		Gender:      strings.TrimSpace(r.FormValue("gender")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Owner:       strings.TrimSpace(r.FormValue("owner")),
	}

	if weightStr := r.FormValue("weight"); weightStr != "" {
		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil || weight < 0 {
			common.RespondWithError(w, http.StatusBadRequest, "Weight cannot be negative.")
			return
		}
		pet.Weight = weight
	}

	if msg, ok := validateListing(pet); !ok {
		common.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "A photo of your pet is required.")
		return
	}
	defer file.Close()

	key := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	if err := h.photos.Upload(r.Context(), key, file, header.Size, header.Header.Get("Content-Type")); err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	pet.Photo = key

	if err := h.svc.CreatePet(r.Context(), pet); err != nil {
		// the photo object is orphaned otherwise
		if rmErr := h.photos.Remove(r.Context(), key); rmErr != nil {
			slog.Error("couldn't remove pet's photo", "object", key, "error", rmErr)
		}
		if errors.Is(err, common.ErrBadRequest) {
			common.RespondWithError(w, http.StatusBadRequest, "Couldn't upload pet details.")
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	h.cache.Invalidate(r.Context())

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Pet details uploaded successfully.",
	})
}

// DeletePet removes a listing. Only the pet's owner or an admin may do so.
func (h *Handler) DeletePet(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "id")
	requesterID, _ := r.Context().Value("user_id").(string)

	pet, err := h.svc.GetPet(r.Context(), petID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.RespondWithError(w, http.StatusBadRequest, "Couldn't remove pet entry.")
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, "Server error.")
		return
	}

	if pet.Owner != requesterID {
		requester, err := h.users.GetByID(r.Context(), requesterID)
		if err != nil || requester.Role != models.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "You can only remove your own pet listings.")
			return
		}
	}

	deleted, err := h.svc.DeletePet(r.Context(), petID)
	if err != nil {
		if errors.Is(err, common.ErrBadRequest) {
			common.RespondWithError(w, http.StatusBadRequest, "Couldn't remove pet entry.")
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, "Server error.")
		return
	}
	h.cache.Invalidate(r.Context())

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"message":          "Pet entry deleted.",
		"pet":              deleted.Pet,
		"owner":            deleted.Owner,
		"updated_pet_list": deleted.UpdatedPetList,
	})
}

// DeleteUser cascades a user removal. Admin-gated by middleware.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		msg := "Server error."
		if errors.Is(err, common.ErrNotFound) {
			msg = "User not found."
		}
		common.RespondWithError(w, common.HTTPStatusFromError(err), msg)
		return
	}
	h.cache.Invalidate(r.Context())

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User and all their pet listings have been removed.",
	})
}

// ServePhoto streams an uploaded photo from the object store.
func (h *Handler) ServePhoto(w http.ResponseWriter, r *http.Request) {
	object := chi.URLParam(r, "object")
	data, contentType, err := h.photos.Download(r.Context(), object)
	if err != nil {
		common.RespondWithError(w, http.StatusNotFound, "Photo not found.")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// validateListing checks the schema constraints of a new listing and
// returns a field-level message on failure.
func validateListing(pet *models.Pet) (string, bool) {
	if pet.Name == "" {
		return "Pet name is required.", false
	}
	if !models.ValidSpecies(pet.Species) {
		return "Species is required.", false
	}
	if pet.Breed == "" {
		return "Breed is required.", false
	}
	if pet.Color == "" {
		return "Color is required.", false
	}
	if !models.ValidGender(pet.Gender) {
		return "Gender is required.", false
	}
	if !models.ValidNature(pet.Nature) {
		return "Invalid nature.", false
	}
	if len(pet.Description) > models.MaxDescriptionLen {
		return "Description cannot be more than 500 characters.", false
	}
	if pet.Owner == "" {
		return "Couldn't upload pet details.", false
	}
	return "", true
}
