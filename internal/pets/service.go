package pets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/adoptme/pet-adoption/backend/internal/common"
	"github.com/adoptme/pet-adoption/backend/internal/models"
)

// UserStore defines the user-side persistence needed to keep the
// User↔Pet ownership link consistent.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	ReplacePetIDs(ctx context.Context, id string, petIDs []string) error
	Delete(ctx context.Context, id string) error
}

// PetStore defines the interface for listing persistence.
type PetStore interface {
	Insert(ctx context.Context, pet *models.Pet) (string, error)
	GetByID(ctx context.Context, id string) (*models.Pet, error)
	All(ctx context.Context) ([]models.Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Pet, error)
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// FileStore defines the interface for photo storage.
type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Service maintains the bidirectional User↔Pet ownership link. The owner's
// pet id list is always written back whole, and photo removals are
// best-effort: a failed removal is logged, never surfaced.
//
// None of the multi-step mutations here are transactional; the stores live
// in different engines. Ordering keeps the damage bounded: dependents go
// before their parent, so an interrupted cascade leaves orphaned photo
// objects at worst, not dangling ownership references.
type Service struct {
	users  UserStore
	pets   PetStore
	photos FileStore
}

func NewService(users UserStore, pets PetStore, photos FileStore) *Service {
	return &Service{users: users, pets: pets, photos: photos}
}

// CreatePet stores a new listing and appends its id to the owner's list.
func (s *Service) CreatePet(ctx context.Context, pet *models.Pet) error {
	owner, err := s.users.GetByID(ctx, pet.Owner)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("owner %s: %w", pet.Owner, common.ErrBadRequest)
		}
		return err
	}

	id, err := s.pets.Insert(ctx, pet)
	if err != nil {
		return err
	}

	return s.users.ReplacePetIDs(ctx, owner.ID, append(owner.PetIDs, id))
}

func (s *Service) GetPet(ctx context.Context, id string) (*models.Pet, error) {
	return s.pets.GetByID(ctx, id)
}

// DeletedPet reports what a single-pet removal touched.
type DeletedPet struct {
	Pet            *models.Pet
	Owner          *models.User
	UpdatedPetList []string
}

// DeletePet removes a listing, drops its id from the owner's list and
// removes the photo object. A missing pet fails softly as a bad request.
func (s *Service) DeletePet(ctx context.Context, petID string) (*DeletedPet, error) {
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("pet %s: %w", petID, common.ErrBadRequest)
		}
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, pet.Owner)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("owner %s: %w", pet.Owner, common.ErrBadRequest)
		}
		return nil, err
	}

	updated := make([]string, 0, len(owner.PetIDs))
	for _, id := range owner.PetIDs {
		if id != petID {
			updated = append(updated, id)
		}
	}
	if err := s.users.ReplacePetIDs(ctx, owner.ID, updated); err != nil {
		return nil, err
	}
	owner.PetIDs = updated

	if err := s.pets.Delete(ctx, petID); err != nil {
		return nil, err
	}

	if pet.Photo != "" {
		if err := s.photos.Remove(ctx, pet.Photo); err != nil {
			slog.Error("couldn't remove pet's photo", "object", pet.Photo, "error", err)
		}
	}

	return &DeletedPet{Pet: pet, Owner: owner, UpdatedPetList: updated}, nil
}

// DeleteUser cascades: all listings owned by the user are bulk-deleted and
// their photos removed before the user row itself goes, followed by the
// profile photo. Only listings whose owner matches are touched.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	petList, err := s.pets.ListByOwner(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.pets.DeleteByOwner(ctx, userID); err != nil {
		return err
	}
	for _, pet := range petList {
		if pet.Photo == "" {
			continue
		}
		if err := s.photos.Remove(ctx, pet.Photo); err != nil {
			slog.Error("couldn't remove pet's photo", "object", pet.Photo, "error", err)
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	if user.ProfilePic != "" {
		if err := s.photos.Remove(ctx, user.ProfilePic); err != nil {
			slog.Error("couldn't remove profile photo", "object", user.ProfilePic, "error", err)
		}
	}

	return nil
}

// AllPetsWithOwners joins every listing with its owner's contact fields.
// Listings whose owner row is gone keep a zero owner instead of being
// dropped.
func (s *Service) AllPetsWithOwners(ctx context.Context) ([]models.PetWithOwner, error) {
	pets, err := s.pets.All(ctx)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]*models.User)
	joined := make([]models.PetWithOwner, 0, len(pets))
	for _, pet := range pets {
		owner, ok := owners[pet.Owner]
		if !ok {
			owner, err = s.users.GetByID(ctx, pet.Owner)
			if err != nil {
				if !errors.Is(err, common.ErrNotFound) {
					return nil, err
				}
				owner = nil
			}
			owners[pet.Owner] = owner
		}

		entry := models.PetWithOwner{Pet: pet}
		if owner != nil {
			entry.Owner = models.OwnerInfo{
				ID:       owner.ID,
				FullName: owner.FullName,
				Email:    owner.Email,
				Contact:  owner.Contact,
				Locality: owner.Locality,
				City:     owner.City,
				State:    owner.State,
				Country:  owner.Country,
				Pincode:  owner.Pincode,
			}
		}
		joined = append(joined, entry)
	}
	return joined, nil
}
