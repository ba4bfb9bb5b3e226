package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Species values accepted for an adoption listing.
const (
	SpeciesDog     = "Dog"
	SpeciesCat     = "Cat"
	SpeciesRabbit  = "Rabbit"
	SpeciesParrot  = "Parrot"
	SpeciesHamster = "Hamster"
	SpeciesOther   = "Other"
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// MaxDescriptionLen caps the free-text description of a listing.
const MaxDescriptionLen = 500

// Pet is a single adoption listing stored in MongoDB. Owner is the id of the
// user row owning the listing; Photo is the object name of the uploaded
// picture, never a full path.
type Pet struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	Name        string             `json:"name"        bson:"name"`
	Species     string             `json:"species"     bson:"species"`
	Breed       string             `json:"breed"       bson:"breed"`
	Color       string             `json:"color"       bson:"color"`
	Weight      float64            `json:"weight"      bson:"weight"`
	Photo       string             `json:"photo"       bson:"photo"`
	Nature      string             `json:"nature"      bson:"nature,omitempty"`
	Gender      string             `json:"gender"      bson:"gender"`
	Description string             `json:"description" bson:"description,omitempty"`
	Owner       string             `json:"owner"       bson:"owner"`
	CreatedAt   time.Time          `json:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"  bson:"updated_at"`
}

// OwnerInfo is the contact subset of a User exposed alongside a listing.
type OwnerInfo struct {
	ID       string `json:"id"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
	Locality string `json:"locality"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Pincode  string `json:"pincode"`
}

// PetWithOwner is a listing joined with its owner's contact fields. The outer
// Owner field shadows Pet.Owner in the JSON encoding.
type PetWithOwner struct {
	Pet
	Owner OwnerInfo `json:"owner"`
}

var validSpecies = map[string]bool{
	SpeciesDog:     true,
	SpeciesCat:     true,
	SpeciesRabbit:  true,
	SpeciesParrot:  true,
	SpeciesHamster: true,
	SpeciesOther:   true,
}

var validNature = map[string]bool{
	"Playful":      true,
	"Calm":         true,
	"Shy":          true,
	"Energetic":    true,
	"Affectionate": true,
}

func ValidSpecies(s string) bool {
	return validSpecies[s]
}

func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

// ValidNature accepts the empty string; nature is optional.
func ValidNature(n string) bool {
	return n == "" || validNature[n]
}
