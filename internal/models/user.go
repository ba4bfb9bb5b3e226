package models

import (
	"regexp"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a row in the PostgreSQL users table. The pets field holds
// the ordered ids of this user's Pet documents; every mutation writes the
// whole list back.
type User struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullname"`
	Email      string    `json:"email"`
	Password   string    `json:"-"` // never serialize
	Contact    string    `json:"contact"`
	Locality   string    `json:"locality"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Country    string    `json:"country"`
	Pincode    string    `json:"pincode"`
	Role       string    `json:"role"`
	ProfilePic string    `json:"profilepic"`
	PetIDs     []string  `json:"pets"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LoginRequest is the JSON body for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}$`)
	contactRe = regexp.MustCompile(`^\d{10}$`)
)

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidContact reports whether contact is a 10-digit mobile number.
func ValidContact(contact string) bool {
	return contactRe.MatchString(contact)
}

func ValidPassword(password string) bool {
	return len(password) >= 6
}
