package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/adoptme/pet-adoption/backend/internal/common"
	"github.com/adoptme/pet-adoption/backend/internal/models"
)

type fakeUsers struct {
	byID map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]*models.User)}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email || existing.Contact == u.Contact {
			return common.ErrConflict
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) HasOtherWithEmailOrContact(ctx context.Context, id, email, contact string) (bool, error) {
	for _, u := range f.byID {
		if u.ID != id && (u.Email == email || u.Contact == contact) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Update(ctx context.Context, u *models.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return common.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

type fakePhotos struct {
	uploaded []string
	removed  []string
}

func (f *fakePhotos) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	io.Copy(io.Discard, r)
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakePhotos) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func newTestHandler() (*Handler, *fakeUsers) {
	users := newFakeUsers()
	return NewHandler(users, &fakePhotos{}, "test-secret", "admin-code"), users
}

func multipartForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func registerForm(email, contact string) map[string]string {
	return map[string]string{
		"fullname": "Test User",
		"email":    email,
		"contact":  contact,
		"password": "password123",
		"city":     "Pune",
		"country":  "India",
	}
}

func doRegister(t *testing.T, h *Handler, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartForm(t, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/register/user", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.RegisterUser(rec, req)
	return rec
}

func TestRegisterUserSetsCookie(t *testing.T) {
	h, users := newTestHandler()

	rec := doRegister(t, h, registerForm("a@x.com", "9876543210"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == TokenCookie && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("registration did not set the HTTP-only token cookie")
	}

	if len(users.byID) != 1 {
		t.Fatalf("got %d users stored, want 1", len(users.byID))
	}
	for _, u := range users.byID {
		if u.Password == "password123" {
			t.Error("raw password was persisted")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password123")); err != nil {
			t.Errorf("stored password is not a valid bcrypt hash: %v", err)
		}
	}
}

func TestRegisterUserForcesUserRole(t *testing.T) {
	h, users := newTestHandler()

	fields := registerForm("a@x.com", "9876543210")
	fields["role"] = models.RoleAdmin
	rec := doRegister(t, h, fields)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	for _, u := range users.byID {
		if u.Role != models.RoleUser {
			t.Errorf("role = %q, want %q", u.Role, models.RoleUser)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := newTestHandler()

	if rec := doRegister(t, h, registerForm("a@x.com", "9876543210")); rec.Code != http.StatusCreated {
		t.Fatalf("first registration: status = %d, want 201", rec.Code)
	}
	rec := doRegister(t, h, registerForm("a@x.com", "1112223334"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate email: status = %d, want 400", rec.Code)
	}
}

func TestRegisterDuplicateContact(t *testing.T) {
	h, _ := newTestHandler()

	if rec := doRegister(t, h, registerForm("a@x.com", "9876543210")); rec.Code != http.StatusCreated {
		t.Fatalf("first registration: status = %d, want 201", rec.Code)
	}
	rec := doRegister(t, h, registerForm("b@x.com", "9876543210"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate contact: status = %d, want 400", rec.Code)
	}
}

func TestRegisterRejectsBadFields(t *testing.T) {
	h, _ := newTestHandler()

	bad := registerForm("not-an-email", "9876543210")
	if rec := doRegister(t, h, bad); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid email: status = %d, want 400", rec.Code)
	}

	bad = registerForm("a@x.com", "12345")
	if rec := doRegister(t, h, bad); rec.Code != http.StatusBadRequest {
		t.Errorf("short contact: status = %d, want 400", rec.Code)
	}

	bad = registerForm("a@x.com", "9876543210")
	bad["password"] = "abc"
	if rec := doRegister(t, h, bad); rec.Code != http.StatusBadRequest {
		t.Errorf("short password: status = %d, want 400", rec.Code)
	}
}

func TestRegisterAdminWrongCode(t *testing.T) {
	h, _ := newTestHandler()

	fields := registerForm("admin@x.com", "9876543210")
	fields["code"] = "wrong"
	body, contentType := multipartForm(t, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/register/admin", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.RegisterAdmin(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func doLogin(t *testing.T, h *Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(models.LoginRequest{Email: email, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLoginFailureIsUniform(t *testing.T) {
	h, _ := newTestHandler()
	doRegister(t, h, registerForm("a@x.com", "9876543210"))

	wrongPassword := doLogin(t, h, "a@x.com", "not-the-password")
	unknownEmail := doLogin(t, h, "ghost@x.com", "password123")

	if wrongPassword.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", wrongPassword.Code)
	}
	if unknownEmail.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: status = %d, want 401", unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("failure responses differ: %q vs %q — they must not reveal which field was wrong",
			wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestUpdateProfileRoundTrip(t *testing.T) {
	users := newFakeUsers()
	photos := &fakePhotos{}
	h := NewHandler(users, photos, "test-secret", "admin-code")

	doRegister(t, h, registerForm("a@x.com", "9876543210"))
	var userID string
	for id := range users.byID {
		userID = id
	}

	fields := map[string]string{
		"fullname": "Renamed User",
		"email":    "new@x.com",
		"contact":  "9876543210",
		"locality": "Kothrud",
		"city":     "Pune",
		"state":    "MH",
		"country":  "India",
		"pincode":  "411038",
	}
	body, contentType := multipartForm(t, fields)
	req := httptest.NewRequest(http.MethodPut, "/api/update-profile", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(context.WithValue(req.Context(), "user_id", userID))
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Re-fetch: the patch must be visible and the password must stay hashed.
	stored, err := users.GetByID(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.FullName != "Renamed User" || stored.Email != "new@x.com" || stored.City != "Pune" {
		t.Errorf("patched fields not persisted: %+v", stored)
	}
	if strings.Contains(rec.Body.String(), stored.Password) {
		t.Error("update response leaks the password hash")
	}
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	users := newFakeUsers()
	h := NewHandler(users, &fakePhotos{}, "test-secret", "admin-code")

	doRegister(t, h, registerForm("a@x.com", "9876543210"))
	doRegister(t, h, registerForm("b@x.com", "1112223334"))

	var aID string
	for id, u := range users.byID {
		if u.Email == "a@x.com" {
			aID = id
		}
	}

	fields := map[string]string{
		"fullname": "Test User",
		"email":    "b@x.com", // already taken by the other account
		"contact":  "9876543210",
	}
	body, contentType := multipartForm(t, fields)
	req := httptest.NewRequest(http.MethodPut, "/api/update-profile", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(context.WithValue(req.Context(), "user_id", aID))
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoginOmitsPasswordHash(t *testing.T) {
	h, _ := newTestHandler()
	doRegister(t, h, registerForm("a@x.com", "9876543210"))

	rec := doLogin(t, h, "a@x.com", "password123")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("login response contains a password field")
	}

	var payload struct {
		User map[string]interface{} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if _, ok := payload.User["password"]; ok {
		t.Error("user payload carries a password key")
	}
}
