package auth

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	BrandID      string
}

// UserDirectory is an in-memory user registry. The demo ships with one user
// per role so every authorization path can be exercised out of the box.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]*User // keyed by email
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{users: make(map[string]*User)}
}

// SeedDemoUsers registers the built-in demo accounts. Returns an error only
// if hashing fails, which would indicate a broken bcrypt setup.
func (d *UserDirectory) SeedDemoUsers() error {
	seeds := []struct {
		email    string
		password string
		role     Role
		brandID  string
	}{
		{"admin@marketplace.com", "admin123", RoleAdmin, ""},
		{"brand@marketplace.com", "brand123", RoleBrand, "brand1"},
		{"customer@marketplace.com", "customer123", RoleCustomer, ""},
	}

	for _, seed := range seeds {
		hash, err := HashPassword(seed.password)
		if err != nil {
			return err
		}
		d.register(&User{
			ID:           uuid.New().String(),
			Email:        seed.email,
			PasswordHash: hash,
			Role:         seed.role,
			BrandID:      seed.brandID,
		})
	}
	return nil
}

func (d *UserDirectory) register(u *User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.Email] = u
}

// Authenticate verifies the credentials and returns the matching user.
func (d *UserDirectory) Authenticate(email, password string) (*User, error) {
	d.mu.RLock()
	u, ok := d.users[email]
	d.mu.RUnlock()
	if !ok || !CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FindByID returns the user with the given id, if any.
func (d *UserDirectory) FindByID(id string) (*User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}
