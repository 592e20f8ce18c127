package staff

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ecolage/core"
)

// Roles
const (
	RoleAdmin  = "admin"  // configures schedules, runs maintenance
	RoleBursar = "bursar" // records payments
)

var Roles = []string{RoleAdmin, RoleBursar}

// Account is a school office staff member allowed to log in.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	LastLogin    time.Time `json:"last_login"` // UTC
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) IsAdmin() bool { return a.Role == RoleAdmin }

// document is the stored shape of an Account; unlike the API one, it keeps the password hash.
type document struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"password_hash"`
	LastLogin    time.Time `json:"last_login"`
}

func toDocument(a Account) document {
	return document{
		Name:         a.Name,
		Email:        a.Email,
		Role:         a.Role,
		IsActive:     a.IsActive,
		PasswordHash: a.PasswordHash,
		LastLogin:    a.LastLogin,
	}
}

// NewAccount contains information needed to create a new Account.
type NewAccount struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,staffrole"`
	Password        string `json:"password" validate:"required,pwdminlen"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Role = core.CleanString(na.Role, true /* lower */)
	return validate.Struct(na)
}

// Credentials are what a staff member logs in with.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
