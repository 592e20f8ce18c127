package staff

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

var (
	// errors
	ErrNotFound           = errors.New("staff account not found")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Repository interface {
	CreateAccount(ctx context.Context, a Account) (Account, error)
	QueryAllAccounts(ctx context.Context) ([]Account, error)
	GetAccountByID(ctx context.Context, id string) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	SetPassword(ctx context.Context, id string, hash []byte) error
}

type Service struct {
	repo    Repository
	nowFunc func() time.Time
}

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()
	return &Service{repo: repo, nowFunc: time.Now}
}

func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	if _, err := svc.repo.GetAccountByEmail(ctx, na.Email); err == nil {
		return Account{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return Account{}, err
	}

	acc := Account{
		Name:     na.Name,
		Email:    na.Email,
		Role:     na.Role,
		IsActive: true,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAccount(ctx, acc)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAllAccounts(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Authenticate checks the credentials of an active account and records the login.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (Account, error) {
	acc, err := svc.repo.GetAccountByEmail(ctx, core.CleanString(creds.Email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if !acc.IsActive || acc.CheckPassword(creds.Password) != nil {
		return Account{}, ErrInvalidCredentials
	}

	acc.LastLogin = svc.nowFunc().UTC()
	if err = svc.repo.SetLastLogin(ctx, acc.ID, acc.LastLogin); err != nil {
		return Account{}, err
	}
	return acc, nil
}

func (svc *Service) ChangePassword(ctx context.Context, id, pwd string) error {
	acc, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if err = acc.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.SetPassword(ctx, id, acc.PasswordHash)
}
