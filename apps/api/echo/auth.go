package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/staff"
)

const (
	contextTokenKey   = "staffToken"
	contextAccountKey = "staff"
	tokenAudience     = "back-office"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

// Account is the staff member the claims were issued to, as far as the token tells.
func (c Claims) Account() staff.Account {
	return staff.Account{ID: c.Subject, Name: c.Name, Email: c.Email, Role: c.Role, IsActive: true}
}

type jwtAuth struct {
	conf   *core.Config
	config middleware.JWTConfig
}

func newJWTAuth(conf *core.Config) *jwtAuth {
	return &jwtAuth{
		conf: conf,
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

func (a *jwtAuth) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.config)
}

func (a *jwtAuth) claimsFor(acc staff.Account, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   acc.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         acc.Name,
		Email:        acc.Email,
		Role:         acc.Role,
		IsAdmin:      acc.IsAdmin(),
	}
}

// generateToken generates a signed JWT token string representing the account claims.
func (a *jwtAuth) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.config.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *jwtAuth) login(ctx echo.Context, creds staff.Credentials, svc *staff.Service) (string, error) {
	acc, err := svc.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		if errors.Cause(err) == staff.ErrInvalidCredentials {
			return "", errAuthenticationFailed
		}
		return "", errors.Wrap(err, "authenticating")
	}
	return a.generateToken(a.claimsFor(acc))
}

func (a *jwtAuth) refreshToken(ctx echo.Context, svc *staff.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	acc, err := getContextAccount(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context account")
	}

	// check if the account is still active
	if !acc.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	return a.generateToken(a.claimsFor(acc, claims.OrigIssuedAt))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextAccount(ctx echo.Context, svc *staff.Service, clms ...Claims) (staff.Account, error) {
	if acc, ok := ctx.Get(contextAccountKey).(staff.Account); ok {
		return acc, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return staff.Account{}, errors.Wrap(err, "getting context claims")
		}
	}

	acc, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == staff.ErrNotFound {
			return staff.Account{}, errUnauthorized
		}
		return staff.Account{}, errors.Wrap(err, "finding staff account by ID")
	}
	ctx.Set(contextAccountKey, acc)
	return acc, nil
}
