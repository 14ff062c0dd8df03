package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/user"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
	contextUserKey = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	TokenType string `json:"token_type"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	ChurchID  string `json:"church_id,omitempty"`
	IsOfficer bool   `json:"is_officer,omitempty"`
}

func GetUserClaims(usr user.User) *Claims {
	return getUserClaims(usr, tokenTypeAccess, core.Conf.Server.JWTExpirationDelta)
}

func GetUserRefreshClaims(usr user.User) *Claims {
	return getUserClaims(usr, tokenTypeRefresh, core.Conf.Server.JWTRefreshExpirationDelta)
}

func getUserClaims(usr user.User, tokenType string, expDelta time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(expDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		TokenType: tokenType,
		Name:      usr.Name,
		Email:     usr.Email,
		Phone:     usr.Phone,
		Role:      usr.Role,
		ChurchID:  usr.ChurchID,
		IsOfficer: usr.IsOfficer,
	}
}

// authenticate checks a user's credentials and returns the user on success.
// lookup fetches the user by whichever identifier the login endpoint uses.
func authenticate(pwd string, lookup func() (user.User, error), svc user.ServiceInterface) (user.User, error) {
	usr, err := lookup()
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// GenerateTokenPair returns the access and refresh tokens handed out on login.
func GenerateTokenPair(usr user.User) (access, refresh string, err error) {
	if access, err = GenerateToken(GetUserClaims(usr)); err != nil {
		return "", "", err
	}
	if refresh, err = GenerateToken(GetUserRefreshClaims(usr)); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			if claims.TokenType == tokenTypeAccess {
				return *claims, nil
			}
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.ServiceInterface, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		for _, role := range roles {
			if claims.Role == role {
				return true
			}
		}
	}
	return false
}

// refreshAccessToken validates a refresh token string and issues a fresh
// access token for its user.
func refreshAccessToken(refresh string, svc user.ServiceInterface) (string, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(refresh, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != appJWTConfig.SigningMethod {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return appJWTConfig.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return "", errRefreshExpired
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", errRefreshExpired
	}

	usr, err := svc.GetByID(claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", errRefreshExpired
		}
		return "", errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return "", errAccountDeactivated
	}
	return GenerateToken(GetUserClaims(usr))
}
