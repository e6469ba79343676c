package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/campusqa/portal/internal/database"
	"github.com/campusqa/portal/internal/token"
	"github.com/campusqa/portal/internal/types"
	"github.com/teris-io/shortid"
	"golang.org/x/crypto/bcrypt"
)

const (
	authHeaderScheme = "Bearer"
	tokenQueryParam  = "token"
	resetCodeTTL     = 30 * time.Minute
)

type contextKey string

const identityKey contextKey = "identity"

// RequestIdentity returns the identity the auth middleware verified for
// this request. Handlers must use this, never client-supplied fields,
// to decide who is calling.
func RequestIdentity(ctx context.Context) (token.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(token.Identity)
	return ident, ok
}

func WithIdentity(ctx context.Context, ident token.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// bearerToken extracts the credential from the Authorization header, or
// from the token query parameter for websocket clients that cannot set
// headers. A missing header, wrong scheme or empty token segment are
// all treated identically as "no credential".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, tokenString, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, authHeaderScheme) || tokenString == "" {
			return "", false
		}
		return tokenString, true
	}

	if tokenString := r.URL.Query().Get(tokenQueryParam); tokenString != "" {
		return tokenString, true
	}

	return "", false
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type ResetPasswordRequestRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (s *PortalApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// self-registration is for students; staff accounts are provisioned
	role := req.Role
	if role == "" {
		role = types.RoleStudent
	}
	if role != types.RoleStudent {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newUser, err := s.db.CreateAccount(database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
		Role:         role,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.User{
		Id:           newUser.Id,
		Username:     newUser.Username,
		EmailAddress: newUser.EmailAddress,
		Role:         newUser.Role,
		CreatedAt:    newUser.CreatedAt,
		UpdatedAt:    newUser.UpdatedAt,
	})
}

func (s *PortalApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewUnauthorizedError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !dbUser.Enabled || !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	tokenString, err := s.tokens.Issue(token.Identity{
		Id:          dbUser.Id,
		DisplayName: dbUser.Username,
		Role:        dbUser.Role,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, LoginResponse{
		Token: tokenString,
		User: types.User{
			Id:           dbUser.Id,
			Username:     dbUser.Username,
			EmailAddress: dbUser.EmailAddress,
			Role:         dbUser.Role,
			CreatedAt:    dbUser.CreatedAt,
			UpdatedAt:    dbUser.UpdatedAt,
		},
	})
}

func (s *PortalApp) session(w http.ResponseWriter, r *http.Request) {
	ident, ok := RequestIdentity(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(ident.Id)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.User{
		Id:           user.Id,
		Username:     user.Username,
		EmailAddress: user.EmailAddress,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
}

func (s *PortalApp) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(req.Email)
	if err != nil {
		// don't reveal whether the address has an account
		if errors.Is(err, sql.ErrNoRows) {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	code, err := shortid.Generate()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.SetResetCode(database.SetResetCodeParams{
		UserId:    dbUser.Id,
		Code:      code,
		ExpiresAt: time.Now().UTC().Add(resetCodeTTL),
	}); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// delivery of the code (e.g. via email) happens out of band
	s.log.Printf("password reset code issued for account %d", dbUser.Id)
	w.WriteHeader(http.StatusAccepted)
}

func (s *PortalApp) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByResetCode(req.Code)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewBadRequestError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.UpdatePassword(database.UpdatePasswordParams{
		UserId:       dbUser.Id,
		PasswordHash: pwdHash,
	}); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}
