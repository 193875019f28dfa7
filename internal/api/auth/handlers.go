package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/api/authz"
	"github.com/courtsidehq/courtside/internal/cognito"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/ratelimit"
)

// defaultPhoneRegion is used when a phone number has no country prefix.
const defaultPhoneRegion = "TH"

var (
	queries       *db.Queries
	secretKey     string
	secureCookies bool
	cognitoClient *cognito.Client
	loginLimiter  *ratelimit.Limiter
	otpLimiter    *ratelimit.Limiter
)

// InitHandlers wires the package's dependencies. The cognito client may be
// nil, which disables the email OTP endpoints.
func InitHandlers(q *db.Queries, cfg *config.Config, client *cognito.Client) {
	queries = q
	secretKey = cfg.App.SecretKey
	secureCookies = cfg.App.Environment != "development"
	cognitoClient = client
	loginLimiter = ratelimit.New(nil)
	otpLimiter = ratelimit.New(nil)
}

type userResponse struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

func toUserResponse(u db.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, IsAdmin: u.IsAdmin}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req registerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}

	email, err := apiutil.RequiredStringField(req.Email, "email")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	email = strings.ToLower(email)
	if !strings.Contains(email, "@") {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "email", Reason: "must be a valid address"})
		return
	}
	name, err := apiutil.RequiredStringField(req.Name, "name")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if len(req.Password) < 8 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "password", Reason: "must be at least 8 characters"})
		return
	}

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to hash password", err))
		return
	}

	user, err := queries.CreateUser(r.Context(), db.CreateUserParams{
		Email:        email,
		Name:         name,
		Phone:        phone,
		PasswordHash: sql.NullString{String: hash, Valid: true},
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusConflict, Message: "email already registered"})
			return
		}
		apiutil.WriteError(w, r, apiutil.Internal("failed to create user", err))
		return
	}

	if cognitoClient != nil {
		if err := cognitoClient.CreateUser(r.Context(), email); err != nil && !errors.Is(err, cognito.ErrUserExists) {
			// Local registration stands; OTP login just stays unavailable
			// for this user until the pool catches up.
			logger.Warn().Err(err).Str("email", email).Msg("Failed to mirror user to cognito")
		}
	}

	if err := startLogin(w, r, user); err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to create session", err))
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("User registered")
	_ = apiutil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		apiutil.WriteError(w, r, apiutil.BadRequest("email and password are required"))
		return
	}

	if res := loginLimiter.Check(email); !res.Allowed {
		logger.Warn().Str("reason", res.Reason).Msg("Login rate limited")
		w.Header().Set("Retry-After", res.RetryAfter.Round(1e9).String())
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusTooManyRequests, Message: "too many attempts"})
		return
	}
	loginLimiter.Record(email)

	user, err := queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			loginLimiter.RecordFailure(email)
			writeInvalidCredentials(w, r)
			return
		}
		apiutil.WriteError(w, r, apiutil.Internal("failed to load user", err))
		return
	}

	if !user.PasswordHash.Valid || !VerifyPassword(user.PasswordHash.String, req.Password) {
		loginLimiter.RecordFailure(email)
		writeInvalidCredentials(w, r)
		return
	}

	loginLimiter.Reset(email)
	if err := startLogin(w, r, user); err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to create session", err))
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("User logged in")
	_ = apiutil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func HandleLogout(w http.ResponseWriter, r *http.Request) {
	ClearSession(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: "authentication required"})
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, userResponse{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	})
}

type sendCodeRequest struct {
	Email string `json:"email"`
}

// HandleSendCode starts the email OTP flow via Cognito.
func HandleSendCode(w http.ResponseWriter, r *http.Request) {
	if cognitoClient == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotImplemented, Message: "otp login is not configured"})
		return
	}

	var req sendCodeRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "email", Reason: "is required"})
		return
	}

	if res := otpLimiter.Check(email); !res.Allowed {
		w.Header().Set("Retry-After", res.RetryAfter.Round(1e9).String())
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusTooManyRequests, Message: "too many attempts"})
		return
	}
	otpLimiter.Record(email)

	session, err := cognitoClient.InitiateEmailOTP(r.Context(), email)
	if err != nil {
		if errors.Is(err, cognito.ErrThrottled) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusTooManyRequests, Message: "too many attempts"})
			return
		}
		// Do not reveal whether the address exists.
		log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to initiate OTP")
	}

	_ = apiutil.WriteJSON(w, http.StatusAccepted, map[string]string{"session": session})
}

type verifyCodeRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Session string `json:"session"`
}

// HandleVerifyCode completes the email OTP flow and opens a session for the
// matching local user.
func HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if cognitoClient == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotImplemented, Message: "otp login is not configured"})
		return
	}

	var req verifyCodeRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Code == "" || req.Session == "" {
		apiutil.WriteError(w, r, apiutil.BadRequest("email, code, and session are required"))
		return
	}

	if err := cognitoClient.VerifyEmailOTP(r.Context(), req.Session, email, req.Code); err != nil {
		otpLimiter.RecordFailure(email)
		switch {
		case errors.Is(err, cognito.ErrCodeMismatch), errors.Is(err, cognito.ErrExpiredCode), errors.Is(err, cognito.ErrNotAuthorized):
			writeInvalidCredentials(w, r)
		case errors.Is(err, cognito.ErrThrottled):
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusTooManyRequests, Message: "too many attempts"})
		default:
			apiutil.WriteError(w, r, apiutil.Internal("failed to verify code", err))
		}
		return
	}

	user, err := queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeInvalidCredentials(w, r)
			return
		}
		apiutil.WriteError(w, r, apiutil.Internal("failed to load user", err))
		return
	}

	otpLimiter.Reset(email)
	if err := startLogin(w, r, user); err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to create session", err))
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("User logged in via OTP")
	_ = apiutil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func startLogin(w http.ResponseWriter, r *http.Request, user db.User) error {
	if err := CreateSession(w, user.ID); err != nil {
		return err
	}
	return SetAuthCookie(w, r, &authz.AuthUser{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	})
}

func writeInvalidCredentials(w http.ResponseWriter, r *http.Request) {
	apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: "invalid credentials"})
}

// normalizePhone returns the E.164 form of a phone number, or a null string
// when none was supplied.
func normalizePhone(raw string) (sql.NullString, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullString{}, nil
	}

	parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return sql.NullString{}, apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"}
	}
	return sql.NullString{
		String: phonenumbers.Format(parsed, phonenumbers.E164),
		Valid:  true,
	}, nil
}
