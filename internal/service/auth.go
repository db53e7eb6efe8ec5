package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	apperrors "github.com/mydrops/storefront-edge/internal/errors"
	"github.com/mydrops/storefront-edge/internal/observability/metrics"
	"github.com/mydrops/storefront-edge/internal/ports"
	"github.com/mydrops/storefront-edge/internal/validation"
)

// Input limits mirrored from the storefront's registration rules.
const (
	minPasswordLength = 6
	maxPasswordLength = 128
	minUsernameLength = 3
	maxUsernameLength = 50
	maxEmailLength    = 254
)

// registrableUserTypes are the account types the public register form may request.
var registrableUserTypes = []string{string(domainauth.UserTypeCommon), string(domainauth.UserTypeAdmin)}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Backend ports.AuthBackend
	// Limiter is optional; without it login attempts are not rate limited.
	Limiter ports.LoginLimiter
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// AuthService forwards credentials to the backend and verifies session tokens.
// It holds no session state of its own.
type AuthService struct {
	backend ports.AuthBackend
	limiter ports.LoginLimiter
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		backend: opts.Backend,
		limiter: opts.Limiter,
		logger:  logger.With("component", "auth_service"),
		metrics: opts.Metrics,
	}
}

// LoginInput is a login form submission.
type LoginInput struct {
	Email    string
	Password string
	// ClientKey identifies the caller for rate limiting (usually the client IP).
	ClientKey string
}

// RegisterInput is a register form submission.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	UserType string
}

// ValidateLogin checks a login submission without any network call.
func ValidateLogin(in LoginInput) error {
	errs := validation.New().
		Validate("email", in.Email, validation.Email("Email"), validation.Required("Email", maxEmailLength)).
		Validate("password", in.Password, validation.MinLength("Password", minPasswordLength)).
		Errors()
	if verr := apperrors.ValidationFields(errs); verr != nil {
		return verr
	}
	return nil
}

// ValidateRegistration checks a register submission without any network call.
func ValidateRegistration(in RegisterInput) error {
	fv := validation.New().
		Validate("email", in.Email, validation.Email("Email"), validation.Required("Email", maxEmailLength)).
		Validate("username", in.Username, validation.RequiredRange("Username", minUsernameLength, maxUsernameLength)).
		Validate("password", in.Password,
			validation.MinLength("Password", minPasswordLength),
			validation.Required("Password", maxPasswordLength))
	if in.UserType != "" {
		fv.Validate("user_type", in.UserType, validation.OneOf("User type", registrableUserTypes))
	}
	if verr := apperrors.ValidationFields(fv.Errors()); verr != nil {
		return verr
	}
	return nil
}

// Login validates and forwards user credentials. On success the caller must
// store the grant's token in the user session cookie and nowhere else.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (domainauth.Grant, error) {
	return s.login(ctx, domainauth.SessionUser, in)
}

// AdminLogin validates and forwards admin credentials. On success the caller
// must store the grant's token and permissions in the admin session cookies.
func (s *AuthService) AdminLogin(ctx context.Context, in LoginInput) (domainauth.Grant, error) {
	return s.login(ctx, domainauth.SessionAdmin, in)
}

func (s *AuthService) login(ctx context.Context, kind domainauth.SessionKind, in LoginInput) (domainauth.Grant, error) {
	if err := ValidateLogin(in); err != nil {
		s.metrics.Login(kind.String(), metrics.ResultDenied)
		return domainauth.Grant{}, err
	}

	rateKey := kind.String() + ":" + in.ClientKey
	if err := s.checkRate(ctx, kind, in.ClientKey, rateKey); err != nil {
		s.metrics.Login(kind.String(), metrics.ResultLimited)
		return domainauth.Grant{}, err
	}

	creds := domainauth.Credentials{Email: in.Email, Password: in.Password}.Normalize()

	var (
		grant domainauth.Grant
		err   error
	)
	if kind == domainauth.SessionAdmin {
		grant, err = s.backend.AdminLogin(ctx, creds)
	} else {
		grant, err = s.backend.Login(ctx, creds)
	}
	if err != nil {
		s.metrics.Login(kind.String(), metrics.ResultError)
		s.logger.InfoContext(ctx, "login failed",
			"session", kind.String(), "error_code", apperrors.GetCode(err), "error", err)
		return domainauth.Grant{}, fmt.Errorf("%s login: %w", kind, err)
	}

	s.resetRate(ctx, in.ClientKey, rateKey)
	s.metrics.Login(kind.String(), metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "login succeeded",
		"session", kind.String(), "user_id", grant.User.ID, "permissions", len(grant.Permissions))
	return grant, nil
}

// checkRate consumes one attempt for the client. Limiter failures fail open.
func (s *AuthService) checkRate(ctx context.Context, kind domainauth.SessionKind, clientKey, rateKey string) error {
	if s.limiter == nil || clientKey == "" {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, rateKey)
	if err != nil {
		s.logger.WarnContext(ctx, "login rate limiter unavailable", "error", err)
		return nil
	}
	if !ok {
		s.logger.WarnContext(ctx, "login rate limit exceeded", "session", kind.String(), "client", clientKey)
		return apperrors.RateLimited("Too many login attempts. Try again later.")
	}
	return nil
}

// resetRate forgets the client's attempts after a successful login.
func (s *AuthService) resetRate(ctx context.Context, clientKey, rateKey string) {
	if s.limiter == nil || clientKey == "" {
		return
	}
	if err := s.limiter.Reset(ctx, rateKey); err != nil {
		s.logger.WarnContext(ctx, "login rate limiter reset failed", "error", err)
	}
}

// Register validates and forwards a registration. It never creates a session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	if err := ValidateRegistration(in); err != nil {
		return err
	}

	reg := domainauth.Registration{
		Email:    in.Email,
		Username: in.Username,
		Password: in.Password,
		UserType: domainauth.UserType(in.UserType),
	}.Normalize()

	if err := s.backend.Register(ctx, reg); err != nil {
		s.logger.InfoContext(ctx, "registration failed", "error_code", apperrors.GetCode(err), "error", err)
		return fmt.Errorf("register: %w", err)
	}
	s.logger.InfoContext(ctx, "registration succeeded", "user_type", reg.UserType)
	return nil
}

// VerifyFailure classifies why a token could not be verified.
type VerifyFailure int

const (
	VerifyNoToken VerifyFailure = iota + 1
	VerifyNetworkFailure
	VerifyBackendRejected
	VerifyMalformedResponse
)

func (f VerifyFailure) String() string {
	switch f {
	case VerifyNoToken:
		return "no_token"
	case VerifyNetworkFailure:
		return "network_failure"
	case VerifyBackendRejected:
		return "backend_rejected"
	case VerifyMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// VerifyError is returned by the verifier. Every kind means "not authenticated"
// to the caller; the kind exists for logging and metrics.
type VerifyError struct {
	Kind VerifyFailure
	Err  error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return "verify: " + e.Kind.String()
	}
	return fmt.Sprintf("verify: %s: %v", e.Kind, e.Err)
}

func (e *VerifyError) Unwrap() error { return e.Err }

// Message is the user-facing reason.
func (e *VerifyError) Message() string {
	switch e.Kind {
	case VerifyNoToken:
		return "No session token"
	case VerifyNetworkFailure:
		return "Session could not be verified"
	default:
		return "Invalid token"
	}
}

// AsVerifyError extracts a *VerifyError from err.
func AsVerifyError(err error) (*VerifyError, bool) {
	var ve *VerifyError
	ok := errors.As(err, &ve)
	return ve, ok
}

// VerifyUser checks a user session token against the backend.
func (s *AuthService) VerifyUser(ctx context.Context, token string) (domainauth.Verification, error) {
	return s.Verify(ctx, domainauth.SessionUser, token)
}

// VerifyAdmin checks an admin session token against the backend.
func (s *AuthService) VerifyAdmin(ctx context.Context, token string) (domainauth.Verification, error) {
	return s.Verify(ctx, domainauth.SessionAdmin, token)
}

// Verify checks token for the given session kind. An empty token fails with
// VerifyNoToken without contacting the backend. Results are never cached.
func (s *AuthService) Verify(
	ctx context.Context,
	kind domainauth.SessionKind,
	token string,
) (domainauth.Verification, error) {
	if token == "" {
		s.metrics.Verification(kind.String(), VerifyNoToken.String())
		return domainauth.Verification{}, &VerifyError{Kind: VerifyNoToken}
	}

	v, err := s.backend.VerifyToken(ctx, kind, token)
	if err == nil && !v.Valid {
		err = apperrors.InvalidToken("Invalid token")
	}
	if err != nil {
		ve := &VerifyError{Kind: classifyVerifyFailure(err), Err: err}
		s.metrics.Verification(kind.String(), ve.Kind.String())
		s.logger.InfoContext(ctx, "token verification failed",
			"session", kind.String(), "kind", ve.Kind.String(), "error", err)
		return domainauth.Verification{}, ve
	}

	s.metrics.Verification(kind.String(), "valid")
	return v, nil
}

func classifyVerifyFailure(err error) VerifyFailure {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeUnauthenticated:
		return VerifyNoToken
	case apperrors.ErrCodeInvalidToken, apperrors.ErrCodeForbidden:
		return VerifyBackendRejected
	case apperrors.ErrCodeUpstream:
		// Only a client-error answer is a verdict on the token.
		if st := apperrors.GetStatus(err); st >= 400 && st < 500 {
			return VerifyBackendRejected
		}
		return VerifyNetworkFailure
	case apperrors.ErrCodeMalformedResponse:
		return VerifyMalformedResponse
	default:
		return VerifyNetworkFailure
	}
}
