// Package service implements credential issuance, refresh token rotation,
// reuse detection, and session termination over the token store.
package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"votegate/internal/audit"
	"votegate/internal/security"
	tokendomain "votegate/internal/token/domain"
	userdomain "votegate/internal/user/domain"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status
// codes. The token errors are deliberately collapsed to one generic response
// at the boundary; the distinction exists for logging and audit only.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidToken           = errors.New("malformed or unverifiable refresh token")
	ErrTokenExpired           = errors.New("refresh token expired")
	ErrUnknownToken           = errors.New("unknown refresh token")
	ErrTokenRevoked           = errors.New("refresh token revoked")
	ErrTokenReuse             = errors.New("refresh token reuse detected; lineage revoked")
)

// AuthResult holds the outcome of Register (UserID only), Login, or Refresh.
type AuthResult struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	RefreshExpires  time.Time
	UserID          string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// TokenRepo is the token store contract the auth service mutates through.
// Rotate and RevokeLineage are the only status write paths.
type TokenRepo interface {
	GetByID(ctx context.Context, id string) (*tokendomain.RefreshToken, error)
	Create(ctx context.Context, t *tokendomain.RefreshToken) error
	Rotate(ctx context.Context, id string, successor *tokendomain.RefreshToken) (bool, error)
	RevokeLineage(ctx context.Context, lineageID string) error
	ListLiveByOwner(ctx context.Context, ownerID string) ([]*tokendomain.Lineage, error)
}

// AuthService implements password register/login, refresh rotation with reuse
// detection, and logout.
type AuthService struct {
	userRepo  UserRepo
	tokenRepo TokenRepo
	hasher    *security.Hasher
	tokens    *security.TokenProvider
	auditLog  audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLog may be nil; auditing is then disabled.
func NewAuthService(
	userRepo UserRepo,
	tokenRepo TokenRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLog audit.AuditLogger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		tokens:    tokens,
		auditLog:  auditLog,
	}
}

// Register creates a user with the given email and password.
// Returns AuthResult with UserID only; the caller must Login to get tokens.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         userdomain.RoleVoter,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &AuthResult{UserID: user.ID}, nil
}

// Login authenticates with email/password, opens a new session lineage, and
// returns a token pair. Failures are reported uniformly as
// ErrInvalidCredentials with no hint which part was wrong. Existing lineages
// of the same user are not touched; concurrent sessions are allowed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.audit(ctx, user.ID, audit.ActionLoginFailure, "user:"+user.ID, "")
		return nil, ErrInvalidCredentials
	}

	lineageID := uuid.New().String()
	tokenID := uuid.New().String()
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(tokenID, lineageID, user.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	root := &tokendomain.RefreshToken{
		ID:        tokenID,
		LineageID: lineageID,
		ParentID:  nil,
		OwnerID:   user.ID,
		TokenHash: security.HashRefreshToken(refreshToken),
		Status:    tokendomain.StatusActive,
		IssuedAt:  now,
		ExpiresAt: refreshExp,
	}
	if err := s.tokenRepo.Create(ctx, root); err != nil {
		return nil, err
	}
	accessToken, accessExp, err := s.tokens.IssueAccess(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	s.audit(ctx, user.ID, audit.ActionLoginSuccess, "lineage:"+lineageID, "")
	return &AuthResult{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExp,
		RefreshExpires:  refreshExp,
		UserID:          user.ID,
	}, nil
}

// Refresh exchanges an active refresh token for a new pair, advancing the
// lineage. Presenting a token that was already rotated or that loses the
// rotation race is treated as replay: the whole lineage is revoked and
// ErrTokenReuse is returned. The revocation side effect completes before the
// error is returned.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*AuthResult, error) {
	record, err := s.resolve(ctx, presented)
	if err != nil {
		return nil, err
	}

	switch record.Status {
	case tokendomain.StatusRevoked:
		return nil, ErrTokenRevoked
	case tokendomain.StatusRotated:
		return nil, s.detectReuse(ctx, record)
	}

	successorID := uuid.New().String()
	newRefresh, refreshExp, err := s.tokens.IssueRefresh(successorID, record.LineageID, record.OwnerID)
	if err != nil {
		return nil, err
	}
	parentID := record.ID
	successor := &tokendomain.RefreshToken{
		ID:        successorID,
		LineageID: record.LineageID,
		ParentID:  &parentID,
		OwnerID:   record.OwnerID,
		TokenHash: security.HashRefreshToken(newRefresh),
		Status:    tokendomain.StatusActive,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: refreshExp,
	}
	ok, err := s.tokenRepo.Rotate(ctx, record.ID, successor)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race: a winner already consumed this token. By definition
		// we are observing it after rotation, so this is the reuse path,
		// never a retry.
		return nil, s.detectReuse(ctx, record)
	}

	user, err := s.userRepo.GetByID(ctx, record.OwnerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// The rotation already committed, so the successor exists but will
		// never reach a caller. Close the lineage instead of leaving it
		// wedged until expiry.
		if err := s.tokenRepo.RevokeLineage(ctx, record.LineageID); err != nil {
			log.Printf("auth: revoking lineage %s for missing owner: %v", record.LineageID, err)
		} else {
			s.audit(ctx, record.OwnerID, audit.ActionLineageRevoked, "lineage:"+record.LineageID, "owner no longer exists")
		}
		return nil, ErrUnknownToken
	}
	accessToken, accessExp, err := s.tokens.IssueAccess(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	s.audit(ctx, record.OwnerID, audit.ActionTokenRefreshed, "lineage:"+record.LineageID, "")
	return &AuthResult{
		AccessToken:     accessToken,
		RefreshToken:    newRefresh,
		AccessExpiresAt: accessExp,
		RefreshExpires:  refreshExp,
		UserID:          record.OwnerID,
	}, nil
}

// Logout revokes the session lineage identified by the presented refresh
// token. A token whose lineage is already fully revoked succeeds trivially;
// an unknown token fails with ErrUnknownToken.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	record, err := s.resolve(ctx, presented)
	if err != nil {
		return err
	}
	if record.Status == tokendomain.StatusRevoked {
		return nil // idempotent logout
	}
	if err := s.tokenRepo.RevokeLineage(ctx, record.LineageID); err != nil {
		return err
	}
	s.audit(ctx, record.OwnerID, audit.ActionLogout, "lineage:"+record.LineageID, "")
	return nil
}

// Sessions returns the caller's live session lineages.
func (s *AuthService) Sessions(ctx context.Context, ownerID string) ([]*tokendomain.Lineage, error) {
	return s.tokenRepo.ListLiveByOwner(ctx, ownerID)
}

// resolve performs the shared validation and lookup steps of Refresh and
// Logout: cryptographic validation of the presented token, store lookup, and
// hash binding of the presented credential to the stored record.
func (s *AuthService) resolve(ctx context.Context, presented string) (*tokendomain.RefreshToken, error) {
	if presented == "" {
		return nil, ErrInvalidToken
	}
	identity, err := s.tokens.ValidateRefresh(presented)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	record, err := s.tokenRepo.GetByID(ctx, identity.TokenID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrUnknownToken // forged jti or purged lineage
	}
	if !security.RefreshTokenHashEqual(presented, record.TokenHash) {
		return nil, ErrInvalidToken
	}
	return record, nil
}

// detectReuse handles replay of an already-consumed token: the entire lineage
// is revoked, including any successor a concurrent winner just created, and
// the event is audited as probable theft. Revocation must complete before the
// caller's error is returned.
func (s *AuthService) detectReuse(ctx context.Context, record *tokendomain.RefreshToken) error {
	if err := s.tokenRepo.RevokeLineage(ctx, record.LineageID); err != nil {
		return err
	}
	s.audit(ctx, record.OwnerID, audit.ActionTokenReuseDetected, "lineage:"+record.LineageID, "token "+record.ID+" replayed after rotation")
	s.audit(ctx, record.OwnerID, audit.ActionLineageRevoked, "lineage:"+record.LineageID, "")
	return ErrTokenReuse
}

func (s *AuthService) audit(ctx context.Context, userID, action, resource, metadata string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogEvent(ctx, userID, action, resource, metadata)
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	return nil
}
