package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/config"
	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/store"
)

// Service wires session issuance, password verification, device trust,
// and the staff 2FA flow together over the store. It is the C2
// component's only public entry point — callers never touch
// store.Store's session/2FA methods directly.
type Service struct {
	store *store.Store
	cfg   config.AuthConfig

	// EmailConfigured gates the dev-mode 2FA bypass spec.md §4.2
	// allows when no mail transport is set up.
	EmailConfigured bool
}

func New(st *store.Store, cfg config.AuthConfig, emailConfigured bool) *Service {
	return &Service{store: st, cfg: cfg, EmailConfigured: emailConfigured}
}

// LoginResult is returned from a staff login attempt. Exactly one of
// Token or RequiresTwoFactor is meaningful.
type LoginResult struct {
	Token             string
	RequiresTwoFactor bool
	StaffID           uuid.UUID
}

func hashFingerprint(fp string) string {
	sum := sha256.Sum256([]byte(fp))
	return hex.EncodeToString(sum[:])
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func generateSixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("auth: generate 2fa code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *Service) checkRateLimit(ctx context.Context, kind domain.PrincipalKind, email string) error {
	n, err := s.store.CountRecentLoginAttempts(ctx, kind, email, s.cfg.LoginAttemptWindow)
	if err != nil {
		return domain.Internal(err, "auth.checkRateLimit", "failed to check login rate limit")
	}
	if n >= s.cfg.MaxLoginAttempts {
		return domain.RateLimited("auth.checkRateLimit", "too many login attempts, try again later")
	}
	return nil
}

// LoginStaff authenticates a staff account by email/password, applying
// the per-email sliding-window rate limit, then either issues a session
// directly (device trusted, or 2FA bypassed in dev mode with no email
// transport configured) or mints a 2FA code and asks the caller to
// complete verification via VerifyStaffTwoFactor.
func (s *Service) LoginStaff(ctx context.Context, email, password, fingerprint string, rememberMe bool) (*LoginResult, error) {
	const op = "auth.LoginStaff"

	if err := s.checkRateLimit(ctx, domain.PrincipalStaff, email); err != nil {
		return nil, err
	}

	staff, err := s.store.GetStaffByEmail(ctx, email)
	if err != nil {
		_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalStaff, email, false)
		return nil, domain.Unauthorized(op, "invalid email or password")
	}

	if err := VerifyPassword(password, staff.PasswordHash); err != nil {
		_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalStaff, email, false)
		return nil, domain.Unauthorized(op, "invalid email or password")
	}

	if err := s.store.RecordLoginAttempt(ctx, domain.PrincipalStaff, email, true); err != nil {
		return nil, domain.Internal(err, op, "failed to record login attempt")
	}

	fpHash := hashFingerprint(fingerprint)
	trust, err := s.store.GetDeviceTrust(ctx, domain.PrincipalStaff, staff.ID, fpHash)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to check device trust")
	}

	if trust != nil || (s.EmailConfigured == false) {
		token, err := s.issueSession(ctx, domain.PrincipalStaff, staff.ID, rememberMe, trust != nil)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Token: token, StaffID: staff.ID}, nil
	}

	code, err := generateSixDigitCode()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to mint 2fa code")
	}
	if err := s.store.InsertTwoFactorCode(ctx, domain.PrincipalStaff, staff.ID, hashCode(code), s.cfg.TwoFactorCodeTTL); err != nil {
		return nil, domain.Internal(err, op, "failed to store 2fa code")
	}
	// TODO: dispatch `code` via the email collaborator once internal/email lands.

	return &LoginResult{RequiresTwoFactor: true, StaffID: staff.ID}, nil
}

// VerifyStaffTwoFactor redeems a previously minted 2FA code and issues a
// session. trustDevice additionally grants a 30-day device-trust record
// so future logins from the same fingerprint skip 2FA entirely.
func (s *Service) VerifyStaffTwoFactor(ctx context.Context, staffID uuid.UUID, code, fingerprint string, trustDevice, rememberMe bool) (string, error) {
	const op = "auth.VerifyStaffTwoFactor"

	var token string
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		rec, err := s.store.ConsumeTwoFactorCode(ctx, domain.PrincipalStaff, staffID)
		if err != nil {
			return domain.Unauthorized(op, "no pending 2fa code")
		}
		if !rec.IsUsable(time.Now()) {
			return domain.Unauthorized(op, "2fa code expired or already used")
		}
		if hashCode(code) != rec.CodeHash {
			return domain.Unauthorized(op, "incorrect 2fa code")
		}
		if err := s.store.MarkTwoFactorCodeConsumed(ctx, rec.ID); err != nil {
			return domain.Internal(err, op, "failed to consume 2fa code")
		}

		if trustDevice {
			if err := s.store.InsertDeviceTrust(ctx, domain.PrincipalStaff, staffID, hashFingerprint(fingerprint), s.cfg.DeviceTrustTTL); err != nil {
				return domain.Internal(err, op, "failed to grant device trust")
			}
		}

		tok, err := s.issueSession(ctx, domain.PrincipalStaff, staffID, rememberMe, trustDevice)
		if err != nil {
			return err
		}
		token = tok
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) issueSession(ctx context.Context, kind domain.PrincipalKind, principalID uuid.UUID, rememberMe, deviceTrusted bool) (string, error) {
	ttl := s.cfg.SessionTTL
	if rememberMe {
		ttl = s.cfg.RememberMeTTL
	}
	if deviceTrusted && ttl < s.cfg.DeviceTrustTTL {
		ttl = s.cfg.DeviceTrustTTL
	}
	token, err := s.store.CreateSession(ctx, kind, principalID, ttl)
	if err != nil {
		return "", domain.Internal(err, "auth.issueSession", "failed to create session")
	}
	return token, nil
}

// LoginRep authenticates a sales rep. Reps and trade/customer accounts
// have no 2FA step per spec.md §4.2 (only staff login does).
func (s *Service) LoginRep(ctx context.Context, email, password string) (string, error) {
	if err := s.checkRateLimit(ctx, domain.PrincipalRep, email); err != nil {
		return "", err
	}
	rep, err := s.store.GetSalesRepByEmail(ctx, email)
	if err != nil {
		_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalRep, email, false)
		return "", domain.Unauthorized("auth.LoginRep", "invalid email or password")
	}
	if err := VerifyPassword(password, rep.PasswordHash); err != nil {
		_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalRep, email, false)
		return "", domain.Unauthorized("auth.LoginRep", "invalid email or password")
	}
	_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalRep, email, true)
	return s.issueSession(ctx, domain.PrincipalRep, rep.ID, false, false)
}

// LoginTrade authenticates a trade-tier customer account.
func (s *Service) LoginTrade(ctx context.Context, email, password string) (string, error) {
	if err := s.checkRateLimit(ctx, domain.PrincipalTrade, email); err != nil {
		return "", err
	}
	tc, err := s.store.GetTradeCustomerByEmail(ctx, email)
	if err != nil {
		_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalTrade, email, false)
		return "", domain.Unauthorized("auth.LoginTrade", "invalid email or password")
	}
	if err := VerifyPassword(password, tc.PasswordHash); err != nil {
		_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalTrade, email, false)
		return "", domain.Unauthorized("auth.LoginTrade", "invalid email or password")
	}
	_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalTrade, email, true)
	return s.issueSession(ctx, domain.PrincipalTrade, tc.ID, false, false)
}

// LoginCustomer authenticates a retail storefront account.
func (s *Service) LoginCustomer(ctx context.Context, email, password string) (string, error) {
	if err := s.checkRateLimit(ctx, domain.PrincipalCustomer, email); err != nil {
		return "", err
	}
	c, err := s.store.GetCustomerByEmail(ctx, email)
	if err != nil {
		_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalCustomer, email, false)
		return "", domain.Unauthorized("auth.LoginCustomer", "invalid email or password")
	}
	if err := VerifyPassword(password, c.PasswordHash); err != nil {
		_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalCustomer, email, false)
		return "", domain.Unauthorized("auth.LoginCustomer", "invalid email or password")
	}
	_ = s.store.RecordLoginAttempt(ctx, domain.PrincipalCustomer, email, true)
	return s.issueSession(ctx, domain.PrincipalCustomer, c.ID, false, false)
}

// Logout revokes a single session token.
func (s *Service) Logout(ctx context.Context, kind domain.PrincipalKind, token string) error {
	if err := s.store.DeleteSession(ctx, kind, token); err != nil {
		return domain.Internal(err, "auth.Logout", "failed to revoke session")
	}
	return nil
}
