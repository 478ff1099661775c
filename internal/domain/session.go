package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/money"
)

// PrincipalKind names one of the five independent session stores
// spec.md §4.2 requires: staff, rep, trade, customer, and anonymous
// cart sessions each carry their own token and TTL.
type PrincipalKind string

const (
	PrincipalStaff     PrincipalKind = "staff"
	PrincipalRep       PrincipalKind = "rep"
	PrincipalTrade     PrincipalKind = "trade"
	PrincipalCustomer  PrincipalKind = "customer"
	PrincipalAnonymous PrincipalKind = "anonymous"
)

// Session is the durable record behind a session token. Distinct
// PrincipalKind values never share a table row or a token header, so a
// trade-account login cannot be replayed as a staff session.
type Session struct {
	ID            uuid.UUID
	Kind          PrincipalKind
	PrincipalID   uuid.UUID
	DeviceTrusted bool

	CreatedAt time.Time
	ExpiresAt time.Time
	LastSeenAt time.Time
}

// IsExpired reports whether the session has passed its TTL.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// StaffRole is the role gate used by staff sessions (admin-prefixed
// routes), spec.md §6.
type StaffRole string

const (
	RoleAdmin StaffRole = "admin"
	RoleOps   StaffRole = "ops"
)

// Staff is an internal operator account.
type Staff struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         StaffRole

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SalesRep is a commissioned sales representative account.
type SalesRep struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	Name           string
	CommissionRate string // decimal string, parsed at the pricing boundary

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TradeCustomer is a trade-tier account with its own discount schedule.
type TradeCustomer struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CompanyName  string
	TradeTier    string

	CumulativeSpend money.Amount

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TradeTierSchedule is one named discount bracket in the auto-promotion
// ladder, spec.md's glossary entry for "Trade tier": a spend_threshold
// that auto-promotes (never demotes) a trade customer.
type TradeTierSchedule struct {
	Name            string
	DiscountPercent decimal.Decimal
	SpendThreshold  money.Amount
}

// EvaluateTierPromotion walks tiers (ascending by spend_threshold) and
// returns the highest tier whose threshold cumulativeSpend now meets or
// exceeds, never dropping below current — promotion is one-directional.
func EvaluateTierPromotion(current string, cumulativeSpend money.Amount, tiers []TradeTierSchedule) string {
	best := current
	bestIdx := indexOfTier(tiers, current)
	for i, t := range tiers {
		if cumulativeSpend.LessThan(t.SpendThreshold) {
			continue
		}
		if i > bestIdx {
			best = t.Name
			bestIdx = i
		}
	}
	return best
}

func indexOfTier(tiers []TradeTierSchedule, name string) int {
	for i, t := range tiers {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// Customer is a retail storefront account. Guest checkout without saving
// details never creates one; an account comes from signup or from
// checkout's optional save-my-details step (orders.CreateCustomerAccount).
type Customer struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeviceTrust records a remembered-device 2FA bypass, scoped to one
// principal and one device fingerprint, per spec.md §4.2.
type DeviceTrust struct {
	ID            uuid.UUID
	Kind          PrincipalKind
	PrincipalID   uuid.UUID
	FingerprintHash string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// LoginAttempt backs the sliding-window login rate limiter.
type LoginAttempt struct {
	ID        uuid.UUID
	Kind      PrincipalKind
	Email     string
	Succeeded bool
	CreatedAt time.Time
}

// TwoFactorCode is a single-use, time-limited login code, minted when a
// staff login has no unexpired device trust, per spec.md §4.2.
type TwoFactorCode struct {
	ID          uuid.UUID
	Kind        PrincipalKind
	PrincipalID uuid.UUID
	CodeHash    string
	ExpiresAt   time.Time
	ConsumedAt  *time.Time
	CreatedAt   time.Time
}

// IsUsable reports whether the code can still be redeemed.
func (c *TwoFactorCode) IsUsable(now time.Time) bool {
	return c.ConsumedAt == nil && now.Before(c.ExpiresAt)
}
