package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// sessionTable maps a PrincipalKind to its dedicated session table,
// spec.md §4.2: five independent session stores, never sharing a row.
func sessionTable(kind domain.PrincipalKind) (string, error) {
	switch kind {
	case domain.PrincipalStaff:
		return "staff_sessions", nil
	case domain.PrincipalRep:
		return "rep_sessions", nil
	case domain.PrincipalTrade:
		return "trade_sessions", nil
	case domain.PrincipalCustomer:
		return "customer_sessions", nil
	default:
		return "", fmt.Errorf("store: no session table for kind %q", kind)
	}
}

// CreateSession mints a token and inserts a session row for kind.
func (s *Store) CreateSession(ctx context.Context, kind domain.PrincipalKind, principalID uuid.UUID, ttl time.Duration) (token string, err error) {
	table, err := sessionTable(kind)
	if err != nil {
		return "", err
	}
	token, err = generateToken(32)
	if err != nil {
		return "", err
	}
	_, err = s.q(ctx).Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, principal_id, token, expires_at, created_at, last_seen_at)
		             VALUES ($1,$2,$3,now()+$4::interval,now(),now())`, table),
		uuid.New(), principalID, token, fmt.Sprintf("%d seconds", int(ttl.Seconds())),
	)
	if err != nil {
		return "", fmt.Errorf("store: create %s session: %w", kind, err)
	}
	return token, nil
}

// GetSessionByToken resolves a presented token to its principal, or
// domain.ENOTFOUND if absent/expired.
func (s *Store) GetSessionByToken(ctx context.Context, kind domain.PrincipalKind, token string) (*domain.Session, error) {
	table, err := sessionTable(kind)
	if err != nil {
		return nil, err
	}
	row := s.q(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT id, principal_id, expires_at, created_at, last_seen_at FROM %s
		             WHERE token=$1 AND expires_at > now()`, table), token,
	)
	var sess domain.Session
	sess.Kind = kind
	if err := row.Scan(&sess.ID, &sess.PrincipalID, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastSeenAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetSessionByToken", "session", "")
		}
		return nil, fmt.Errorf("store: scan %s session: %w", kind, err)
	}
	return &sess, nil
}

// DeleteSession revokes one session (logout).
func (s *Store) DeleteSession(ctx context.Context, kind domain.PrincipalKind, token string) error {
	table, err := sessionTable(kind)
	if err != nil {
		return err
	}
	_, err = s.q(ctx).Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE token=$1`, table), token)
	if err != nil {
		return fmt.Errorf("store: delete %s session: %w", kind, err)
	}
	return nil
}

// SweepExpiredSessions deletes expired rows across all four session
// tables, part of the daily timer's cleanup pass.
func (s *Store) SweepExpiredSessions(ctx context.Context) error {
	for _, table := range []string{"staff_sessions", "rep_sessions", "trade_sessions", "customer_sessions"} {
		if _, err := s.q(ctx).Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= now()`, table)); err != nil {
			return fmt.Errorf("store: sweep %s: %w", table, err)
		}
	}
	return nil
}

// GetDeviceTrust looks up an unexpired (kind, fingerprint) trust grant.
func (s *Store) GetDeviceTrust(ctx context.Context, kind domain.PrincipalKind, principalID uuid.UUID, fingerprintHash string) (*domain.DeviceTrust, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, expires_at, created_at FROM device_trusts
		WHERE kind=$1 AND principal_id=$2 AND fingerprint_hash=$3 AND expires_at > now()`,
		kind, principalID, fingerprintHash,
	)
	var dt domain.DeviceTrust
	dt.Kind, dt.PrincipalID, dt.FingerprintHash = kind, principalID, fingerprintHash
	if err := row.Scan(&dt.ID, &dt.ExpiresAt, &dt.CreatedAt); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan device trust: %w", err)
	}
	return &dt, nil
}

// InsertDeviceTrust grants a (kind, fingerprint) pair a 2FA bypass for ttl.
func (s *Store) InsertDeviceTrust(ctx context.Context, kind domain.PrincipalKind, principalID uuid.UUID, fingerprintHash string, ttl time.Duration) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO device_trusts (id, kind, principal_id, fingerprint_hash, expires_at, created_at)
		VALUES ($1,$2,$3,$4,now()+$5::interval,now())`,
		uuid.New(), kind, principalID, fingerprintHash, fmt.Sprintf("%d seconds", int(ttl.Seconds())),
	)
	if err != nil {
		return fmt.Errorf("store: insert device trust: %w", err)
	}
	return nil
}

// RecordLoginAttempt logs one login attempt for the sliding-window
// rate limiter.
func (s *Store) RecordLoginAttempt(ctx context.Context, kind domain.PrincipalKind, email string, succeeded bool) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO login_attempts (id, kind, email, succeeded, created_at) VALUES ($1,$2,$3,$4,now())`,
		uuid.New(), kind, email, succeeded,
	)
	if err != nil {
		return fmt.Errorf("store: record login attempt: %w", err)
	}
	return nil
}

// CountRecentLoginAttempts counts attempts for (kind, email) within
// window, regardless of outcome, per spec.md §4.2's sliding-window rule.
func (s *Store) CountRecentLoginAttempts(ctx context.Context, kind domain.PrincipalKind, email string, window time.Duration) (int, error) {
	var n int
	err := s.q(ctx).QueryRow(ctx, `
		SELECT count(*) FROM login_attempts WHERE kind=$1 AND lower(email)=lower($2) AND created_at > now() - $3::interval`,
		kind, email, fmt.Sprintf("%d seconds", int(window.Seconds())),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count recent login attempts: %w", err)
	}
	return n, nil
}

// GetStaffByID loads a staff account by id, used to resolve a session's
// role for the requireRole gate.
func (s *Store) GetStaffByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at, updated_at FROM staff WHERE id=$1`, id)
	var st domain.Staff
	if err := row.Scan(&st.ID, &st.Email, &st.PasswordHash, &st.Role, &st.CreatedAt, &st.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetStaffByID", "staff", id.String())
		}
		return nil, fmt.Errorf("store: scan staff: %w", err)
	}
	return &st, nil
}

// GetSalesRepByID loads a sales rep by id, used to resolve a rep's
// commission rate during commission recomputation.
func (s *Store) GetSalesRepByID(ctx context.Context, id uuid.UUID) (*domain.SalesRep, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, password_hash, name, commission_rate, created_at, updated_at
		 FROM sales_reps WHERE id=$1`, id)
	var r domain.SalesRep
	if err := row.Scan(&r.ID, &r.Email, &r.PasswordHash, &r.Name, &r.CommissionRate, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetSalesRepByID", "sales_rep", id.String())
		}
		return nil, fmt.Errorf("store: scan sales rep: %w", err)
	}
	return &r, nil
}

// GetSalesRepByEmail looks up a sales-rep account for login.
func (s *Store) GetSalesRepByEmail(ctx context.Context, email string) (*domain.SalesRep, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, password_hash, name, commission_rate, created_at, updated_at
		 FROM sales_reps WHERE lower(email)=lower($1)`, email)
	var r domain.SalesRep
	if err := row.Scan(&r.ID, &r.Email, &r.PasswordHash, &r.Name, &r.CommissionRate, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetSalesRepByEmail", "sales_rep", email)
		}
		return nil, fmt.Errorf("store: scan sales rep: %w", err)
	}
	return &r, nil
}

// GetTradeCustomerByEmail looks up a trade-tier account for login.
func (s *Store) GetTradeCustomerByEmail(ctx context.Context, email string) (*domain.TradeCustomer, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, password_hash, company_name, trade_tier, created_at, updated_at
		 FROM trade_customers WHERE lower(email)=lower($1)`, email)
	var t domain.TradeCustomer
	if err := row.Scan(&t.ID, &t.Email, &t.PasswordHash, &t.CompanyName, &t.TradeTier, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetTradeCustomerByEmail", "trade_customer", email)
		}
		return nil, fmt.Errorf("store: scan trade customer: %w", err)
	}
	return &t, nil
}

// GetTradeCustomerForUpdate locks a trade account row for a spend/tier
// bump, per the glossary's trade-tier auto-promotion rule.
func (s *Store) GetTradeCustomerForUpdate(ctx context.Context, id uuid.UUID) (*domain.TradeCustomer, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, email, password_hash, company_name, trade_tier, cumulative_spend, created_at, updated_at
		FROM trade_customers WHERE id=$1 FOR UPDATE`, id)
	var t domain.TradeCustomer
	var spend decimal.Decimal
	if err := row.Scan(&t.ID, &t.Email, &t.PasswordHash, &t.CompanyName, &t.TradeTier, &spend, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetTradeCustomerForUpdate", "trade_customer", id.String())
		}
		return nil, fmt.Errorf("store: scan trade customer: %w", err)
	}
	t.CumulativeSpend = money.FromDecimal(spend)
	return &t, nil
}

// UpdateTradeCustomerSpendAndTier persists a post-order cumulative-spend
// bump and, if applicable, a tier promotion.
func (s *Store) UpdateTradeCustomerSpendAndTier(ctx context.Context, id uuid.UUID, cumulativeSpend money.Amount, tier string) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE trade_customers SET cumulative_spend=$2, trade_tier=$3, updated_at=now() WHERE id=$1`,
		id, cumulativeSpend.Decimal(), tier,
	)
	if err != nil {
		return fmt.Errorf("store: update trade customer spend and tier: %w", err)
	}
	return nil
}

// ListTradeTierSchedule loads the auto-promotion ladder, ordered
// ascending by spend_threshold.
func (s *Store) ListTradeTierSchedule(ctx context.Context) ([]domain.TradeTierSchedule, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT name, discount_percent, spend_threshold FROM trade_tiers ORDER BY spend_threshold ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list trade tier schedule: %w", err)
	}
	defer rows.Close()

	var tiers []domain.TradeTierSchedule
	for rows.Next() {
		var t domain.TradeTierSchedule
		var threshold decimal.Decimal
		if err := rows.Scan(&t.Name, &t.DiscountPercent, &threshold); err != nil {
			return nil, fmt.Errorf("store: scan trade tier: %w", err)
		}
		t.SpendThreshold = money.FromDecimal(threshold)
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// AssignRoundRobinRep picks the sales rep with the fewest orders
// currently assigned, ties broken by id, for spec.md §4.5's
// assign-trade-rep-if-unassigned step. Returns domain.ENOTFOUND if no
// reps exist.
func (s *Store) AssignRoundRobinRep(ctx context.Context) (uuid.UUID, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT r.id FROM sales_reps r
		LEFT JOIN orders o ON o.sales_rep_id = r.id
		GROUP BY r.id
		ORDER BY count(o.id) ASC, r.id ASC
		LIMIT 1`)
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		if IsNoRows(err) {
			return uuid.Nil, domain.NotFound("store.AssignRoundRobinRep", "sales_rep", "")
		}
		return uuid.Nil, fmt.Errorf("store: assign round robin rep: %w", err)
	}
	return id, nil
}

// GetCustomerByEmail looks up a retail storefront account for login.
func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, password_hash, name, created_at, updated_at FROM customers WHERE lower(email)=lower($1)`, email)
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetCustomerByEmail", "customer", email)
		}
		return nil, fmt.Errorf("store: scan customer: %w", err)
	}
	return &c, nil
}

// CreateCustomer inserts a new retail customer account, used by
// checkout's optional "save my details" step. Callers must pre-check
// GetCustomerByEmail themselves; the unique index on lower(email) is
// the backstop against a lost race.
func (s *Store) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := s.q(ctx).QueryRow(ctx, `
		INSERT INTO customers (id, email, password_hash, name, created_at, updated_at)
		VALUES ($1,$2,$3,$4,now(),now())
		RETURNING created_at, updated_at`,
		c.ID, c.Email, c.PasswordHash, c.Name,
	)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("store: create customer: %w", err)
	}
	return nil
}

// InsertTwoFactorCode stores a hashed 2FA code with a TTL, invalidating
// any prior unconsumed codes for the same principal first so only one
// code is ever live.
func (s *Store) InsertTwoFactorCode(ctx context.Context, kind domain.PrincipalKind, principalID uuid.UUID, codeHash string, ttl time.Duration) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.q(ctx).Exec(ctx, `
			UPDATE two_factor_codes SET consumed_at=now()
			WHERE kind=$1 AND principal_id=$2 AND consumed_at IS NULL`, kind, principalID); err != nil {
			return fmt.Errorf("store: invalidate prior 2fa codes: %w", err)
		}
		_, err := s.q(ctx).Exec(ctx, `
			INSERT INTO two_factor_codes (id, kind, principal_id, code_hash, expires_at, created_at)
			VALUES ($1,$2,$3,$4,now()+$5::interval,now())`,
			uuid.New(), kind, principalID, codeHash, fmt.Sprintf("%d seconds", int(ttl.Seconds())),
		)
		if err != nil {
			return fmt.Errorf("store: insert 2fa code: %w", err)
		}
		return nil
	})
}

// ConsumeTwoFactorCode locks and returns the most recent code for a
// principal, consumed or not, for the caller to check usability,
// hash-compare and then mark consumed.
func (s *Store) ConsumeTwoFactorCode(ctx context.Context, kind domain.PrincipalKind, principalID uuid.UUID) (*domain.TwoFactorCode, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, code_hash, expires_at, consumed_at, created_at FROM two_factor_codes
		WHERE kind=$1 AND principal_id=$2 ORDER BY created_at DESC LIMIT 1 FOR UPDATE`,
		kind, principalID,
	)
	var c domain.TwoFactorCode
	c.Kind, c.PrincipalID = kind, principalID
	if err := row.Scan(&c.ID, &c.CodeHash, &c.ExpiresAt, &c.ConsumedAt, &c.CreatedAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.ConsumeTwoFactorCode", "two_factor_code", principalID.String())
		}
		return nil, fmt.Errorf("store: scan 2fa code: %w", err)
	}
	return &c, nil
}

// MarkTwoFactorCodeConsumed stamps a code as used so it cannot be
// replayed.
func (s *Store) MarkTwoFactorCodeConsumed(ctx context.Context, id uuid.UUID) error {
	_, err := s.q(ctx).Exec(ctx, `UPDATE two_factor_codes SET consumed_at=now() WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("store: mark 2fa code consumed: %w", err)
	}
	return nil
}

// GetStaffByEmail looks up a staff account for login.
func (s *Store) GetStaffByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at, updated_at FROM staff WHERE lower(email)=lower($1)`, email)
	var st domain.Staff
	if err := row.Scan(&st.ID, &st.Email, &st.PasswordHash, &st.Role, &st.CreatedAt, &st.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetStaffByEmail", "staff", email)
		}
		return nil, fmt.Errorf("store: scan staff: %w", err)
	}
	return &st, nil
}
