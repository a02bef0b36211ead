package core

import (
	"context"
	"fmt"

	"github.com/edvin/saaslens/internal/model"
	"github.com/edvin/saaslens/internal/platform"
)

// TokenSealer encrypts connection tokens before they reach the database.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type ConnectionService struct {
	db     DB
	sealer TokenSealer
}

func NewConnectionService(db DB, sealer TokenSealer) *ConnectionService {
	return &ConnectionService{db: db, sealer: sealer}
}

// Upsert stores the credentials for an account, replacing the tokens of an
// existing connection for the same account.
func (s *ConnectionService) Upsert(ctx context.Context, conn *model.Connection) error {
	access, err := s.sealer.Seal(conn.AccessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	refresh, err := s.sealer.Seal(conn.RefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}
	if conn.ID == "" {
		conn.ID = platform.NewID()
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO stripe_connections (id, stripe_account_id, access_token, refresh_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (stripe_account_id) DO UPDATE
		 SET access_token = EXCLUDED.access_token,
		     refresh_token = EXCLUDED.refresh_token,
		     updated_at = now()
		 RETURNING id, created_at, updated_at`,
		conn.ID, conn.StripeAccountID, access, refresh,
	).Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert connection %s: %w", conn.StripeAccountID, err)
	}
	return nil
}

// GetByAccountID returns the connection with decrypted tokens.
func (s *ConnectionService) GetByAccountID(ctx context.Context, accountID string) (*model.Connection, error) {
	var c model.Connection
	var access, refresh string
	err := s.db.QueryRow(ctx,
		`SELECT id, stripe_account_id, access_token, refresh_token, created_at, updated_at
		 FROM stripe_connections WHERE stripe_account_id = $1`, accountID,
	).Scan(&c.ID, &c.StripeAccountID, &access, &refresh, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get connection %s: %w", accountID, notFound(err))
	}

	if c.AccessToken, err = s.sealer.Open(access); err != nil {
		return nil, fmt.Errorf("open access token for %s: %w", accountID, err)
	}
	if c.RefreshToken, err = s.sealer.Open(refresh); err != nil {
		return nil, fmt.Errorf("open refresh token for %s: %w", accountID, err)
	}
	return &c, nil
}

// List returns all connections without their tokens.
func (s *ConnectionService) List(ctx context.Context) ([]model.Connection, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, stripe_account_id, created_at, updated_at FROM stripe_connections ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	conns := []model.Connection{}
	for rows.Next() {
		var c model.Connection
		if err := rows.Scan(&c.ID, &c.StripeAccountID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return conns, nil
}
