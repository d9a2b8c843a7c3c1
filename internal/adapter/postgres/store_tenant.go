package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/axiome/agentcore/internal/domain"
	"github.com/axiome/agentcore/internal/domain/tenant"
)

// GetTenant returns one tenant by id, including the encrypted access token.
func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var settingsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, enabled, access_token, settings, created_at, updated_at
		 FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Enabled, &t.AccessToken, &settingsJSON, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	if settingsJSON != nil {
		_ = json.Unmarshal(settingsJSON, &t.Settings)
	}
	return &t, nil
}
