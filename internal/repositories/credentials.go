package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/shared"
)

// CredentialRecord is the stored form of a [models.CredentialState].
type CredentialRecord struct {
	AccessToken  string
	RefreshToken string
	DisplayName  string
	UpdatedAt    time.Time
}

// CredentialRepository persists the current Spotify session in the credentials table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Get returns the stored credentials, or [shared.ErrNotAuthenticated] when there are none.
func (r *CredentialRepository) Get() (*CredentialRecord, error) {
	query := `
		SELECT access_token, refresh_token, display_name, updated_at
		FROM credentials
		WHERE id = 1
	`

	var rec CredentialRecord
	err := r.db.QueryRow(query).Scan(&rec.AccessToken, &rec.RefreshToken, &rec.DisplayName, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	return &rec, nil
}

// Save replaces the stored credentials.
func (r *CredentialRepository) Save(rec CredentialRecord) error {
	if rec.AccessToken == "" {
		return fmt.Errorf("%w: access token is required", shared.ErrInvalidCredentials)
	}

	query := `
		INSERT INTO credentials (id, access_token, refresh_token, display_name, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			display_name = excluded.display_name,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, rec.AccessToken, rec.RefreshToken, rec.DisplayName, time.Now()); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// UpdateTokens stores refreshed tokens and keeps the display name.
// An empty refreshToken keeps the stored one.
func (r *CredentialRepository) UpdateTokens(accessToken, refreshToken string) error {
	query := `
		UPDATE credentials
		SET access_token = ?,
			refresh_token = CASE WHEN ? = '' THEN refresh_token ELSE ? END,
			updated_at = ?
		WHERE id = 1
	`

	result, err := r.db.Exec(query, accessToken, refreshToken, refreshToken, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrNotAuthenticated
	}
	return nil
}

// Delete removes the stored credentials. Deleting when none are stored is not an error.
func (r *CredentialRepository) Delete() error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// Restore loads stored credentials into state. Missing credentials leave state cleared.
func (r *CredentialRepository) Restore(state *models.CredentialState) error {
	rec, err := r.Get()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		state.Clear()
		return nil
	}
	if err != nil {
		return err
	}

	state.Set(rec.AccessToken, rec.RefreshToken, rec.DisplayName)
	return nil
}

// Persist writes state back to storage, deleting the row when state holds no access token.
func (r *CredentialRepository) Persist(state *models.CredentialState) error {
	if !state.Authenticated() {
		return r.Delete()
	}
	return r.Save(CredentialRecord{
		AccessToken:  state.AccessToken(),
		RefreshToken: state.RefreshToken(),
		DisplayName:  state.DisplayName(),
	})
}
