package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"akeno/internal/server/storage"
	"akeno/internal/types"
	"akeno/internal/validator"

	"go.uber.org/zap"
)

const keyPrefix = "credential:"

// Config represents the credential store configuration
type Config struct {
	// Secret is the master secret the encryption key is derived from
	Secret string `mapstructure:"secret"`
}

// Store persists remote access credentials with the secret field
// encrypted at rest. Plaintext secrets only cross the Retrieve boundary.
type Store struct {
	kv       storage.Store
	box      *cipherBox
	validate *validator.Validator
	logger   *zap.Logger
}

// NewStore creates a new credential store
func NewStore(cfg Config, kv storage.Store, logger *zap.Logger) (*Store, error) {
	box, err := newCipherBox(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Store{kv: kv, box: box, validate: validator.New(), logger: logger}, nil
}

// Save encrypts the secret and upserts the credential keyed by server ID.
// CreatedAt is preserved across updates.
func (s *Store) Save(ctx context.Context, cred types.Credential, secret string) error {
	if cred.ServerID == "" {
		return fmt.Errorf("server ID is required")
	}
	if cred.Type != types.CredentialSSH && cred.Type != types.CredentialWinRM {
		return fmt.Errorf("unsupported credential type: %s", cred.Type)
	}
	if err := s.validate.Var(cred.Host, "hostname"); err != nil {
		return fmt.Errorf("invalid host %q", cred.Host)
	}

	encrypted, err := s.box.encrypt(secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	now := time.Now().UTC()
	cred.EncryptedSecret = encrypted
	cred.UpdatedAt = now
	cred.CreatedAt = now
	if existing, err := s.load(ctx, cred.ServerID); err == nil {
		cred.CreatedAt = existing.CreatedAt
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := s.kv.Set(ctx, keyPrefix+cred.ServerID, string(data)); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	s.logger.Info("Stored credential",
		zap.String("server_id", cred.ServerID),
		zap.String("type", string(cred.Type)))
	return nil
}

// Lookup returns the stored credential without decrypting the secret.
// Callers that only need the connection target should use this instead
// of Retrieve.
func (s *Store) Lookup(ctx context.Context, serverID string) (types.Credential, error) {
	return s.load(ctx, serverID)
}

// Retrieve returns the credential with the secret decrypted
func (s *Store) Retrieve(ctx context.Context, serverID string) (types.Credential, string, error) {
	cred, err := s.load(ctx, serverID)
	if err != nil {
		return types.Credential{}, "", err
	}

	secret, err := s.box.decrypt(cred.EncryptedSecret)
	if err != nil {
		return types.Credential{}, "", err
	}
	return cred, secret, nil
}

// Delete removes the credential for a server
func (s *Store) Delete(ctx context.Context, serverID string) error {
	if _, err := s.load(ctx, serverID); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, keyPrefix+serverID); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	s.logger.Info("Deleted credential", zap.String("server_id", serverID))
	return nil
}

// List returns the secret-free view of all stored credentials
func (s *Store) List(ctx context.Context) ([]types.CredentialInfo, error) {
	kvs, err := s.kv.GetAll(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	infos := make([]types.CredentialInfo, 0, len(kvs))
	for _, kv := range kvs {
		var cred types.Credential
		if err := json.Unmarshal([]byte(kv.Value), &cred); err != nil {
			s.logger.Warn("Skipping undecodable credential record",
				zap.String("key", kv.Key),
				zap.Error(err))
			continue
		}
		infos = append(infos, cred.Info())
	}
	return infos, nil
}

func (s *Store) load(ctx context.Context, serverID string) (types.Credential, error) {
	value, ok, err := s.kv.Get(ctx, keyPrefix+serverID)
	if err != nil {
		return types.Credential{}, fmt.Errorf("failed to read credential: %w", err)
	}
	if !ok {
		return types.Credential{}, types.ErrCredentialNotFound
	}

	var cred types.Credential
	if err := json.Unmarshal([]byte(value), &cred); err != nil {
		return types.Credential{}, fmt.Errorf("failed to decode credential: %w", err)
	}
	return cred, nil
}
