package credentials

import (
	"context"
	"testing"
	"time"

	"akeno/internal/server/storage"
	"akeno/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{Secret: "test-master-secret"}, storage.NewMemoryStore(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func testCredential() types.Credential {
	return types.Credential{
		ServerID: "web-1",
		Type:     types.CredentialSSH,
		Host:     "web-1.internal",
		Port:     22,
		Username: "deploy",
	}
}

func TestSaveAndRetrieve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testCredential(), "hunter2"))

	cred, secret, err := s.Retrieve(ctx, "web-1")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)
	assert.Equal(t, "web-1.internal", cred.Host)
	assert.Equal(t, "deploy", cred.Username)
	assert.NotEqual(t, "hunter2", cred.EncryptedSecret)
}

// TestLookupDoesNotDecrypt verifies the lookup view carries the target
// fields with the secret still encrypted
func TestLookupDoesNotDecrypt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testCredential(), "hunter2"))

	cred, err := s.Lookup(ctx, "web-1")
	require.NoError(t, err)
	assert.Equal(t, "web-1.internal", cred.Host)
	assert.Equal(t, 22, cred.Port)
	assert.NotEmpty(t, cred.EncryptedSecret)
	assert.NotContains(t, cred.EncryptedSecret, "hunter2")

	_, err = s.Lookup(ctx, "no-such-server")
	assert.ErrorIs(t, err, types.ErrCredentialNotFound)
}

func TestRetrieveUnknownServer(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Retrieve(context.Background(), "no-such-server")
	assert.ErrorIs(t, err, types.ErrCredentialNotFound)
}

// TestUpdatePreservesCreatedAt verifies saving over an existing credential
// keeps the original creation time while moving UpdatedAt forward
func TestUpdatePreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testCredential(), "hunter2"))
	first, _, err := s.Retrieve(ctx, "web-1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Save(ctx, testCredential(), "rotated"))

	second, secret, err := s.Retrieve(ctx, "web-1")
	require.NoError(t, err)
	assert.Equal(t, "rotated", secret)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testCredential(), "hunter2"))
	require.NoError(t, s.Delete(ctx, "web-1"))

	_, _, err := s.Retrieve(ctx, "web-1")
	assert.ErrorIs(t, err, types.ErrCredentialNotFound)

	err = s.Delete(ctx, "web-1")
	assert.ErrorIs(t, err, types.ErrCredentialNotFound)
}

// TestListNeverExposesSecrets verifies the listing view carries no secret
// material, encrypted or otherwise
func TestListNeverExposesSecrets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testCredential(), "hunter2"))

	db := testCredential()
	db.ServerID = "db-1"
	db.Host = "db-1.internal"
	require.NoError(t, s.Save(ctx, db, "s3cret"))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	ids := []string{infos[0].ServerID, infos[1].ServerID}
	assert.ElementsMatch(t, []string{"web-1", "db-1"}, ids)
}

func TestSaveValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing := testCredential()
	missing.ServerID = ""
	assert.Error(t, s.Save(ctx, missing, "hunter2"))

	badType := testCredential()
	badType.Type = "telnet"
	assert.Error(t, s.Save(ctx, badType, "hunter2"))

	badHost := testCredential()
	badHost.Host = "bad..host"
	assert.Error(t, s.Save(ctx, badHost, "hunter2"))
}
