package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/teamshare/backend/internal/docstore"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/internal/models"
	"gorm.io/gorm"
)

func setupServicesTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.UserAccount{}, &models.FileRecord{}))
	return db
}

type fakeProvider struct {
	mu             sync.Mutex
	createCalls    int
	federatedCalls int
	createErr      error
	federatedErr   error
	federated      identity.Identity
}

func (f *fakeProvider) CreateAccount(ctx context.Context, email, password string) (identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return identity.Identity{}, f.createErr
	}
	return identity.Identity{ID: "uid-" + email, Email: email, Provider: models.AuthProviderPassword}, nil
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (identity.Identity, error) {
	return identity.Identity{ID: "uid-" + email, Email: email}, nil
}

func (f *fakeProvider) FederatedSignIn(ctx context.Context, provider, code string) (identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.federatedCalls++
	if f.federatedErr != nil {
		return identity.Identity{}, f.federatedErr
	}
	return f.federated, nil
}

type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]models.UserAccount
	puts     int
	putErr   error
	getErr   error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: make(map[string]models.UserAccount)}
}

func (m *memoryAccounts) Put(ctx context.Context, account *models.UserAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *memoryAccounts) Get(ctx context.Context, id string) (*models.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	account, ok := m.accounts[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &account, nil
}

// flakyFiles wraps a real store and fails the operations that have an error set.
type flakyFiles struct {
	docstore.Files
	listErr   error
	createErr error
	deleteErr error
}

func (f *flakyFiles) ListByTeam(ctx context.Context, teamID string) ([]models.FileRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Files.ListByTeam(ctx, teamID)
}

func (f *flakyFiles) Create(ctx context.Context, record *models.FileRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Files.Create(ctx, record)
}

func (f *flakyFiles) Delete(ctx context.Context, teamID string, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Files.Delete(ctx, teamID, id)
}

type trackedReader struct {
	*strings.Reader
	mu     sync.Mutex
	closed bool
}

func newTrackedReader(content string) *trackedReader {
	return &trackedReader{Reader: strings.NewReader(content)}
}

func (r *trackedReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *trackedReader) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func source(name, content string) (UploadSource, *trackedReader) {
	reader := newTrackedReader(content)
	return UploadSource{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Reader:      reader,
	}, reader
}
