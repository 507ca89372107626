package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/dbx"
	"sharedshoppinglist/internal/logging"
	"sharedshoppinglist/internal/server/config"
	"sharedshoppinglist/internal/server/models"
	"sharedshoppinglist/internal/server/repositories/products"
	"sharedshoppinglist/internal/server/repositories/refreshtokens"
	"sharedshoppinglist/internal/server/repositories/shoppinglists"
	"sharedshoppinglist/internal/server/repositories/users"
)

// ---------- in-memory fakes ----------

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, common.ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.IsActive = true
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUserRepo) GetActiveByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.IsActive {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (r *fakeRefreshRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRefreshRepo) MarkUsed(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.IsUsed() {
		return false, nil
	}
	t.Used = sql.NullBool{Bool: true, Valid: true}
	return true, nil
}

type fakeManager struct {
	users    *fakeUserRepo
	refresh  *fakeRefreshRepo
	lists    *fakeListRepo
	products *fakeProductRepo
}

func (m *fakeManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeManager) Users(db dbx.DBTX) users.Repository                  { return m.users }
func (m *fakeManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository  { return m.refresh }
func (m *fakeManager) ShoppingLists(db dbx.DBTX) shoppinglists.Repository  { return m.lists }
func (m *fakeManager) Products(db dbx.DBTX) products.Repository            { return m.products }

// ---------- helpers ----------

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestIdentity wires an IdentityService to in-memory repositories. The
// sqlite handle only backs the transactional wrapper; all state lives in the
// fakes.
func newTestIdentity(t *testing.T, accessValidity time.Duration) (*IdentityService, *fakeManager) {
	t.Helper()

	db, err := sql.Open("sqlite", "file:identity_tests?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = db.Close() })

	m := &fakeManager{users: newFakeUserRepo(), refresh: newFakeRefreshRepo()}
	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  accessValidity,
		RefreshTokenValidityDuration: 720 * time.Hour,
		BcryptCost:                   bcrypt.MinCost,
	}
	return NewIdentityService(db, m, cfg, discardLogger()), m
}

func registerAndLogin(t *testing.T, svc *IdentityService, email string) *TokenPair {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Register(ctx, "Jane", "Doe", email, "hunter2")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, email, "hunter2")
	require.NoError(t, err)
	return pair
}

// ---------- Register / Login ----------

func TestRegister_HashesPassword(t *testing.T) {
	svc, m := newTestIdentity(t, time.Hour)

	u, err := svc.Register(context.Background(), "Jane", "Doe", "jane@example.com", "hunter2")
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	require.NotEqual(t, "hunter2", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2")))

	stored := m.users.users[u.ID]
	require.Equal(t, u.PasswordHash, stored.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestIdentity(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "hunter2")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "John", "Smith", "jane@example.com", "other")
	require.ErrorIs(t, err, common.ErrEmailTaken)
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _ := newTestIdentity(t, time.Hour)

	_, err := svc.Register(context.Background(), "", "Doe", "jane@example.com", "hunter2")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestLogin_Success_BindsRefreshToAccess(t *testing.T) {
	svc, m := newTestIdentity(t, time.Hour)

	pair := registerAndLogin(t, svc, "jane@example.com")
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := svc.Tokens().Parse(pair.AccessToken, true)
	require.NoError(t, err)

	stored, err := m.refresh.Find(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, claims.ID, stored.JwtID)
	require.False(t, stored.IsUsed())
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestIdentity(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "hunter2")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "jane@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestIdentity(t, time.Hour)

	_, err := svc.Login(context.Background(), "ghost@example.com", "hunter2")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, m := newTestIdentity(t, time.Hour)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "hunter2")
	require.NoError(t, err)
	m.users.users[u.ID].IsActive = false

	_, err = svc.Login(ctx, "jane@example.com", "hunter2")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

// ---------- Refresh ----------

func TestRefresh_RotatesPair(t *testing.T) {
	// Negative validity issues access tokens that are already expired, which
	// is exactly what the rotation path wants to see.
	svc, m := newTestIdentity(t, -time.Minute)

	pair := registerAndLogin(t, svc, "jane@example.com")

	next, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.NotEqual(t, pair.AccessToken, next.AccessToken)

	old, err := m.refresh.Find(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, old.IsUsed())

	claims, err := svc.Tokens().Parse(next.AccessToken, false)
	require.NoError(t, err)
	fresh, err := m.refresh.Find(context.Background(), next.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, claims.ID, fresh.JwtID)
}

func TestRefresh_GarbageAccessToken(t *testing.T) {
	svc, _ := newTestIdentity(t, -time.Minute)
	registerAndLogin(t, svc, "jane@example.com")

	_, err := svc.Refresh(context.Background(), "not.a.jwt", "whatever")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefresh_AccessTokenStillValid(t *testing.T) {
	svc, _ := newTestIdentity(t, time.Hour)
	pair := registerAndLogin(t, svc, "jane@example.com")

	_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrTokenNotExpiredYet)
}

func TestRefresh_UnknownRefreshToken(t *testing.T) {
	svc, _ := newTestIdentity(t, -time.Minute)
	pair := registerAndLogin(t, svc, "jane@example.com")

	_, err := svc.Refresh(context.Background(), pair.AccessToken, "no-such-token")
	require.ErrorIs(t, err, common.ErrRefreshTokenNotFound)
}

func TestRefresh_ExpiredRefreshToken(t *testing.T) {
	svc, m := newTestIdentity(t, -time.Minute)
	pair := registerAndLogin(t, svc, "jane@example.com")

	m.refresh.tokens[pair.RefreshToken].ExpiresAt = time.Now().Add(-time.Hour)

	_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestRefresh_SecondRedeemRejected(t *testing.T) {
	svc, _ := newTestIdentity(t, -time.Minute)
	pair := registerAndLogin(t, svc, "jane@example.com")
	ctx := context.Background()

	_, err := svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrRefreshTokenUsed)
}

func TestRefresh_LegacyNullUsedFlag(t *testing.T) {
	svc, m := newTestIdentity(t, -time.Minute)
	pair := registerAndLogin(t, svc, "jane@example.com")

	// Rows from before the used column reads back as NULL; they must redeem.
	m.refresh.tokens[pair.RefreshToken].Used = sql.NullBool{}

	_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_MismatchedPair(t *testing.T) {
	svc, _ := newTestIdentity(t, -time.Minute)
	ctx := context.Background()

	first := registerAndLogin(t, svc, "jane@example.com")
	second, err := svc.Login(ctx, "jane@example.com", "hunter2")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.AccessToken, second.RefreshToken)
	require.ErrorIs(t, err, common.ErrTokenMismatch)
}

func TestRefresh_UserGone(t *testing.T) {
	svc, m := newTestIdentity(t, -time.Minute)
	pair := registerAndLogin(t, svc, "jane@example.com")

	for id := range m.users.users {
		delete(m.users.users, id)
	}

	_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestRefresh_ConcurrentRedeems_OneWinner(t *testing.T) {
	svc, _ := newTestIdentity(t, -time.Minute)
	pair := registerAndLogin(t, svc, "jane@example.com")

	const n = 8
	var wg sync.WaitGroup
	results := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, common.ErrRefreshTokenUsed)
		}
	}
	require.Equal(t, 1, wins, "exactly one concurrent redeem may succeed")
}
