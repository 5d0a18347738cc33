package application

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecomclone/user-service/internal/domain/entity"
	repo "github.com/ecomclone/user-service/internal/domain/repository"
	"github.com/ecomclone/user-service/pkg/helpers"
)

// memRepo is an in-memory credential store with the same error contract
// as the postgres implementation: email uniqueness is enforced at insert
// time, case-insensitively.
type memRepo struct {
	mu     sync.Mutex
	users  map[string]*entity.User // keyed by id
	nextID int

	failAll     bool // every call returns a generic storage error
	failCreate  bool
	dupOnCreate bool // pre-check misses but the insert reports a duplicate
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*entity.User)}
}

var errBoom = errors.New("connection refused")

func (m *memRepo) Create(ctx context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll || m.failCreate {
		return errBoom
	}
	if m.dupOnCreate {
		return repo.ErrDuplicateEmail
	}
	for _, e := range m.users {
		if strings.EqualFold(e.Email, u.Email) {
			return repo.ErrDuplicateEmail
		}
	}
	m.nextID++
	u.ID = "id-" + strconv.Itoa(m.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errBoom
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errBoom
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) Update(ctx context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errBoom
	}
	if _, ok := m.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func newTestService(r repo.UserRepository) *Service {
	return NewService(
		r,
		helpers.NewHasher(bcrypt.MinCost),
		helpers.NewJWTManager("test-secret", time.Hour),
		nil, "", nil, nil, nil, "",
	)
}

func TestRegister_NewUser(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	s := newTestService(r)

	u, err := s.Register(context.Background(), "alice", "alice@test.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@test.com", u.Email)
	assert.Equal(t, "alice", u.Username)

	// The stored hash must verify against the original password.
	assert.True(t, s.Hasher.Verify(u.PasswordHash, "Secret123"))
	assert.NotEqual(t, "Secret123", u.PasswordHash)
}

func TestRegister_PublicProjectionHasNoHash(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	s := newTestService(r)

	u, err := s.Register(context.Background(), "alice", "alice@test.com", "Secret123")
	require.NoError(t, err)

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(b), u.PasswordHash)
	assert.NotContains(t, strings.ToLower(string(b)), "password")
}

func TestRegister_DuplicateNormalizedEmail(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	s := newTestService(r)

	_, err := s.Register(context.Background(), "alice", "A@x.com", "Secret123")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "impostor", "a@x.com", "Other456")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.Len(t, r.users, 1)
}

func TestRegister_LostRaceMapsToConflict(t *testing.T) {
	t.Parallel()

	// The existence pre-check passes but the insert reports a duplicate,
	// as happens when two registrations race.
	r := newMemRepo()
	r.dupOnCreate = true
	s := newTestService(r)

	_, err := s.Register(context.Background(), "alice", "alice@test.com", "Secret123")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestRegister_StoreFailure(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	r.failAll = true
	s := newTestService(r)

	_, err := s.Register(context.Background(), "alice", "alice@test.com", "Secret123")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRegister_InsertFailure(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	r.failCreate = true
	s := newTestService(r)

	_, err := s.Register(context.Background(), "alice", "alice@test.com", "Secret123")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	s := newTestService(r)

	u, err := s.Register(context.Background(), "alice", "alice@test.com", "Secret123")
	require.NoError(t, err)

	res, err := s.Login(context.Background(), "alice@test.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Token)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	// The token's claims must match the stored identity.
	claims, err := s.JWT.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
}

func TestLogin_NormalizedEmailMatches(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	s := newTestService(r)

	_, err := s.Register(context.Background(), "alice", "Alice+store@Test.com", "Secret123")
	require.NoError(t, err)

	res, err := s.Login(context.Background(), "ALICE@TEST.COM", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@test.com", res.User.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	s := newTestService(r)

	_, err := s.Register(context.Background(), "alice", "alice@test.com", "Secret123")
	require.NoError(t, err)

	res, err := s.Login(context.Background(), "alice@test.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, res)
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	s := newTestService(r)

	res, err := s.Login(context.Background(), "nobody@test.com", "Secret123")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, res)
}

func TestLogin_StoreFailure(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	r.failAll = true
	s := newTestService(r)

	_, err := s.Login(context.Background(), "alice@test.com", "Secret123")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestProfile(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	s := newTestService(r)

	u, err := s.Register(context.Background(), "alice", "alice@test.com", "Secret123")
	require.NoError(t, err)

	got, err := s.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = s.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
