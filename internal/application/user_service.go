package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ecomclone/user-service/internal/domain/entity"
	repo "github.com/ecomclone/user-service/internal/domain/repository"
	"github.com/ecomclone/user-service/pkg/helpers"
	"github.com/ecomclone/user-service/pkg/validation"
)

var (
	// ErrEmailAlreadyExists signals a uniqueness conflict on registration.
	ErrEmailAlreadyExists = errors.New("user email already exists")
	// ErrUserNotFound signals a login attempt for an unknown email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials signals a password mismatch for a known user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStoreUnavailable wraps infrastructure failures from the
	// credential store. The service never retries; that is the caller's
	// decision.
	ErrStoreUnavailable = errors.New("store unavailable")
)

const profileCacheTTL = 15 * time.Minute

// Service orchestrates registration, login, and profile operations over
// the credential store, hasher, and token issuer. Redis, GCS, and
// Elasticsearch are optional collaborators; every use is nil-guarded so
// the core flow works without them.
type Service struct {
	Repo         repo.UserRepository
	Hasher       *helpers.Hasher
	JWT          *helpers.JWTManager
	GCS          *storage.Client
	GCSBucket    string
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewService(repo repo.UserRepository, hasher *helpers.Hasher, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{
		Repo:         repo,
		Hasher:       hasher,
		JWT:          jwt,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

func profileKey(userID string) string {
	return "user:profile:" + userID
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

// Register creates a new user with a hashed password. The email is
// normalized before any store access so "A@x.com" and "a@x.com" land on
// the same record. A duplicate reported by the insert itself (two
// registrations racing past the existence check) maps to
// ErrEmailAlreadyExists as well, never to a second row.
func (s *Service) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	email = validation.NormalizeEmail(email)

	existing, err := s.Repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &entity.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.cacheProfile(ctx, u)
	s.indexUser(ctx, u)
	return u, nil
}

// Login verifies credentials and issues a bearer token with {uid, email}
// claims. It reports whether the email is unknown or the password wrong;
// the HTTP contract exposes that distinction as 404 vs 401.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = validation.NormalizeEmail(email)

	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !s.Hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.JWT.Generate(u.ID, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("token generation failed")
		}
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Profile returns the user record for the given id, serving from the
// redis cache when possible.
func (s *Service) Profile(ctx context.Context, userID string) (*entity.User, error) {
	if s.Redis != nil {
		var cached entity.User
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, profileKey(userID), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.cacheProfile(ctx, u)
	return u, nil
}

// UploadProfilePicture stores the image with the file-storage collaborator
// and records the resulting URL on the user.
func (s *Service) UploadProfilePicture(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if s.GCS == nil || s.GCSBucket == "" {
		return nil, errors.New("file storage not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}

	u.AvatarURL = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.cacheProfile(ctx, u)
	s.indexUser(ctx, u)
	return u, nil
}

// cacheProfile stores the hash-free projection; cache contents must be as
// safe to expose as a response body.
func (s *Service) cacheProfile(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	pub := u.Public()
	cached := entity.User{
		ID:        pub.ID,
		Email:     pub.Email,
		Username:  pub.Username,
		AvatarURL: pub.AvatarURL,
		CreatedAt: pub.CreatedAt,
		UpdatedAt: pub.UpdatedAt,
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, profileKey(u.ID), &cached, profileCacheTTL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", profileKey(u.ID)).Warn("profile cache write failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"username":   u.Username,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// SearchUsers performs a simple multi_match search on email and username.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "username"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
