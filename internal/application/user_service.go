package application

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

const userCacheTTL = 10 * time.Minute

func userCacheKey(id int64) string {
	return "user:record:" + strconv.FormatInt(id, 10)
}

// UserService covers user management CRUD. Redis is a read-through cache of
// records by id and Elasticsearch an index for the search endpoint; both are
// optional and best-effort.
type UserService struct {
	Repo         repository.UserRepository
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewUserService(repo repository.UserRepository, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string) *UserService {
	return &UserService{Repo: repo, Redis: rdb, Logger: logger, ES: es, ESUsersIndex: esUsersIndex}
}

func (s *UserService) List(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.FindAll(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	if s.Redis != nil {
		var cached entity.User
		if hit, err := helpers.RedisGetJSON(ctx, s.Redis, userCacheKey(id), &cached); err == nil && hit {
			return &cached, nil
		}
	}
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, userCacheKey(id), u, userCacheTTL); err != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("user cache set failed")
		}
	}
	return u, nil
}

// Add is the administrative create: same validations as registration but no
// verification email, and language/theme fall back to defaults.
func (s *UserService) Add(ctx context.Context, u *entity.User) error {
	u.Email = strings.TrimSpace(u.Email)
	u.Username = strings.TrimSpace(u.Username)
	u.Password = strings.TrimSpace(u.Password)

	if err := validateCandidate(ctx, s.Repo, u.Email, u.Username, u.Password); err != nil {
		return err
	}
	hashed, err := helpers.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	u.Lang = "en"
	u.Theme = false

	if err := s.Repo.Save(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return ErrEmailExists
		case errors.Is(err, repository.ErrDuplicateUsername):
			return ErrUsernameExists
		}
		return err
	}
	s.indexUser(ctx, u)
	return nil
}

// Update overwrites the record with the given id. An incoming non-empty
// password is hashed; an empty one keeps the stored hash, so the password
// column never holds plaintext. The verified flag is not editable here:
// only ticket validation may set it, so the stored value carries over.
func (s *UserService) Update(ctx context.Context, u *entity.User, id int64) error {
	current, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrUserNotFound
	}

	u.ID = id
	u.Verified = current.Verified
	u.CreatedAt = current.CreatedAt
	if pw := strings.TrimSpace(u.Password); pw != "" {
		hashed, err := helpers.HashPassword(pw)
		if err != nil {
			return err
		}
		u.Password = hashed
	} else {
		u.Password = current.Password
	}
	if err := s.Repo.Save(ctx, u); err != nil {
		return err
	}

	s.invalidateCache(ctx, id)
	s.indexUser(ctx, u)
	return nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	if err := s.Repo.Delete(ctx, u); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	s.removeFromIndex(ctx, id)
	return nil
}

func (s *UserService) invalidateCache(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, userCacheKey(id)); err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("user cache del failed")
	}
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id_user":  u.ID,
		"email":    u.Email,
		"username": u.Username,
		"verified": u.Verified,
		"lang":     u.Lang,
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      s.ESUsersIndex,
		DocumentID: strconv.FormatInt(u.ID, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

func (s *UserService) removeFromIndex(ctx context.Context, id int64) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}

// Search runs a multi_match over email and username.
func (s *UserService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
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

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
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
