package application

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

// memUserRepo is an in-memory repository.UserRepository for tests.
type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]*entity.User{}}
}

func (r *memUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindAll(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memUserRepo) Insert(_ context.Context, email, username, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return repository.ErrDuplicateEmail
		}
		if u.Username == username {
			return repository.ErrDuplicateUsername
		}
	}
	r.nextID++
	r.users[r.nextID] = &entity.User{
		ID:       r.nextID,
		Email:    email,
		Username: username,
		Password: hashedPassword,
		Lang:     "en",
	}
	return nil
}

func (r *memUserRepo) Save(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		for _, other := range r.users {
			if other.Email == u.Email {
				return repository.ErrDuplicateEmail
			}
			if other.Username == u.Username {
				return repository.ErrDuplicateUsername
			}
		}
		r.nextID++
		u.ID = r.nextID
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, u.ID)
	return nil
}

func (r *memUserRepo) setVerified(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Verified = true
	}
}

var _ repository.UserRepository = (*memUserRepo)(nil)

// memTicketRepo is an in-memory repository.TicketRepository whose Consume is
// atomic with respect to concurrent callers.
type memTicketRepo struct {
	mu      sync.Mutex
	users   *memUserRepo
	nextID  int64
	tickets map[string]*entity.VerificationTicket
}

func newMemTicketRepo(users *memUserRepo) *memTicketRepo {
	return &memTicketRepo{users: users, tickets: map[string]*entity.VerificationTicket{}}
}

func (r *memTicketRepo) Save(_ context.Context, t *entity.VerificationTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tok, existing := range r.tickets {
		if existing.UserID == t.UserID {
			delete(r.tickets, tok)
		}
	}
	r.nextID++
	t.ID = r.nextID
	cp := *t
	r.tickets[t.Token] = &cp
	return nil
}

func (r *memTicketRepo) FindByToken(_ context.Context, token string) (*entity.VerificationTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickets[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *memTicketRepo) FindByUser(_ context.Context, userID int64) (*entity.VerificationTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTicketRepo) Delete(_ context.Context, t *entity.VerificationTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, t.Token)
	return nil
}

func (r *memTicketRepo) Consume(_ context.Context, token string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[token]
	if !ok {
		return false, nil
	}
	if !now.Before(t.ExpiresAt) {
		return false, nil
	}
	r.users.setVerified(t.UserID)
	delete(r.tickets, token)
	return true, nil
}

var _ repository.TicketRepository = (*memTicketRepo)(nil)

// recordingSender captures verification emails instead of sending them.
type recordingSender struct {
	mu   sync.Mutex
	fail error
	sent []sentMail
}

type sentMail struct {
	to       string
	username string
	link     string
}

func (s *recordingSender) SendVerification(_ context.Context, to, username, link string) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{to: to, username: username, link: link})
	return nil
}
