package application

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// emailPattern is the registration email check: local part of ASCII
// letters/digits/._%+-, an @, and a domain ending in a TLD of length >= 2.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minPasswordLen = 8

// VerificationSender hands a verification link to the email collaborator.
// Delivery is best-effort: a failed send is logged, never raised.
type VerificationSender interface {
	SendVerification(ctx context.Context, to, username, link string) error
}

// RegisterInput is a self-registration candidate.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Theme    bool
	Lang     string
}

// AuthService orchestrates registration validation, login credential checks
// and verification ticket issuance.
type AuthService struct {
	Repo      repository.UserRepository
	Tickets   *VerificationService
	Mailer    VerificationSender
	Logger    *logrus.Logger
	VerifyURL string
}

func NewAuthService(repo repository.UserRepository, tickets *VerificationService, mailer VerificationSender, logger *logrus.Logger, verifyURL string) *AuthService {
	return &AuthService{Repo: repo, Tickets: tickets, Mailer: mailer, Logger: logger, VerifyURL: verifyURL}
}

// validateCandidate runs the registration checks in fixed order; the first
// failing check wins.
func validateCandidate(ctx context.Context, repo repository.UserRepository, email, username, password string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailExists
	}
	exists, err = repo.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return ErrUsernameExists
	}
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

// Register validates the candidate, persists the user unverified, issues a
// verification ticket and hands the link to the email collaborator.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	password := strings.TrimSpace(in.Password)

	if err := validateCandidate(ctx, s.Repo, email, username, password); err != nil {
		return err
	}

	hashed, err := helpers.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Repo.Insert(ctx, email, username, hashed); err != nil {
		// The existence checks above are check-then-act; the constraint is
		// the source of truth when two registrations race.
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return ErrEmailExists
		case errors.Is(err, repository.ErrDuplicateUsername):
			return ErrUsernameExists
		}
		return err
	}

	added, err := s.Repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if added == nil {
		return errors.New("registered user not found after insert")
	}
	if _, err := s.Tickets.Issue(ctx, added); err != nil {
		return err
	}
	token, err := s.Tickets.ActiveToken(ctx, added)
	if err != nil {
		return err
	}

	link := s.VerifyURL + "?token=" + token
	if err := s.Mailer.SendVerification(ctx, added.Email, added.Username, link); err != nil {
		s.Logger.WithError(err).WithField("user_id", added.ID).
			Warn("verification email send failed")
	}
	return nil
}

// Login checks the credentials and returns the user record. The verified
// flag is deliberately not checked here: an unverified account can log in,
// verification only gates the confirmation UX.
func (s *AuthService) Login(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.Repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidUsername
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, ErrInvalidPassword
	}
	return u, nil
}
