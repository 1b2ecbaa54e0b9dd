package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/notify"
	"yelpcamp/internal/repository"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
)

var (
	// ErrInvalidCredentials is the single message shown for every login failure.
	ErrInvalidCredentials = fmt.Errorf("%w: password or username is incorrect", domain.ErrAuthentication)
	// ErrPasswordMismatch is returned when the reset form's two fields differ.
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", domain.ErrValidation)
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username  string `validate:"required,max=64"`
	Password  string `validate:"required,min=8,max=72"`
	FirstName string `validate:"max=64"`
	LastName  string `validate:"max=64"`
	Email     string `validate:"required,email"`
	Avatar    string `validate:"omitempty,url"`
	AdminCode string
}

// AccountService covers registration, login, password reset and public profiles.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email, baseURL string) error
	ValidateResetToken(ctx context.Context, token string) (*domain.User, error)
	CompleteReset(ctx context.Context, token, password, confirm string) (*domain.User, error)
	PublicProfile(ctx context.Context, username string) (*domain.Profile, error)
}

type accountService struct {
	users       repository.UserRepository
	campgrounds repository.CampgroundRepository
	mailer      notify.Notifier
	validate    *validator.Validate
	adminCode   string
	log         logrus.FieldLogger

	now      func() time.Time
	token    func() (string, error)
	hashCost int
}

func NewAccountService(
	users repository.UserRepository,
	campgrounds repository.CampgroundRepository,
	mailer notify.Notifier,
	adminCode string,
	log logrus.FieldLogger,
) AccountService {
	return &accountService{
		users:       users,
		campgrounds: campgrounds,
		mailer:      mailer,
		validate:    validator.New(),
		adminCode:   strings.TrimSpace(adminCode),
		log:         log,
		now:         time.Now,
		token:       newResetToken,
		hashCost:    bcrypt.DefaultCost,
	}
}

func (s *accountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Avatar = strings.TrimSpace(in.Avatar)

	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Avatar:       in.Avatar,
		PasswordHash: string(hash),
		IsAdmin:      s.grantsAdmin(in.AdminCode),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: a user with the given username is already registered", domain.ErrConflict)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "admin": user.IsAdmin}).Info("user registered")
	return sanitizeUser(user), nil
}

// grantsAdmin is false whenever no admin code is configured.
func (s *accountService) grantsAdmin(provided string) bool {
	if s.adminCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(provided)), []byte(s.adminCode)) == 1
}

func (s *accountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return sanitizeUser(user), nil
}

func (s *accountService) RequestPasswordReset(ctx context.Context, email, baseURL string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no account with that email address exists", domain.ErrNotFound)
		}
		return err
	}

	token, err := s.token()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	user.IssueReset(token, s.now(), resetTokenTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	link := strings.TrimRight(baseURL, "/") + "/reset/" + token
	msg := notify.Message{
		To:      user.Email,
		Subject: "YelpCamp Password Reset",
		Body: "You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n" +
			"Please click on the following link, or paste this into your browser to complete the process:\n\n" +
			link + "\n\n" +
			"If you did not request this, please ignore this email and your password will remain unchanged.\n",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("password reset mail not delivered")
		return upstreamError("send reset mail", err)
	}

	s.log.WithField("user_id", user.ID).Info("password reset issued")
	return nil
}

func (s *accountService) ValidateResetToken(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.issuedReset(ctx, token)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *accountService) CompleteReset(ctx context.Context, token, password, confirm string) (*domain.User, error) {
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	user, err := s.issuedReset(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Var(password, "required,min=8,max=72"); err != nil {
		return nil, fmt.Errorf("%w: password must be between 8 and 72 characters", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.RedeemReset(ctx, user.ID, *user.ResetToken, string(hash)); err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)
	state := user.RedeemReset()
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "reset": state}).Info("password changed")

	msg := notify.Message{
		To:      user.Email,
		Subject: "Your password has been changed",
		Body:    "Hello,\n\nThis is a confirmation that the password for your account " + user.Email + " has just been changed.\n",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("password change confirmation not delivered")
	}
	return sanitizeUser(user), nil
}

// issuedReset loads the user owning token and requires the token to still be usable.
// Unknown and expired tokens are reported identically; an expired one is dropped on sight.
func (s *accountService) issuedReset(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	switch user.ResetState(s.now()) {
	case domain.ResetStateIssued:
		return user, nil
	case domain.ResetStateExpired:
		if err := s.users.ClearReset(ctx, user.ID, token); err != nil && !errors.Is(err, domain.ErrInvalidToken) {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("expired reset token not cleared")
		}
	}
	return nil, domain.ErrInvalidToken
}

func (s *accountService) PublicProfile(ctx context.Context, username string) (*domain.Profile, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	campgrounds, err := s.campgrounds.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{User: *sanitizeUser(user), Campgrounds: campgrounds}, nil
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// sanitizeUser strips credential material before a user leaves the service.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Avatar:    user.Avatar,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
