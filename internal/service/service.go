package service

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/studentworks/freelancer-service/internal/auth"
	"github.com/studentworks/freelancer-service/internal/models"
	"github.com/studentworks/freelancer-service/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password. The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the directory store contract the coordinator sequences against.
type UserStore interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id int64) (*models.User, error)
	UpdateUser(user *models.User) error
	EmailTakenByOther(email string, id int64) (bool, error)
	DeleteUser(id int64) error
	ListUsers(page, limit int, search string) ([]*models.User, int64, error)
}

// MediaStore persists uploaded profile pictures.
type MediaStore interface {
	Save(r io.Reader, originalName, contentType string) (string, error)
	Remove(name string)
	URLFor(name *string) *string
}

// Notifier dispatches transactional email. Failures are best-effort from the
// coordinator's point of view.
type Notifier interface {
	SendRegistrationNotice(to, name string) error
	SendVerificationNotice(to, name, token string) error
}

// Service coordinates registration, profile updates, and deletion across the
// directory store, the media store, and the notifier. Atomicity is achieved
// through step ordering and compensation, not database transactions: a stored
// file is never deleted until the database operation that stops referencing
// it has committed.
type Service struct {
	repo    UserStore
	media   MediaStore
	mail    Notifier
	tokens  *auth.Issuer
	log     *logrus.Logger
}

// NewService initializes a new service
func NewService(repo UserStore, media MediaStore, mail Notifier, tokens *auth.Issuer, log *logrus.Logger) *Service {
	return &Service{repo: repo, media: media, mail: mail, tokens: tokens, log: log}
}

// Upload is a buffered multipart file handed over by the HTTP layer.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// RegisterInput holds the validated registration fields.
type RegisterInput struct {
	Name       string
	Email      string
	Phone      string
	Password   string
	Skills     string
	Bio        string
	HourlyRate *float64
	Picture    *Upload
}

// UpdateInput holds the validated fields of a full profile update by id.
type UpdateInput struct {
	Name       string
	Email      string
	Phone      string
	Skills     string
	Bio        string
	HourlyRate *float64
	Picture    *Upload
}

// ProfileInput holds the fields a user may change on their own profile.
// Email is excluded: the login identity cannot be changed through this path.
type ProfileInput struct {
	Name       string
	Phone      string
	Skills     string
	Bio        string
	HourlyRate *float64
}

// Register creates a new user. Steps run in order: store the picture if one
// was supplied, insert the row, then send the welcome email. A duplicate
// email or insert failure removes the file stored during this attempt; a
// failed notification is logged and swallowed.
func (s *Service) Register(in RegisterInput) (*models.UserResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var storedName *string
	if in.Picture != nil {
		name, err := s.media.Save(in.Picture.Reader, in.Picture.Filename, in.Picture.ContentType)
		if err != nil {
			return nil, err
		}
		storedName = &name
	}

	token := uuid.NewString()
	user := &models.User{
		Name:              in.Name,
		Email:             in.Email,
		Phone:             in.Phone,
		PasswordHash:      string(hashed),
		ProfilePicture:    storedName,
		Skills:            optional(in.Skills),
		Bio:               optional(in.Bio),
		HourlyRate:        in.HourlyRate,
		VerificationToken: &token,
	}

	if err := s.repo.CreateUser(user); err != nil {
		if storedName != nil {
			s.media.Remove(*storedName)
		}
		return nil, err
	}

	if err := s.mail.SendRegistrationNotice(user.Email, user.Name); err != nil {
		s.log.Warnf("Registration email to %s failed: %v", user.Email, err)
	}

	s.log.Infof("User registered: %s", user.Email)
	resp := s.toResponse(user)
	return &resp, nil
}

// Login authenticates a user and returns the user with a fresh token.
func (s *Service) Login(emailAddr, password string) (*models.UserResponse, string, error) {
	user, err := s.repo.FindUserByEmail(emailAddr)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	resp := s.toResponse(user)
	return &resp, token, nil
}

// GetUser returns one user by id.
func (s *Service) GetUser(id int64) (*models.UserResponse, error) {
	user, err := s.repo.FindUserByID(id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(user)
	return &resp, nil
}

// ListUsers returns one page of the directory listing.
func (s *Service) ListUsers(page, limit int, search string) (*models.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	users, total, err := s.repo.ListUsers(page, limit, search)
	if err != nil {
		return nil, err
	}

	items := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, s.toResponse(u))
	}

	return &models.UserListResponse{
		Users: items,
		Pagination: models.Pagination{
			CurrentPage: page,
			TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
			TotalUsers:  total,
			Limit:       limit,
		},
	}, nil
}

// UpdateUser replaces the profile fields of the given user. The previous
// picture is removed only after the database update has committed; if the
// update fails, the newly stored file is removed instead and the previous
// picture stays untouched.
func (s *Service) UpdateUser(id int64, in UpdateInput) (*models.UserResponse, error) {
	existing, err := s.repo.FindUserByID(id)
	if err != nil {
		return nil, err
	}

	if in.Email != existing.Email {
		taken, err := s.repo.EmailTakenByOther(in.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, repository.ErrDuplicateEmail
		}
	}

	var storedName *string
	if in.Picture != nil {
		name, err := s.media.Save(in.Picture.Reader, in.Picture.Filename, in.Picture.ContentType)
		if err != nil {
			return nil, err
		}
		storedName = &name
	}

	updated := &models.User{
		ID:                id,
		Name:              in.Name,
		Email:             in.Email,
		Phone:             in.Phone,
		PasswordHash:      existing.PasswordHash,
		ProfilePicture:    existing.ProfilePicture,
		Skills:            optional(in.Skills),
		Bio:               optional(in.Bio),
		HourlyRate:        in.HourlyRate,
		IsVerified:        existing.IsVerified,
		VerificationToken: existing.VerificationToken,
		CreatedAt:         existing.CreatedAt,
	}
	if storedName != nil {
		updated.ProfilePicture = storedName
	}

	if err := s.repo.UpdateUser(updated); err != nil {
		if storedName != nil {
			s.media.Remove(*storedName)
		}
		return nil, err
	}

	// The new picture is durably referenced; the old file can go now.
	if storedName != nil && existing.ProfilePicture != nil {
		s.media.Remove(*existing.ProfilePicture)
	}

	s.log.Infof("User updated: %s", updated.Email)
	resp := s.toResponse(updated)
	return &resp, nil
}

// UpdateProfile updates the authenticated user's own profile. Email and
// picture are left unchanged through this path.
func (s *Service) UpdateProfile(id int64, in ProfileInput) (*models.UserResponse, error) {
	existing, err := s.repo.FindUserByID(id)
	if err != nil {
		return nil, err
	}

	updated := &models.User{
		ID:                id,
		Name:              in.Name,
		Email:             existing.Email,
		Phone:             in.Phone,
		PasswordHash:      existing.PasswordHash,
		ProfilePicture:    existing.ProfilePicture,
		Skills:            optional(in.Skills),
		Bio:               optional(in.Bio),
		HourlyRate:        in.HourlyRate,
		IsVerified:        existing.IsVerified,
		VerificationToken: existing.VerificationToken,
		CreatedAt:         existing.CreatedAt,
	}

	if err := s.repo.UpdateUser(updated); err != nil {
		return nil, err
	}

	s.log.Infof("Profile updated: %s", updated.Email)
	resp := s.toResponse(updated)
	return &resp, nil
}

// DeleteUser removes the user row first and its stored picture after. If the
// row delete fails the file stays put; a file-removal failure after the row
// is gone is logged inside the media store and tolerated.
func (s *Service) DeleteUser(id int64) error {
	existing, err := s.repo.FindUserByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteUser(id); err != nil {
		return err
	}

	if existing.ProfilePicture != nil {
		s.media.Remove(*existing.ProfilePicture)
	}

	s.log.Infof("User deleted: %s", existing.Email)
	return nil
}

func (s *Service) toResponse(u *models.User) models.UserResponse {
	return models.UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		ProfilePicture: s.media.URLFor(u.ProfilePicture),
		Skills:         u.Skills,
		Bio:            u.Bio,
		HourlyRate:     u.HourlyRate,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
