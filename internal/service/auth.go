package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/auth"
	"github.com/sakif/codefixer/internal/model"
	"github.com/sakif/codefixer/internal/repository"
)

// Registration field messages.
const (
	MsgRequired         = "This field is required."
	MsgUsernameInvalid  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgUsernameTooLong  = "Ensure this value has at most 150 characters."
	MsgUsernameTaken    = "A user with that username already exists."
	MsgEmailInvalid     = "Enter a valid email address."
	MsgNameTooLong      = "Ensure this value has at most 100 characters."
	MsgPasswordShort    = "This password is too short. It must contain at least 8 characters."
	MsgPasswordLong     = "This password is too long. It must contain at most 72 bytes."
	MsgPasswordNumeric  = "This password is entirely numeric."
	MsgPasswordSimilar  = "The password is too similar to the username."
	MsgPasswordMismatch = "The two password fields didn't match."
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// RegisterInput is the registration form. The form tags name the HTML
// fields and key the FieldErrors.
type RegisterInput struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,email"`
	FirstName string `form:"first_name" validate:"max=100"`
	LastName  string `form:"last_name" validate:"max=100"`
	Password1 string `form:"password1" validate:"required,min=8,max=72,notnumeric"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// FieldErrors maps form field names to a message. It unwraps to
// apperror.ErrValidation.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return apperror.ErrValidation }

// AuthResult bundles the signed-in user and a fresh session token, so the
// handler can set the cookie and redirect in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Identity is the session identity for r.User.
func (r *AuthResult) Identity() auth.Identity {
	return auth.Identity{UserID: r.User.ID, Username: r.User.Username}
}

// AuthService handles registration, password login, and GitHub sign-in.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validate:  newValidator(),
		logger:    logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool {
		return strings.TrimLeft(fl.Field().String(), "0123456789") != ""
	})
	return v
}

// Register validates in, creates the account, and signs the user in.
// Every problem found is returned at once as FieldErrors.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	fe := s.validateRegistration(in)
	if len(fe) == 0 {
		if _, err := s.users.GetUserByUsername(ctx, in.Username); err == nil {
			fe = FieldErrors{"username": MsgUsernameTaken}
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: checking username: %w", err)
		}
	}
	if len(fe) > 0 {
		return nil, fe
	}

	hash, err := s.passwords.Hash(in.Password1)
	if err != nil {
		return nil, FieldErrors{"password1": MsgPasswordLong}
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, FieldErrors{"username": MsgUsernameTaken}
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", in.Username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

func (s *AuthService) validateRegistration(in RegisterInput) FieldErrors {
	fe := FieldErrors{}
	err := s.validate.Struct(in)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			if _, seen := fe[ve.Field()]; seen {
				continue
			}
			fe[ve.Field()] = fieldMessage(ve)
		}
	}

	if _, bad := fe["password1"]; !bad && in.Username != "" &&
		strings.Contains(strings.ToLower(in.Password1), strings.ToLower(in.Username)) {
		fe["password1"] = MsgPasswordSimilar
	}
	return fe
}

func fieldMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return MsgRequired
	case "email":
		return MsgEmailInvalid
	case "username":
		return MsgUsernameInvalid
	case "notnumeric":
		return MsgPasswordNumeric
	case "eqfield":
		return MsgPasswordMismatch
	case "min":
		return MsgPasswordShort
	case "max":
		switch ve.Field() {
		case "username":
			return MsgUsernameTooLong
		case "password1":
			return MsgPasswordLong
		default:
			return MsgNameTooLong
		}
	}
	return "Enter a valid value."
}

// Login checks a username and password. Every failure, unknown user or
// wrong password, returns apperror.InvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.InvalidCredentials()
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.SpendTime(password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed", slog.String("username", username))
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: verifying password for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginGitHub signs in the account linked to a GitHub profile, creating it
// on first use with the username "github:<login>".
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.ID == 0 {
		return nil, errors.New("service/auth: GitHub user must not be empty")
	}

	ghID := gh.ID
	user := &model.User{
		Username: "github:" + gh.Login,
		Email:    gh.Email,
		GitHubID: &ghID,
	}
	err := s.users.UpsertGitHubUser(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		// The login was taken by another GitHub account that was later renamed.
		user.Username = fmt.Sprintf("github:%s-%d", gh.Login, gh.ID)
		err = s.users.UpsertGitHubUser(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: upserting GitHub user %d: %w", gh.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", gh.Login),
	)
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	res := &AuthResult{User: user}
	token, err := s.tokens.Generate(res.Identity())
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	res.Token = token
	return res, nil
}
