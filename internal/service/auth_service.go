package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/models"
	"snapfeed/internal/validation"
)

type AuthService struct {
	api API
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Validate checks every field locally before the form is sent.
func (in RegisterInput) Validate() error {
	return errors.Join(
		validation.ValidateName(in.Name),
		validation.ValidateUsername(in.Username),
		validation.ValidateEmail(in.Email),
		validation.ValidatePhone(in.Phone),
		validation.ValidatePassword(in.Password),
	)
}

func NewAuthService(api API) *AuthService {
	return &AuthService{api: api}
}

// Login exchanges credentials for the user and a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, "", models.NewValidationError("Email and password are required")
	}
	raw, err := s.api.Post(ctx, "/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return models.User{}, "", err
	}
	user, token, err := decodeAuth(raw)
	if err != nil {
		return models.User{}, "", err
	}
	if token == "" {
		return models.User{}, "", models.NewDecodeError(errors.New("login response carried no token"))
	}
	return user, token, nil
}

// Register creates an account. The token is empty when the API does not sign the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := in.Validate(); err != nil {
		return models.User{}, "", firstValidation(err)
	}
	raw, err := s.api.Post(ctx, "/auth/register", in)
	if err != nil {
		return models.User{}, "", err
	}
	return decodeAuth(raw)
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context) (models.User, error) {
	raw, err := s.api.Get(ctx, "/me", nil)
	if err != nil {
		return models.User{}, err
	}
	user, err := apiclient.ExtractEntity[models.User](raw, "profile", "user")
	if err != nil {
		return models.User{}, err
	}
	if user.ID == 0 {
		return models.User{}, models.NewDecodeError(errors.New("current user has no id"))
	}
	return user, nil
}

// decodeAuth reads {success,data:{token,user}} and its flatter variants. A 2xx body
// with success=false is a rejected form.
func decodeAuth(raw json.RawMessage) (models.User, string, error) {
	if ok, present := apiclient.SuccessFlag(raw); present && !ok {
		return models.User{}, "", models.NewHTTPError(http.StatusBadRequest, apiclient.Message(raw))
	}
	token := apiclient.StringField(raw, "token")
	user, err := apiclient.ExtractEntity[models.User](raw, "user")
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// firstValidation keeps the first *AppError of a joined validation error so callers
// see one message, the way a form shows its first failing field.
func firstValidation(err error) error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			if e != nil {
				return e
			}
		}
	}
	return err
}
