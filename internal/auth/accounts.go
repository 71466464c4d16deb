package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type Registration struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Accounts registers users and exchanges credentials for access tokens.
type Accounts struct {
	users    repository.UserRepository
	tokens   *Tokens
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAccounts(users repository.UserRepository, tokens *Tokens, logger *zap.Logger) *Accounts {
	return &Accounts{
		users:    users,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger.Named("accounts"),
	}
}

// Register creates a USER account. Admin accounts are provisioned out of band.
func (a *Accounts) Register(ctx context.Context, in Registration) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := a.validate.Struct(in); err != nil {
		return nil, apperr.Validation("%s", describeValidation(err))
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.users.Create(ctx, user); err != nil {
		err = apperr.FromStore(err)
		if apperr.KindOf(err) == apperr.KindPersistence {
			a.logger.Error("register failed", zap.Error(err))
		}
		return nil, err
	}

	a.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login checks the credentials and issues an access token. Unknown emails and wrong
// passwords fail the same way.
func (a *Accounts) Login(ctx context.Context, email, password string) (*models.User, string, time.Time, error) {
	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, "", time.Time{}, invalidCredentials()
		}
		a.logger.Error("login lookup failed", zap.Error(err))
		return nil, "", time.Time{}, apperr.FromStore(err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, "", time.Time{}, invalidCredentials()
	}

	token, expiresAt, err := a.tokens.Issue(*user)
	if err != nil {
		a.logger.Error("token generation failed", zap.Error(err))
		return nil, "", time.Time{}, apperr.Persistence(err)
	}
	return user, token, expiresAt, nil
}

func invalidCredentials() error {
	return &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "invalid credentials"}
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid input"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " is invalid"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}

// Me returns the account of the caller.
func (a *Accounts) Me(ctx context.Context, id *Identity) (*models.User, error) {
	if err := RequireUser(id); err != nil {
		return nil, err
	}
	user, err := a.users.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	return user, nil
}
