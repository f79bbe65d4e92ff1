package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/orderledger-backend/internal/users"
	"github.com/angelmondragon/orderledger-backend/pkg/config"
	"github.com/angelmondragon/orderledger-backend/pkg/db"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
	"github.com/angelmondragon/orderledger-backend/pkg/security"
)

const usernameTakenMessage = "username already registered"

// RegisterService creates login credentials.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type registerRepository interface {
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	UserRepo           registerRepository
	PasswordConfig     config.PasswordConfig
	AllowAdminRegister bool
}

type registerService struct {
	users       registerRepository
	passwordCfg config.PasswordConfig
	allowAdmin  bool
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &registerService{
		users:       params.UserRepo,
		passwordCfg: params.PasswordConfig,
		allowAdmin:  params.AllowAdminRegister,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	role := enums.UserRoleCustomer
	if raw := strings.TrimSpace(req.Role); raw != "" {
		parsed, err := enums.ParseUserRole(strings.ToLower(raw))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		role = parsed
	}
	if role == enums.UserRoleAdmin && !s.allowAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin registration is disabled")
	}

	taken, err := s.users.Exists(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, usernameTakenMessage)
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, usernameTakenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return users.FromModel(user), nil
}
