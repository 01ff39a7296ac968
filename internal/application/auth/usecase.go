package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/pkg/jwt"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: login, alta de usuarios y usuario inicial.
type AuthUseCase struct {
	tx     repository.TxRunner
	jwtCfg JWTConfig
	log    *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tx repository.TxRunner, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{tx: tx, jwtCfg: jwtCfg, log: log.Component("auth")}
}

// RegisterUser crea un usuario. Solo un admin puede hacerlo; el login es único sin distinguir mayúsculas.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, actor entity.Actor, in dto.RegisterRequest) (*dto.UserResponse, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	user, err := newUser(in)
	if err != nil {
		return nil, err
	}
	err = uc.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		existing, err := r.Users.GetByLogin(ctx, user.Login)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.NewConflictError("user", user.Login, "el login ya existe")
		}
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("login", user.Login).Str("role", user.Role).Str("by", actor.Label()).Msg("usuario registrado")
	return toUserResponse(user), nil
}

// EnsureAdmin crea el admin inicial si todavía no existe ningún usuario. Devuelve true si lo creó.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, login, password string) (bool, error) {
	user, err := newUser(dto.RegisterRequest{Login: login, Password: password, FullName: "Administrador", Role: entity.RoleAdmin})
	if err != nil {
		return false, err
	}
	created := false
	err = uc.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		users, err := r.Users.List(ctx)
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return nil
		}
		created = true
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return false, err
	}
	if created {
		uc.log.Info().Str("login", user.Login).Msg("admin inicial creado")
	}
	return created, nil
}

// Login verifica login/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	var user *entity.User
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		user, err = r.Users.GetByLogin(ctx, strings.TrimSpace(in.Login))
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.FullName, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

// ListUsers todos los usuarios (solo admin).
func (uc *AuthUseCase) ListUsers(ctx context.Context, actor entity.Actor) ([]dto.UserResponse, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	var users []*entity.User
	err := uc.tx.ReadOnly(ctx, func(ctx context.Context, r repository.Repos) error {
		var err error
		users, err = r.Users.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *toUserResponse(u))
	}
	return out, nil
}

func newUser(in dto.RegisterRequest) (*entity.User, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" {
		return nil, domain.NewValidationError("login", "requerido")
	}
	if len(in.Password) < 8 {
		return nil, domain.NewValidationError("password", "mínimo 8 caracteres")
	}
	switch in.Role {
	case entity.RoleAdmin, entity.RolePharmacist, entity.RoleStorekeeper:
	default:
		return nil, domain.NewValidationError("role", "debe ser admin, pharmacist o storekeeper")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		name = login
	}
	now := time.Now()
	return &entity.User{
		ID:           uuid.New().String(),
		Login:        login,
		PasswordHash: string(hash),
		FullName:     name,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Login:     u.Login,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
