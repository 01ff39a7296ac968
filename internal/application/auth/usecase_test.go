package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/auth"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/Farmacia-api/pkg/jwt"
)

const secret = "secreto-de-pruebas"

func newUseCase(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	uc := auth.NewAuthUseCase(memory.New(), auth.JWTConfig{Secret: secret, ExpMinutes: 10, Issuer: "farmacia-api"}, nil)
	created, err := uc.EnsureAdmin(context.Background(), "admin", "admin-1234")
	require.NoError(t, err)
	require.True(t, created)
	return uc
}

func TestEnsureAdmin_OnlyOnEmptyStore(t *testing.T) {
	uc := newUseCase(t)
	created, err := uc.EnsureAdmin(context.Background(), "otro", "otro-1234")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLogin_IssuesTokenWithActorClaims(t *testing.T) {
	uc := newUseCase(t)
	admin := entity.Actor{UserID: "x", Role: entity.RoleAdmin}
	_, err := uc.RegisterUser(context.Background(), admin, dto.RegisterRequest{
		Login: "ana", Password: "farmacia-01", FullName: "Ana Pérez", Role: entity.RolePharmacist,
	})
	require.NoError(t, err)

	res, err := uc.Login(context.Background(), dto.LoginRequest{Login: "ANA", Password: "farmacia-01"})
	require.NoError(t, err)
	assert.Equal(t, "ana", res.User.Login)

	claims, err := jwt.Parse(secret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "Ana Pérez", claims.Name)
	assert.Equal(t, entity.RolePharmacist, claims.Role)
}

func TestLogin_WrongCredentials(t *testing.T) {
	uc := newUseCase(t)
	_, err := uc.Login(context.Background(), dto.LoginRequest{Login: "admin", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Login: "nadie", Password: "admin-1234"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegisterUser_Rules(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	in := dto.RegisterRequest{Login: "bodega", Password: "bodega-123", FullName: "Luis", Role: entity.RoleStorekeeper}

	_, err := uc.RegisterUser(ctx, entity.Actor{UserID: "p", Role: entity.RolePharmacist}, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := entity.Actor{UserID: "a", Role: entity.RoleAdmin}
	_, err = uc.RegisterUser(ctx, admin, in)
	require.NoError(t, err)

	in.Login = "Bodega"
	_, err = uc.RegisterUser(ctx, admin, in)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.RegisterUser(ctx, admin, dto.RegisterRequest{Login: "x", Password: "corta", Role: entity.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RegisterUser(ctx, admin, dto.RegisterRequest{Login: "x", Password: "larga-123", Role: "vendedor"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	users, err := uc.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
