package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCashierRepo struct {
	cashiers map[uuid.UUID]*model.Cashier
}

func newFakeCashierRepo() *fakeCashierRepo {
	return &fakeCashierRepo{cashiers: make(map[uuid.UUID]*model.Cashier)}
}

func (r *fakeCashierRepo) Create(_ context.Context, cashier *model.Cashier) error {
	cashier.ID = uuid.New()
	copied := *cashier
	r.cashiers[cashier.ID] = &copied
	return nil
}

func (r *fakeCashierRepo) GetByID(_ context.Context, id string) (*model.Cashier, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	c, ok := r.cashiers[parsed]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCashierRepo) GetByEmail(_ context.Context, email string) (*model.Cashier, error) {
	for _, c := range r.cashiers {
		if c.Email == email {
			copied := *c
			return &copied, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeCashierRepo) GetByUsername(_ context.Context, username string) (*model.Cashier, error) {
	for _, c := range r.cashiers {
		if c.Username == username {
			copied := *c
			return &copied, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeCashierRepo) List(_ context.Context, _, _ int) ([]model.Cashier, int64, error) {
	out := make([]model.Cashier, 0, len(r.cashiers))
	for _, c := range r.cashiers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCashierRepo) Update(_ context.Context, cashier *model.Cashier) error {
	copied := *cashier
	r.cashiers[cashier.ID] = &copied
	return nil
}

func (r *fakeCashierRepo) Delete(_ context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	delete(r.cashiers, parsed)
	return nil
}

func TestCreateCashier_RejectsUnknownRole(t *testing.T) {
	svc := NewCashierService(newFakeCashierRepo(), nil)

	_, err := svc.CreateCashier(context.Background(), CreateCashierRequest{
		Username: "amal", Email: "amal@example.com", Password: "secret123", Role: "owner",
	}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestCreateCashier_RejectsDuplicateEmail(t *testing.T) {
	repo := newFakeCashierRepo()
	svc := NewCashierService(repo, nil)

	_, err := svc.CreateCashier(context.Background(), CreateCashierRequest{
		Username: "amal", Email: "amal@example.com", Password: "secret123", Role: model.RoleCashier, StoreID: "ST-01",
	}, "")
	require.NoError(t, err)

	_, err = svc.CreateCashier(context.Background(), CreateCashierRequest{
		Username: "other", Email: "amal@example.com", Password: "secret123", Role: model.RoleCashier,
	}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already exists")
}

func TestLogin_TokenCarriesStoreClaim(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	repo := newFakeCashierRepo()
	svc := NewCashierService(repo, nil)

	created, err := svc.CreateCashier(context.Background(), CreateCashierRequest{
		Username: "amal", Email: "amal@example.com", Password: "secret123", Role: model.RoleManager, StoreID: "ST-01",
	}, "")
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "amal@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	token, err := jwt.Parse(res.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("default_super_secret_key"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, created.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleManager, claims["role"])
	assert.Equal(t, "ST-01", claims["store"])
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeCashierRepo()
	svc := NewCashierService(repo, nil)

	_, err := svc.CreateCashier(context.Background(), CreateCashierRequest{
		Username: "amal", Email: "amal@example.com", Password: "secret123", Role: model.RoleCashier,
	}, "")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "amal@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestCreateCashier_NeverStoresPlaintextPassword(t *testing.T) {
	repo := newFakeCashierRepo()
	svc := NewCashierService(repo, nil)

	created, err := svc.CreateCashier(context.Background(), CreateCashierRequest{
		Username: "amal", Email: "amal@example.com", Password: "secret123", Role: model.RoleCashier,
	}, "")
	require.NoError(t, err)

	stored := repo.cashiers[created.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NotEmpty(t, stored.Password)
}
