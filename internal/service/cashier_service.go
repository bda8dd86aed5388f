package service

import (
	"backend/internal/model"
	"backend/internal/repository"
	"context"
	"errors"
	"os"
	"regexp"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateCashierRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
	StoreID  string `json:"store_id"`
}

type UpdateCashierRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role"`
	StoreID  string `json:"store_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// DTO for returning staff accounts without exposing the password hash
type CashierResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	StoreID   string    `json:"store_id"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// CashierService defines the interface for staff account management
type CashierService interface {
	CreateCashier(ctx context.Context, req CreateCashierRequest, actorID string) (*CashierResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	GetCashierByID(ctx context.Context, id string) (*CashierResponse, error)
	ListCashiers(ctx context.Context, page, limit int) ([]CashierResponse, int64, error)
	UpdateCashier(ctx context.Context, id string, req UpdateCashierRequest) (*CashierResponse, error)
	DeleteCashier(ctx context.Context, id string) error
}

type cashierService struct {
	repo      repository.CashierRepository
	auditRepo repository.AuditRepository
}

func NewCashierService(repo repository.CashierRepository, auditRepo repository.AuditRepository) CashierService {
	return &cashierService{repo: repo, auditRepo: auditRepo}
}

// Helper: check if role is allowed
func validateRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleManager || role == model.RoleCashier
}

// Helper: parse model to standard json API response
func mapToCashierResponse(cashier *model.Cashier) *CashierResponse {
	return &CashierResponse{
		ID:        cashier.ID,
		Username:  cashier.Username,
		Email:     cashier.Email,
		Role:      cashier.Role,
		StoreID:   cashier.StoreID,
		CreatedAt: cashier.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: cashier.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *cashierService) CreateCashier(ctx context.Context, req CreateCashierRequest, actorID string) (*CashierResponse, error) {
	if !validateRole(req.Role) {
		return nil, errors.New("invalid role: must be admin, manager, or cashier")
	}

	// Basic Email format validation fallback
	emailRegex := regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)
	if !emailRegex.MatchString(req.Email) {
		return nil, errors.New("invalid email format")
	}

	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	cashier := &model.Cashier{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     req.Role,
		StoreID:  req.StoreID,
	}

	if err := s.repo.Create(ctx, cashier); err != nil {
		return nil, err
	}

	writeAudit(ctx, s.auditRepo, actorID, model.ActionCreateCashier, cashier.ID.String(), cashier.Username, map[string]string{
		"role":     cashier.Role,
		"store_id": cashier.StoreID,
	})

	return mapToCashierResponse(cashier), nil
}

func (s *cashierService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	cashier, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cashier.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	// Generate JWT Token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   cashier.ID.String(),
		"role":  cashier.Role,
		"store": cashier.StoreID,
	})

	// Use same fallback strategy as middleware for simplicity here or get from env centrally
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &TokenResponse{Token: tokenString}, nil
}

func (s *cashierService) GetCashierByID(ctx context.Context, id string) (*CashierResponse, error) {
	cashier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("cashier not found")
	}
	return mapToCashierResponse(cashier), nil
}

func (s *cashierService) ListCashiers(ctx context.Context, page, limit int) ([]CashierResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	cashiers, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var responses []CashierResponse
	for _, c := range cashiers {
		responses = append(responses, *mapToCashierResponse(&c))
	}

	return responses, total, nil
}

func (s *cashierService) UpdateCashier(ctx context.Context, id string, req UpdateCashierRequest) (*CashierResponse, error) {
	cashier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("cashier not found")
	}

	if req.Role != "" {
		if !validateRole(req.Role) {
			return nil, errors.New("invalid role: must be admin, manager, or cashier")
		}
		cashier.Role = req.Role
	}

	if req.Username != "" && req.Username != cashier.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, errors.New("username already exists")
		}
		cashier.Username = req.Username
	}

	if req.Email != "" && req.Email != cashier.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, errors.New("email already exists")
		}
		cashier.Email = req.Email
	}

	if req.StoreID != "" {
		cashier.StoreID = req.StoreID
	}

	if err := s.repo.Update(ctx, cashier); err != nil {
		return nil, err
	}

	return mapToCashierResponse(cashier), nil
}

func (s *cashierService) DeleteCashier(ctx context.Context, id string) error {
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("cashier not found")
	}
	return s.repo.Delete(ctx, id)
}
