package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientStock rejects manual OUT adjustments that would go negative.
// Sales are exempt: a register must never be blocked by a stale stock figure,
// so DeductForSale floors at zero instead.
var ErrInsufficientStock = errors.New("insufficient stock")

// ExpiryWarningWindow is how far ahead a batch counts as expiring soon.
const ExpiryWarningWindow = 7 * 24 * time.Hour

// DeriveAlerts computes the active alerts for one item at a point in time.
// Alerts are never stored; they always reflect current state and clock.
func DeriveAlerts(item *model.InventoryItem, now time.Time) []string {
	var alerts []string
	if item.QuantityG < item.SafetyStock {
		alerts = append(alerts, model.AlertLowStock)
	}
	if item.ExpiresAt != nil {
		switch {
		case !item.ExpiresAt.After(now):
			alerts = append(alerts, model.AlertExpired)
		case item.ExpiresAt.Sub(now) <= ExpiryWarningWindow:
			alerts = append(alerts, model.AlertExpiringSoon)
		}
	}
	return alerts
}

// --- DTOs ---

type CreateItemRequest struct {
	StoreID     string     `json:"store_id" binding:"required"`
	FlavorCode  string     `json:"flavor_code" binding:"required"`
	QuantityG   int64      `json:"quantity_g" binding:"min=0"`
	SafetyStock int64      `json:"safety_stock_g" binding:"min=0"`
	BatchCode   string     `json:"batch_code"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type AdjustStockRequest struct {
	MovementType string `json:"movement_type" binding:"required,oneof=IN OUT"`
	Grams        int64  `json:"grams" binding:"required,gt=0"`
	Reason       string `json:"reason"`
}

type InventoryItemResponse struct {
	ID          string   `json:"id"`
	StoreID     string   `json:"store_id"`
	FlavorCode  string   `json:"flavor_code"`
	QuantityG   int64    `json:"quantity_g"`
	SafetyStock int64    `json:"safety_stock_g"`
	BatchCode   string   `json:"batch_code,omitempty"`
	ExpiresAt   string   `json:"expires_at,omitempty"`
	Alerts      []string `json:"alerts,omitempty"`
}

type StockAlert struct {
	ItemID     string `json:"item_id"`
	StoreID    string `json:"store_id"`
	FlavorCode string `json:"flavor_code"`
	AlertType  string `json:"alert_type"`
	QuantityG  int64  `json:"quantity_g"`
}

type stockEvent struct {
	Event      string `json:"event"`
	StoreID    string `json:"store_id"`
	FlavorCode string `json:"flavor_code"`
	QuantityG  int64  `json:"quantity_g"`
	AlertType  string `json:"alert_type,omitempty"`
}

// --- Interface ---

type InventoryService interface {
	ListItems(ctx context.Context, storeID string, page, limit int) ([]InventoryItemResponse, int64, error)
	CreateItem(ctx context.Context, userID string, req CreateItemRequest) (InventoryItemResponse, error)
	AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (InventoryItemResponse, error)
	// DeductForSale draws down stock for a settled sale. Missing items and
	// stale counts are tolerated; the sale has already happened.
	DeductForSale(ctx context.Context, storeID string, txID uuid.UUID, lines []model.TransactionLine) error
	Alerts(ctx context.Context, storeID string) ([]StockAlert, error)
}

type inventoryService struct {
	repo      repository.InventoryRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
	now       func() time.Time
}

func NewInventoryService(
	repo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
		now:       time.Now,
	}
}

// --- Implementation ---

func (s *inventoryService) ListItems(ctx context.Context, storeID string, page, limit int) ([]InventoryItemResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	items, total, err := s.repo.ListByStore(ctx, storeID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	res := make([]InventoryItemResponse, 0, len(items))
	for i := range items {
		res = append(res, toItemResponse(&items[i], now))
	}

	return res, total, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, userID string, req CreateItemRequest) (InventoryItemResponse, error) {
	item := model.InventoryItem{
		StoreID:     req.StoreID,
		FlavorCode:  req.FlavorCode,
		QuantityG:   req.QuantityG,
		SafetyStock: req.SafetyStock,
		BatchCode:   req.BatchCode,
		ExpiresAt:   req.ExpiresAt,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &item); err != nil {
			return fmt.Errorf("failed to create inventory item: %w", err)
		}

		if item.QuantityG > 0 {
			movement := &model.StockMovement{
				ItemID:       item.ID,
				MovementType: model.MovementIn,
				GramsChanged: item.QuantityG,
				StockAfter:   item.QuantityG,
			}
			if err := s.repo.CreateMovement(txCtx, movement); err != nil {
				return fmt.Errorf("failed to record opening stock: %w", err)
			}
		}

		writeAudit(txCtx, s.auditRepo, userID, model.ActionStockAdjust, item.ID.String(), item.FlavorCode, req)
		return nil
	})
	if err != nil {
		return InventoryItemResponse{}, err
	}

	return toItemResponse(&item, s.now()), nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (InventoryItemResponse, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return InventoryItemResponse{}, fmt.Errorf("invalid item id: %w", err)
	}

	var item *model.InventoryItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err = s.repo.FindByID(txCtx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("inventory item not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		delta := req.Grams
		if req.MovementType == model.MovementOut {
			if item.QuantityG < req.Grams {
				return ErrInsufficientStock
			}
			delta = -req.Grams
		}
		item.QuantityG += delta

		if err := s.repo.Update(txCtx, item); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		movement := &model.StockMovement{
			ItemID:       item.ID,
			MovementType: req.MovementType,
			GramsChanged: req.Grams,
			StockAfter:   item.QuantityG,
		}
		if err := s.repo.CreateMovement(txCtx, movement); err != nil {
			return fmt.Errorf("failed to record movement: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			Action:     model.ActionStockAdjust,
			EntityID:   item.ID.String(),
			EntityName: item.FlavorCode,
			Details:    string(details),
		}
		if parsed, err := uuid.Parse(userID); err == nil {
			audit.UserID = &parsed
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return nil
	})
	if err != nil {
		return InventoryItemResponse{}, err
	}

	s.notifyIfLow(item)
	return toItemResponse(item, s.now()), nil
}

func (s *inventoryService) DeductForSale(ctx context.Context, storeID string, txID uuid.UUID, lines []model.TransactionLine) error {
	var firstErr error
	for _, line := range lines {
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			item, err := s.repo.FindByStoreAndFlavor(txCtx, storeID, line.FlavorCode)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Untracked flavor at this store, nothing to draw down.
					return nil
				}
				return fmt.Errorf("failed to load stock for %s: %w", line.FlavorCode, err)
			}

			item.QuantityG -= line.Grams
			if item.QuantityG < 0 {
				item.QuantityG = 0
			}

			if err := s.repo.Update(txCtx, item); err != nil {
				return fmt.Errorf("failed to deduct stock for %s: %w", line.FlavorCode, err)
			}

			movement := &model.StockMovement{
				ItemID:        item.ID,
				TransactionID: &txID,
				MovementType:  model.MovementOut,
				GramsChanged:  line.Grams,
				StockAfter:    item.QuantityG,
			}
			if err := s.repo.CreateMovement(txCtx, movement); err != nil {
				return fmt.Errorf("failed to record sale movement: %w", err)
			}

			s.notifyIfLow(item)
			return nil
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *inventoryService) Alerts(ctx context.Context, storeID string) ([]StockAlert, error) {
	// Alert scans are bounded; no store carries anywhere near this many flavors.
	items, _, err := s.repo.ListByStore(ctx, storeID, 1, 1000)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var alerts []StockAlert
	for i := range items {
		for _, alertType := range DeriveAlerts(&items[i], now) {
			alerts = append(alerts, StockAlert{
				ItemID:     items[i].ID.String(),
				StoreID:    items[i].StoreID,
				FlavorCode: items[i].FlavorCode,
				AlertType:  alertType,
				QuantityG:  items[i].QuantityG,
			})
		}
	}
	return alerts, nil
}

func (s *inventoryService) notifyIfLow(item *model.InventoryItem) {
	if s.hub == nil || item == nil || item.QuantityG >= item.SafetyStock {
		return
	}
	payload, err := json.Marshal(stockEvent{
		Event:      "stock_alert",
		StoreID:    item.StoreID,
		FlavorCode: item.FlavorCode,
		QuantityG:  item.QuantityG,
		AlertType:  model.AlertLowStock,
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

func toItemResponse(item *model.InventoryItem, now time.Time) InventoryItemResponse {
	res := InventoryItemResponse{
		ID:          item.ID.String(),
		StoreID:     item.StoreID,
		FlavorCode:  item.FlavorCode,
		QuantityG:   item.QuantityG,
		SafetyStock: item.SafetyStock,
		BatchCode:   item.BatchCode,
		Alerts:      DeriveAlerts(item, now),
	}
	if item.ExpiresAt != nil {
		res.ExpiresAt = item.ExpiresAt.Format(time.RFC3339)
	}
	return res
}
