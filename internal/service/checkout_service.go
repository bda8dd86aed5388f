package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/payment"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder        = errors.New("no sellable lines in order")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrDuplicateCheckout = errors.New("transaction already settled")
)

// Sync ingest statuses reported per transaction.
const (
	IngestSettled   = "SETTLED"
	IngestDuplicate = "DUPLICATE"
	IngestRejected  = "REJECTED"
)

// --- Snapshot ---

// TransactionSnapshot is the self-contained record a register emits for every
// sale. It is what gets buffered offline and replayed later, so it carries
// everything needed to settle without re-pricing. Money fields are decimal
// strings to survive the JSON round trip exactly.
type TransactionSnapshot struct {
	ID                  string         `json:"id" binding:"required,uuid"`
	StoreID             string         `json:"store_id" binding:"required"`
	DeviceID            string         `json:"device_id"`
	RegionCode          string         `json:"region_code" binding:"required"`
	Currency            string         `json:"currency" binding:"required,len=3"`
	Subtotal            string         `json:"subtotal" binding:"required"`
	TaxAmount           string         `json:"tax_amount" binding:"required"`
	DiscountAmount      string         `json:"discount_amount"`
	Total               string         `json:"total" binding:"required"`
	PaymentMethod       string         `json:"payment_method" binding:"required,oneof=CASH CARD WALLET EGIFT"`
	PaymentProviderRef  string         `json:"payment_provider_ref,omitempty"`
	LoyaltyPointsEarned int64          `json:"loyalty_points_earned"`
	CustomerID          string         `json:"customer_id,omitempty"`
	Lines               []SnapshotLine `json:"lines" binding:"required,min=1,dive"`
	CreatedAt           time.Time      `json:"created_at" binding:"required"`
}

type SnapshotLine struct {
	FlavorCode string `json:"flavor_code" binding:"required"`
	Grams      int64  `json:"grams" binding:"required,gt=0"`
	UnitPrice  string `json:"unit_price" binding:"required"`
	LineTotal  string `json:"line_total" binding:"required"`
}

// --- DTOs ---

type CheckoutRequest struct {
	ID            string             `json:"id" binding:"omitempty,uuid"` // client idempotency key, generated when absent
	StoreID       string             `json:"store_id" binding:"required"`
	DeviceID      string             `json:"device_id" binding:"required"`
	Country       string             `json:"country" binding:"required,len=2"`
	FreeZone      bool               `json:"free_zone"`
	CustomerID    string             `json:"customer_id" binding:"omitempty,uuid"`
	PaymentMethod string             `json:"payment_method" binding:"required,oneof=CASH CARD WALLET EGIFT"`
	EGiftCode     string             `json:"egift_code"`
	Lines         []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type CheckoutResponse struct {
	TransactionID      string              `json:"transaction_id"`
	RegionCode         string              `json:"region_code"`
	Currency           string              `json:"currency"`
	Subtotal           string              `json:"subtotal"`
	TaxAmount          string              `json:"tax_amount"`
	DiscountAmount     string              `json:"discount_amount"`
	CardSurcharge      string              `json:"card_surcharge"`
	Total              string              `json:"total"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentProviderRef string              `json:"payment_provider_ref,omitempty"`
	Loyalty            *AccrualResult      `json:"loyalty,omitempty"`
	Rejected           []RejectedLine      `json:"rejected_lines,omitempty"`
	Snapshot           TransactionSnapshot `json:"snapshot"`
}

type SyncIngestRequest struct {
	Transactions []TransactionSnapshot `json:"transactions" binding:"required,min=1,dive"`
}

type SyncIngestResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type TransactionResponse struct {
	ID                  string         `json:"id"`
	StoreID             string         `json:"store_id"`
	DeviceID            string         `json:"device_id"`
	RegionCode          string         `json:"region_code"`
	Currency            string         `json:"currency"`
	Subtotal            string         `json:"subtotal"`
	TaxAmount           string         `json:"tax_amount"`
	DiscountAmount      string         `json:"discount_amount"`
	Total               string         `json:"total"`
	PaymentMethod       string         `json:"payment_method"`
	LoyaltyPointsEarned int64          `json:"loyalty_points_earned"`
	Status              string         `json:"status"`
	Lines               []SnapshotLine `json:"lines"`
	CreatedAt           string         `json:"created_at"`
}

type settledEvent struct {
	Event   string `json:"event"`
	TxID    string `json:"tx_id"`
	StoreID string `json:"store_id"`
	Total   string `json:"total"`
}

// --- Interface ---

type CheckoutService interface {
	// Checkout prices, charges, and settles one live sale end to end.
	Checkout(ctx context.Context, req CheckoutRequest, userID string) (CheckoutResponse, error)
	// Ingest settles a batch of snapshots replayed from device buffers.
	// Duplicates are acknowledged, not re-applied.
	Ingest(ctx context.Context, req SyncIngestRequest) ([]SyncIngestResult, error)
	GetTransaction(ctx context.Context, id string) (TransactionResponse, error)
	ListTransactions(ctx context.Context, storeID string, page, limit int) ([]TransactionResponse, int64, error)
	// Submit settles one buffered offline transaction. It satisfies
	// TransactionSubmitter so the offline sync loop can drain into checkout.
	Submit(ctx context.Context, offline *model.OfflineTransaction) (bool, error)
}

type checkoutService struct {
	catalog      *catalog.Catalog
	txRepo       repository.TransactionRepository
	txManager    repository.TransactionManager
	loyaltySvc   LoyaltyService
	egiftSvc     EGiftService
	provider     payment.Provider
	inventorySvc InventoryService
	auditRepo    repository.AuditRepository
	hub          *ws.Hub
	now          func() time.Time
}

func NewCheckoutService(
	cat *catalog.Catalog,
	txRepo repository.TransactionRepository,
	txManager repository.TransactionManager,
	loyaltySvc LoyaltyService,
	egiftSvc EGiftService,
	provider payment.Provider,
	inventorySvc InventoryService,
	auditRepo repository.AuditRepository,
	hub *ws.Hub,
) CheckoutService {
	return &checkoutService{
		catalog:      cat,
		txRepo:       txRepo,
		txManager:    txManager,
		loyaltySvc:   loyaltySvc,
		egiftSvc:     egiftSvc,
		provider:     provider,
		inventorySvc: inventorySvc,
		auditRepo:    auditRepo,
		hub:          hub,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *checkoutService) Checkout(ctx context.Context, req CheckoutRequest, userID string) (CheckoutResponse, error) {
	txID := uuid.New()
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			return CheckoutResponse{}, fmt.Errorf("invalid transaction id: %w", err)
		}
		txID = parsed

		exists, err := s.txRepo.ExistsByID(ctx, txID)
		if err != nil {
			return CheckoutResponse{}, fmt.Errorf("failed to check transaction id: %w", err)
		}
		if exists {
			return CheckoutResponse{}, ErrDuplicateCheckout
		}
	}

	region, err := s.catalog.Resolve(req.Country, req.FreeZone)
	if err != nil {
		return CheckoutResponse{}, fmt.Errorf("failed to resolve region: %w", err)
	}

	var customerID *uuid.UUID
	tier := model.TierStandard
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return CheckoutResponse{}, fmt.Errorf("invalid customer id: %w", err)
		}
		customerID = &cid
		if account, err := s.loyaltySvc.GetAccount(ctx, req.CustomerID); err == nil {
			tier = account.Tier
		}
	}

	breakdown := ComputePrice(s.catalog, region, req.Lines, tier, req.PaymentMethod)
	if len(breakdown.Lines) == 0 {
		return CheckoutResponse{}, ErrEmptyOrder
	}

	// The gift is only previewed here; spending it waits for the settlement
	// transaction so a declined payment cannot consume prepaid value.
	giftReq := RedeemEGiftRequest{
		Code:       req.EGiftCode,
		Country:    region.Country,
		OrderTotal: breakdown.Total.StringFixed(breakdown.MinorUnits),
	}
	discount := decimal.Zero
	if req.EGiftCode != "" {
		preview, err := s.egiftSvc.Preview(ctx, giftReq)
		if err != nil {
			return CheckoutResponse{}, fmt.Errorf("e-gift not redeemable: %w", err)
		}
		discount, err = decimal.NewFromString(preview.DiscountApplied)
		if err != nil {
			return CheckoutResponse{}, fmt.Errorf("invalid e-gift discount: %w", err)
		}
	}

	chargeable := breakdown.Total.Sub(discount)
	if chargeable.IsNegative() {
		chargeable = decimal.Zero
	}

	providerRef := ""
	if chargeable.IsPositive() && (req.PaymentMethod == model.PaymentCard || req.PaymentMethod == model.PaymentWallet) {
		result, err := s.provider.Capture(ctx, payment.CaptureRequest{
			AmountMinor: chargeable.Shift(breakdown.MinorUnits).IntPart(),
			Currency:    breakdown.Currency,
			Reference:   txID.String(),
			Method:      req.PaymentMethod,
		})
		if err != nil {
			return CheckoutResponse{}, fmt.Errorf("payment capture failed: %w", err)
		}
		if result.Status != payment.StatusApproved {
			return CheckoutResponse{}, ErrPaymentDeclined
		}
		providerRef = result.ProviderRef
	}

	var award PointsAward
	points := int64(0)
	if customerID != nil {
		flavors := make([]*catalog.Flavor, 0, len(breakdown.Lines))
		for _, l := range breakdown.Lines {
			if f, err := s.catalog.Flavor(l.FlavorCode); err == nil {
				flavors = append(flavors, f)
			}
		}
		award = AwardPoints(tier, breakdown.TotalGrams(), flavors)
		points = award.FinalPoints
	}

	tx := model.PosTransaction{
		ID:                  txID,
		StoreID:             req.StoreID,
		DeviceID:            req.DeviceID,
		RegionCode:          breakdown.RegionCode,
		Currency:            breakdown.Currency,
		Subtotal:            breakdown.Subtotal,
		TaxAmount:           breakdown.TaxAmount,
		DiscountAmount:      discount,
		Total:               chargeable,
		PaymentMethod:       req.PaymentMethod,
		PaymentProviderRef:  providerRef,
		LoyaltyPointsEarned: points,
		CustomerID:          customerID,
		Status:              model.TxStatusSettled,
		CreatedAt:           s.now(),
	}
	for _, l := range breakdown.Lines {
		tx.Lines = append(tx.Lines, model.TransactionLine{
			TransactionID: txID,
			FlavorCode:    l.FlavorCode,
			Grams:         l.Grams,
			UnitPrice:     l.UnitPrice,
			LineTotal:     l.LineTotal,
		})
	}

	// Gift spend, points, and the transaction row commit or roll back as one.
	var accrual *AccrualResult
	if err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.EGiftCode != "" {
			if _, err := s.egiftSvc.Redeem(txCtx, giftReq, &txID); err != nil {
				return fmt.Errorf("e-gift redemption failed: %w", err)
			}
		}
		if customerID != nil {
			res, err := s.loyaltySvc.Accrue(txCtx, *customerID, award)
			if err != nil {
				return fmt.Errorf("loyalty accrual failed: %w", err)
			}
			accrual = res
		}
		return s.txRepo.Create(txCtx, &tx)
	}); err != nil {
		return CheckoutResponse{}, fmt.Errorf("failed to settle transaction: %w", err)
	}

	// Stock keeping must not block the sale.
	if s.inventorySvc != nil {
		if err := s.inventorySvc.DeductForSale(ctx, req.StoreID, txID, tx.Lines); err != nil {
			log.Printf("checkout: stock deduction failed for %s: %v", txID, err)
		}
	}

	writeAudit(ctx, s.auditRepo, userID, model.ActionCheckout, txID.String(), req.StoreID, map[string]string{
		"total":    tx.Total.StringFixed(4),
		"currency": tx.Currency,
		"method":   tx.PaymentMethod,
	})

	s.broadcast(settledEvent{
		Event:   "transaction_settled",
		TxID:    txID.String(),
		StoreID: req.StoreID,
		Total:   tx.Total.StringFixed(breakdown.MinorUnits),
	})

	return CheckoutResponse{
		TransactionID:      txID.String(),
		RegionCode:         breakdown.RegionCode,
		Currency:           breakdown.Currency,
		Subtotal:           breakdown.Subtotal.StringFixed(breakdown.MinorUnits),
		TaxAmount:          breakdown.TaxAmount.StringFixed(4),
		DiscountAmount:     discount.StringFixed(breakdown.MinorUnits),
		CardSurcharge:      breakdown.CardSurcharge.StringFixed(breakdown.MinorUnits),
		Total:              chargeable.StringFixed(breakdown.MinorUnits),
		PaymentMethod:      req.PaymentMethod,
		PaymentProviderRef: providerRef,
		Loyalty:            accrual,
		Rejected:           breakdown.Rejected,
		Snapshot:           snapshotFromTransaction(tx),
	}, nil
}

// Submit settles one replayed offline transaction. It is the sync target for
// buffered devices and must stay idempotent by transaction id.
func (s *checkoutService) Submit(ctx context.Context, offline *model.OfflineTransaction) (bool, error) {
	var snapshot TransactionSnapshot
	if err := json.Unmarshal([]byte(offline.Payload), &snapshot); err != nil {
		return false, fmt.Errorf("unreadable snapshot payload: %w", err)
	}
	if snapshot.ID == "" {
		snapshot.ID = offline.ID.String()
	}
	return s.settleSnapshot(ctx, snapshot)
}

func (s *checkoutService) Ingest(ctx context.Context, req SyncIngestRequest) ([]SyncIngestResult, error) {
	results := make([]SyncIngestResult, 0, len(req.Transactions))
	for _, snapshot := range req.Transactions {
		duplicate, err := s.settleSnapshot(ctx, snapshot)
		switch {
		case err != nil:
			results = append(results, SyncIngestResult{ID: snapshot.ID, Status: IngestRejected, Reason: err.Error()})
		case duplicate:
			results = append(results, SyncIngestResult{ID: snapshot.ID, Status: IngestDuplicate})
		default:
			results = append(results, SyncIngestResult{ID: snapshot.ID, Status: IngestSettled})
		}
	}
	return results, nil
}

func (s *checkoutService) settleSnapshot(ctx context.Context, snapshot TransactionSnapshot) (duplicate bool, err error) {
	tx, err := transactionFromSnapshot(snapshot)
	if err != nil {
		return false, err
	}

	exists, err := s.txRepo.ExistsByID(ctx, tx.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	if exists {
		return true, nil
	}

	if err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.txRepo.Create(txCtx, tx)
	}); err != nil {
		return false, fmt.Errorf("failed to settle replayed transaction: %w", err)
	}

	// The register already computed points while offline; honor its figure.
	if tx.CustomerID != nil && tx.LoyaltyPointsEarned > 0 {
		award := PointsAward{
			BasePoints:  tx.LoyaltyPointsEarned,
			Multiplier:  decimal.NewFromInt(1),
			BoostFactor: decimal.Zero,
			FinalPoints: tx.LoyaltyPointsEarned,
		}
		if _, err := s.loyaltySvc.Accrue(ctx, *tx.CustomerID, award); err != nil {
			log.Printf("sync: loyalty accrual failed for %s: %v", tx.ID, err)
		}
	}

	if s.inventorySvc != nil {
		if err := s.inventorySvc.DeductForSale(ctx, tx.StoreID, tx.ID, tx.Lines); err != nil {
			log.Printf("sync: stock deduction failed for %s: %v", tx.ID, err)
		}
	}

	return false, nil
}

func (s *checkoutService) GetTransaction(ctx context.Context, id string) (TransactionResponse, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return TransactionResponse{}, fmt.Errorf("invalid transaction id: %w", err)
	}

	tx, err := s.txRepo.FindByID(ctx, txID)
	if err != nil {
		return TransactionResponse{}, fmt.Errorf("transaction not found: %w", err)
	}
	return toTransactionResponse(*tx), nil
}

func (s *checkoutService) ListTransactions(ctx context.Context, storeID string, page, limit int) ([]TransactionResponse, int64, error) {
	txs, total, err := s.txRepo.List(ctx, storeID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		res = append(res, toTransactionResponse(tx))
	}
	return res, total, nil
}

func (s *checkoutService) broadcast(event settledEvent) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

// --- Converters ---

func snapshotFromTransaction(tx model.PosTransaction) TransactionSnapshot {
	snapshot := TransactionSnapshot{
		ID:                  tx.ID.String(),
		StoreID:             tx.StoreID,
		DeviceID:            tx.DeviceID,
		RegionCode:          tx.RegionCode,
		Currency:            tx.Currency,
		Subtotal:            tx.Subtotal.StringFixed(4),
		TaxAmount:           tx.TaxAmount.StringFixed(4),
		DiscountAmount:      tx.DiscountAmount.StringFixed(4),
		Total:               tx.Total.StringFixed(4),
		PaymentMethod:       tx.PaymentMethod,
		PaymentProviderRef:  tx.PaymentProviderRef,
		LoyaltyPointsEarned: tx.LoyaltyPointsEarned,
		CreatedAt:           tx.CreatedAt,
	}
	if tx.CustomerID != nil {
		snapshot.CustomerID = tx.CustomerID.String()
	}
	for _, l := range tx.Lines {
		snapshot.Lines = append(snapshot.Lines, SnapshotLine{
			FlavorCode: l.FlavorCode,
			Grams:      l.Grams,
			UnitPrice:  l.UnitPrice.StringFixed(4),
			LineTotal:  l.LineTotal.StringFixed(4),
		})
	}
	return snapshot
}

func transactionFromSnapshot(snapshot TransactionSnapshot) (*model.PosTransaction, error) {
	txID, err := uuid.Parse(snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot transaction id: %w", err)
	}

	parseMoney := func(field, value string) (decimal.Decimal, error) {
		if value == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid snapshot %s: %w", field, err)
		}
		return d, nil
	}

	subtotal, err := parseMoney("subtotal", snapshot.Subtotal)
	if err != nil {
		return nil, err
	}
	taxAmount, err := parseMoney("tax_amount", snapshot.TaxAmount)
	if err != nil {
		return nil, err
	}
	discount, err := parseMoney("discount_amount", snapshot.DiscountAmount)
	if err != nil {
		return nil, err
	}
	total, err := parseMoney("total", snapshot.Total)
	if err != nil {
		return nil, err
	}

	tx := model.PosTransaction{
		ID:                  txID,
		StoreID:             snapshot.StoreID,
		DeviceID:            snapshot.DeviceID,
		RegionCode:          snapshot.RegionCode,
		Currency:            snapshot.Currency,
		Subtotal:            subtotal,
		TaxAmount:           taxAmount,
		DiscountAmount:      discount,
		Total:               total,
		PaymentMethod:       snapshot.PaymentMethod,
		PaymentProviderRef:  snapshot.PaymentProviderRef,
		LoyaltyPointsEarned: snapshot.LoyaltyPointsEarned,
		Status:              model.TxStatusSettled,
		CreatedAt:           snapshot.CreatedAt,
	}

	if snapshot.CustomerID != "" {
		cid, err := uuid.Parse(snapshot.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot customer id: %w", err)
		}
		tx.CustomerID = &cid
	}

	if len(snapshot.Lines) == 0 {
		return nil, errors.New("snapshot carries no lines")
	}
	for _, l := range snapshot.Lines {
		unitPrice, err := parseMoney("unit_price", l.UnitPrice)
		if err != nil {
			return nil, err
		}
		lineTotal, err := parseMoney("line_total", l.LineTotal)
		if err != nil {
			return nil, err
		}
		tx.Lines = append(tx.Lines, model.TransactionLine{
			TransactionID: txID,
			FlavorCode:    l.FlavorCode,
			Grams:         l.Grams,
			UnitPrice:     unitPrice,
			LineTotal:     lineTotal,
		})
	}

	return &tx, nil
}

func toTransactionResponse(tx model.PosTransaction) TransactionResponse {
	lines := make([]SnapshotLine, 0, len(tx.Lines))
	for _, l := range tx.Lines {
		lines = append(lines, SnapshotLine{
			FlavorCode: l.FlavorCode,
			Grams:      l.Grams,
			UnitPrice:  l.UnitPrice.StringFixed(4),
			LineTotal:  l.LineTotal.StringFixed(4),
		})
	}

	return TransactionResponse{
		ID:                  tx.ID.String(),
		StoreID:             tx.StoreID,
		DeviceID:            tx.DeviceID,
		RegionCode:          tx.RegionCode,
		Currency:            tx.Currency,
		Subtotal:            tx.Subtotal.StringFixed(4),
		TaxAmount:           tx.TaxAmount.StringFixed(4),
		DiscountAmount:      tx.DiscountAmount.StringFixed(4),
		Total:               tx.Total.StringFixed(4),
		PaymentMethod:       tx.PaymentMethod,
		LoyaltyPointsEarned: tx.LoyaltyPointsEarned,
		Status:              tx.Status,
		Lines:               lines,
		CreatedAt:           tx.CreatedAt.Format(time.RFC3339),
	}
}
