package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

// Signal thresholds and weights for the shrinkage heuristic.
const (
	voidRateThreshold    = 0.05
	freeProductThreshold = 0.02

	weightSignalCap    = 30.0
	voidSignalWeight   = 100.0
	freeSignalWeight   = 150.0
)

// RiskResult is the outcome of one heuristic scoring pass. It is advisory:
// it feeds human review and never blocks a shift or cashier automatically.
type RiskResult struct {
	Score          int      `json:"score"` // 0-100
	Patterns       []string `json:"patterns"`
	Recommendation string   `json:"recommendation"`
}

// AnalyzeRisk scores weight/void/free-product signals for a shift or cashier.
// Weights and thresholds come from loss-prevention calibration across stores.
func AnalyzeRisk(scaleWeightG, chargedWeightG int64, voidRate, freeProductRate float64) RiskResult {
	score := 0.0
	patterns := make([]string, 0, 3)

	if scaleWeightG > 0 && scaleWeightG != chargedWeightG {
		discrepancy := math.Abs(float64(scaleWeightG-chargedWeightG)) / float64(scaleWeightG)
		if discrepancy > 1 {
			discrepancy = 1
		}
		score += discrepancy * weightSignalCap
		patterns = append(patterns, model.PatternWeightDiscrepancy)
	}

	if voidRate > voidRateThreshold {
		score += voidRate * voidSignalWeight
		patterns = append(patterns, model.PatternHighVoidRate)
	}

	if freeProductRate > freeProductThreshold {
		score += freeProductRate * freeSignalWeight
		patterns = append(patterns, model.PatternHighFreeProduct)
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	rounded := int(math.Round(score))

	recommendation := model.RiskClear
	switch {
	case rounded > 50:
		recommendation = model.RiskAlert
	case rounded > 30:
		recommendation = model.RiskInvestigate
	case rounded > 15:
		recommendation = model.RiskMonitor
	}

	return RiskResult{Score: rounded, Patterns: patterns, Recommendation: recommendation}
}

// --- DTOs ---

type RiskAnalysisRequest struct {
	StoreID         string  `json:"store_id" binding:"required"`
	ShiftRef        string  `json:"shift_ref"`
	ScaleWeightG    int64   `json:"scale_weight_g" binding:"required,gt=0"`
	ChargedWeightG  int64   `json:"charged_weight_g" binding:"required,gte=0"`
	VoidRate        float64 `json:"void_rate" binding:"gte=0,lte=1"`
	FreeProductRate float64 `json:"free_product_rate" binding:"gte=0,lte=1"`
}

type RiskAssessmentResponse struct {
	ID             string   `json:"id"`
	StoreID        string   `json:"store_id"`
	ShiftRef       string   `json:"shift_ref"`
	Score          int      `json:"score"`
	Patterns       []string `json:"patterns"`
	Recommendation string   `json:"recommendation"`
	CreatedAt      string   `json:"created_at"`
}

// --- Interface ---

type RiskService interface {
	Assess(ctx context.Context, req RiskAnalysisRequest, userID string) (RiskAssessmentResponse, error)
	ListAssessments(ctx context.Context, storeID string, page, limit int) ([]RiskAssessmentResponse, int64, error)
}

type riskService struct {
	repo      repository.RiskRepository
	auditRepo repository.AuditRepository
}

func NewRiskService(repo repository.RiskRepository, auditRepo repository.AuditRepository) RiskService {
	return &riskService{repo: repo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *riskService) Assess(ctx context.Context, req RiskAnalysisRequest, userID string) (RiskAssessmentResponse, error) {
	result := AnalyzeRisk(req.ScaleWeightG, req.ChargedWeightG, req.VoidRate, req.FreeProductRate)

	patternsJSON, _ := json.Marshal(result.Patterns)
	assessment := model.RiskAssessment{
		StoreID:         req.StoreID,
		ShiftRef:        req.ShiftRef,
		Score:           result.Score,
		Patterns:        string(patternsJSON),
		Recommendation:  result.Recommendation,
		ScaleWeightG:    req.ScaleWeightG,
		ChargedWeightG:  req.ChargedWeightG,
		VoidRate:        req.VoidRate,
		FreeProductRate: req.FreeProductRate,
	}

	if err := s.repo.Create(ctx, &assessment); err != nil {
		return RiskAssessmentResponse{}, fmt.Errorf("failed to store risk assessment: %w", err)
	}

	writeAudit(ctx, s.auditRepo, userID, model.ActionRiskAssessment, assessment.ID.String(), req.StoreID, result)

	return toRiskResponse(assessment), nil
}

func (s *riskService) ListAssessments(ctx context.Context, storeID string, page, limit int) ([]RiskAssessmentResponse, int64, error) {
	assessments, total, err := s.repo.List(ctx, storeID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]RiskAssessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		res = append(res, toRiskResponse(a))
	}
	return res, total, nil
}

func toRiskResponse(a model.RiskAssessment) RiskAssessmentResponse {
	var patterns []string
	_ = json.Unmarshal([]byte(a.Patterns), &patterns)

	createdAt := ""
	if !a.CreatedAt.IsZero() {
		createdAt = a.CreatedAt.Format(time.RFC3339)
	}

	return RiskAssessmentResponse{
		ID:             a.ID.String(),
		StoreID:        a.StoreID,
		ShiftRef:       a.ShiftRef,
		Score:          a.Score,
		Patterns:       patterns,
		Recommendation: a.Recommendation,
		CreatedAt:      createdAt,
	}
}
