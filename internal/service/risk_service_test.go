package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRiskRepo struct {
	assessments []model.RiskAssessment
}

func (r *fakeRiskRepo) Create(_ context.Context, assessment *model.RiskAssessment) error {
	assessment.ID = uuid.New()
	r.assessments = append(r.assessments, *assessment)
	return nil
}

func (r *fakeRiskRepo) List(_ context.Context, storeID string, _, _ int) ([]model.RiskAssessment, int64, error) {
	var out []model.RiskAssessment
	for _, a := range r.assessments {
		if storeID == "" || a.StoreID == storeID {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func TestAnalyzeRisk_CleanShift(t *testing.T) {
	result := AnalyzeRisk(10_000, 10_000, 0.01, 0.005)

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.Patterns)
	assert.Equal(t, model.RiskClear, result.Recommendation)
}

func TestAnalyzeRisk_WeightDiscrepancy(t *testing.T) {
	// 10% of scale weight never charged: 0.1 * 30 = 3 points.
	result := AnalyzeRisk(10_000, 9_000, 0, 0)

	assert.Equal(t, 3, result.Score)
	assert.Contains(t, result.Patterns, model.PatternWeightDiscrepancy)
}

func TestAnalyzeRisk_VoidRateBelowThresholdIgnored(t *testing.T) {
	result := AnalyzeRisk(10_000, 10_000, voidRateThreshold, 0)

	assert.Equal(t, 0, result.Score)
	assert.NotContains(t, result.Patterns, model.PatternHighVoidRate)
}

func TestAnalyzeRisk_CombinedSignals(t *testing.T) {
	// 10% weight gap (3) + 10% voids (10) + 5% free product (7.5) = 21.
	result := AnalyzeRisk(10_000, 9_000, 0.10, 0.05)

	assert.Equal(t, 21, result.Score)
	assert.ElementsMatch(t, []string{
		model.PatternWeightDiscrepancy,
		model.PatternHighVoidRate,
		model.PatternHighFreeProduct,
	}, result.Patterns)
	assert.Equal(t, model.RiskMonitor, result.Recommendation)
}

func TestAnalyzeRisk_ScoreClampedAt100(t *testing.T) {
	result := AnalyzeRisk(10_000, 0, 1.0, 1.0)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, model.RiskAlert, result.Recommendation)
}

func TestAnalyzeRisk_RecommendationBands(t *testing.T) {
	// 16% voids: 16 points, MONITOR band.
	monitor := AnalyzeRisk(0, 0, 0.16, 0)
	assert.Equal(t, model.RiskMonitor, monitor.Recommendation)

	// 35% voids: 35 points, INVESTIGATE band.
	investigate := AnalyzeRisk(0, 0, 0.35, 0)
	assert.Equal(t, model.RiskInvestigate, investigate.Recommendation)

	// 60% voids: 60 points, ALERT band.
	alert := AnalyzeRisk(0, 0, 0.60, 0)
	assert.Equal(t, model.RiskAlert, alert.Recommendation)
}

func TestAssess_PersistsAndRoundTripsPatterns(t *testing.T) {
	repo := &fakeRiskRepo{}
	svc := NewRiskService(repo, nil)

	res, err := svc.Assess(context.Background(), RiskAnalysisRequest{
		StoreID:      "ST-01",
		ShiftRef:     "2026-03-01-AM",
		ScaleWeightG: 10_000, ChargedWeightG: 9_000,
		VoidRate: 0.10, FreeProductRate: 0.05,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 21, res.Score)
	assert.Contains(t, res.Patterns, model.PatternHighVoidRate)
	require.Len(t, repo.assessments, 1)

	listed, total, err := svc.ListAssessments(context.Background(), "ST-01", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, listed, 1)
	assert.Equal(t, res.Score, listed[0].Score)
	assert.Equal(t, res.Patterns, listed[0].Patterns)
}
