package evaluate

import (
	"math"
	"testing"
)

func TestBrierAndLogLossPerfectPredictions(t *testing.T) {
	preds := []Prediction{
		{Predicted: 1, Actual: 1},
		{Predicted: 0, Actual: 0},
	}
	m := Evaluate(preds)

	if m.Brier != 0 {
		t.Errorf("expected Brier score 0 for perfect predictions, got %v", m.Brier)
	}
	if m.LogLoss > 1e-12 {
		t.Errorf("expected near-zero log loss for perfect predictions, got %v", m.LogLoss)
	}
	if m.Accuracy != 1 {
		t.Errorf("expected accuracy 1, got %v", m.Accuracy)
	}
}

func TestLogLossClamped(t *testing.T) {
	preds := []Prediction{{Predicted: 0, Actual: 1}}
	m := Evaluate(preds)

	if math.IsInf(m.LogLoss, 0) || math.IsNaN(m.LogLoss) {
		t.Errorf("expected clamped, finite log loss, got %v", m.LogLoss)
	}
}

func TestAccuracyExcludesTies(t *testing.T) {
	preds := []Prediction{
		{Predicted: 1, Actual: 1},
		{Predicted: 0.5, Actual: 0.5},
	}
	m := Evaluate(preds)
	if m.Accuracy != 1 {
		t.Errorf("expected ties excluded from accuracy denominator, got %v over n=%d", m.Accuracy, m.N)
	}
}

func TestCalibrationBinsReportCountsAndError(t *testing.T) {
	preds := []Prediction{
		{Predicted: 0.12, Actual: 1},
		{Predicted: 0.14, Actual: 0},
		{Predicted: 0.82, Actual: 1},
	}
	m := Evaluate(preds)

	var total int
	for _, b := range m.Bins {
		total += b.Count
		if b.AbsoluteError < 0 {
			t.Errorf("absolute error should never be negative: %+v", b)
		}
	}
	if total != len(preds) {
		t.Errorf("expected bins to account for every prediction, got %d of %d", total, len(preds))
	}
}
