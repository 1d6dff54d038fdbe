// Package rates maps elapsed session time to points and money.
package rates

import (
	"fmt"
	"math"
	"time"

	"github.com/balkashynov/listeningroom/internal/models"
)

const (
	// StandardPointsPerMinute is the accrual rate before a continue decision
	StandardPointsPerMinute = 40
	// PremiumPointsPerMinute is 1.5x standard
	PremiumPointsPerMinute = 60
	// CentsPerPoint converts points to money: 100 points = $10.00
	CentsPerPoint = 10
	// AutoTerminateAfter is how long a standard session runs before a decision is required
	AutoTerminateAfter = 300 * time.Second
)

// PointsPerSecond returns the accrual rate for a billing mode
func PointsPerSecond(mode string) float64 {
	if mode == models.BillingPremium {
		return float64(PremiumPointsPerMinute) / 60
	}
	return float64(StandardPointsPerMinute) / 60
}

// Points returns the rounded points for time spent at each rate.
// Accrual is continuous; rounding happens once on the sum.
func Points(standard, premium time.Duration) int64 {
	if standard < 0 {
		standard = 0
	}
	if premium < 0 {
		premium = 0
	}
	raw := standard.Seconds()*PointsPerSecond(models.BillingStandard) +
		premium.Seconds()*PointsPerSecond(models.BillingPremium)
	return int64(math.Round(raw))
}

// AmountCents converts points to cents
func AmountCents(points int64) int64 {
	return points * CentsPerPoint
}

// Dollars renders cents as a dollar amount
func Dollars(cents int64) float64 {
	return float64(cents) / 100
}

// ShouldAutoTerminate reports whether a session needs a continue/end decision
func ShouldAutoTerminate(mode string, elapsed time.Duration) bool {
	return mode == models.BillingStandard && elapsed >= AutoTerminateAfter
}

// ParseMode validates a billing mode string
func ParseMode(mode string) (string, error) {
	switch mode {
	case models.BillingStandard, models.BillingPremium:
		return mode, nil
	case "":
		return models.BillingStandard, nil
	default:
		return "", fmt.Errorf("unknown billing mode %q", mode)
	}
}
