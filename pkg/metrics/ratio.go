package metrics

import (
	"fmt"
	"math"

	"github.com/ratiobudget/ratiobudget/pkg/budget"
)

const (
	StatusOnTrack    = "On Track"
	StatusCaution    = "Caution"
	StatusOverBudget = "Over Budget"
)

type RatioCheckResult struct {
	Total    float64 `json:"total"`
	Balanced bool    `json:"balanced"`
	Message  string  `json:"message"`
}

// RatioCheck reports whether the ratio components add up to 100. An
// unbalanced ratio is a warning only; targets are still computed from it.
func RatioCheck(ratio budget.Ratio) RatioCheckResult {
	total := ratio.Total()
	if math.Abs(total-100) < 1e-9 {
		return RatioCheckResult{Total: 100, Balanced: true, Message: "Total = 100%"}
	}
	diff := 100 - total
	direction := "more"
	if diff < 0 {
		direction = "less"
	}
	return RatioCheckResult{
		Total:    total,
		Balanced: false,
		Message:  fmt.Sprintf("Total: %s%% (Need: %s%% %s)", formatPercent(total), formatPercent(math.Abs(diff)), direction),
	}
}

// UtilizationStatus grades a spending percentage against its limit.
func UtilizationStatus(percent int) string {
	switch {
	case percent <= 50:
		return StatusOnTrack
	case percent <= 90:
		return StatusCaution
	default:
		return StatusOverBudget
	}
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*100)/100)
}
