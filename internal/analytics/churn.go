package analytics

import (
	"strings"

	"github.com/edvin/saaslens/internal/model"
)

type ChurnResult struct {
	TotalSubscriptions    int     `json:"totalSubscriptions"`
	CanceledSubscriptions int     `json:"canceledSubscriptions"`
	ChurnRate             float64 `json:"churnRate"`
}

// ChurnRate counts subscriptions that started inside the period, optionally
// restricted to one product name, and the share of them that are canceled.
func ChurnRate(subs []model.Subscription, period Period, product string) ChurnResult {
	var res ChurnResult
	for _, s := range subs {
		if !period.Contains(s.StartDate) {
			continue
		}
		if product != "" && !strings.EqualFold(s.ProductName(), product) {
			continue
		}
		res.TotalSubscriptions++
		if s.Status == model.StatusCanceled {
			res.CanceledSubscriptions++
		}
	}
	res.ChurnRate = percent(float64(res.CanceledSubscriptions), float64(res.TotalSubscriptions))
	return res
}
