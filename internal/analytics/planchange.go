package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/edvin/saaslens/internal/model"
)

type ChangeType string

const (
	ChangeUpgrades   ChangeType = "upgrades"
	ChangeDowngrades ChangeType = "downgrades"
	ChangeBoth       ChangeType = "both"
)

// ParseChangeType accepts "upgrades", "downgrades" or "both". An empty string
// means both.
func ParseChangeType(s string) (ChangeType, error) {
	switch ChangeType(s) {
	case "":
		return ChangeBoth, nil
	case ChangeUpgrades, ChangeDowngrades, ChangeBoth:
		return ChangeType(s), nil
	}
	return "", fmt.Errorf("unknown change type %q", s)
}

// recentExampleLimit caps the examples returned per direction.
const recentExampleLimit = 5

type PlanChange struct {
	CustomerID      string    `json:"customerId"`
	Email           string    `json:"email"`
	FromPlan        string    `json:"fromPlan"`
	ToPlan          string    `json:"toPlan"`
	PriceDifference float64   `json:"priceDifference"`
	Date            time.Time `json:"date"`
}

type PlanChangeSet struct {
	Count          int            `json:"count"`
	Paths          map[string]int `json:"paths"`
	RecentExamples []PlanChange   `json:"recentExamples"`
}

type PlanChangeSummary struct {
	TotalUpgrades         int     `json:"totalUpgrades"`
	TotalDowngrades       int     `json:"totalDowngrades"`
	UpgradeDowngradeRatio float64 `json:"upgradeDowngradeRatio"`
}

type PlanChangeResult struct {
	Summary    PlanChangeSummary `json:"summary"`
	Upgrades   *PlanChangeSet    `json:"upgrades,omitempty"`
	Downgrades *PlanChangeSet    `json:"downgrades,omitempty"`
}

// PlanChangeAnalysis walks each customer's subscriptions in start order and
// classifies consecutive pairs by product list price.
func PlanChangeAnalysis(customers []model.Customer, changeType ChangeType) PlanChangeResult {
	var upgrades, downgrades []PlanChange

	for _, c := range customers {
		if len(c.Subscriptions) < 2 {
			continue
		}
		subs := make([]model.Subscription, len(c.Subscriptions))
		copy(subs, c.Subscriptions)
		sort.SliceStable(subs, func(i, j int) bool { return subs[i].StartDate.Before(subs[j].StartDate) })

		for i := 1; i < len(subs); i++ {
			prev, cur := subs[i-1], subs[i]
			if prev.Product == nil || cur.Product == nil {
				continue
			}
			change := PlanChange{
				CustomerID: c.ID,
				Email:      c.Email,
				FromPlan:   prev.Product.Name,
				ToPlan:     cur.Product.Name,
				Date:       cur.StartDate,
			}
			switch {
			case cur.Product.Price > prev.Product.Price:
				change.PriceDifference = cur.Product.Price - prev.Product.Price
				upgrades = append(upgrades, change)
			case cur.Product.Price < prev.Product.Price:
				change.PriceDifference = prev.Product.Price - cur.Product.Price
				downgrades = append(downgrades, change)
			}
		}
	}

	res := PlanChangeResult{
		Summary: PlanChangeSummary{
			TotalUpgrades:   len(upgrades),
			TotalDowngrades: len(downgrades),
		},
	}
	if len(downgrades) > 0 {
		res.Summary.UpgradeDowngradeRatio = float64(len(upgrades)) / float64(len(downgrades))
	}
	if changeType == ChangeUpgrades || changeType == ChangeBoth {
		res.Upgrades = summarizeChanges(upgrades)
	}
	if changeType == ChangeDowngrades || changeType == ChangeBoth {
		res.Downgrades = summarizeChanges(downgrades)
	}
	return res
}

func summarizeChanges(changes []PlanChange) *PlanChangeSet {
	set := &PlanChangeSet{
		Count:          len(changes),
		Paths:          make(map[string]int),
		RecentExamples: []PlanChange{},
	}
	for _, c := range changes {
		set.Paths[c.FromPlan+" → "+c.ToPlan]++
	}

	sorted := make([]PlanChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	if len(sorted) > recentExampleLimit {
		sorted = sorted[:recentExampleLimit]
	}
	set.RecentExamples = append(set.RecentExamples, sorted...)
	return set
}
