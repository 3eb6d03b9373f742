// Package chargeback provides tag-based cost allocation and showback
// reporting over normalized cost entries, grounded on the teacher's
// internal/chargeback package: the same direct/allocated/untagged-pool
// split, regrouped onto model.NormalizedCostEntry's CostAllocation and
// priced in exact-decimal money.Money instead of float64.
package chargeback

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

// AllocatorConfig holds configuration for cost allocation.
type AllocatorConfig struct {
	UntaggedPool    string
	SharedCostSplit []SharedCostRule
	Currency        string
}

// SharedCostRule defines how to split shared (untagged) costs.
type SharedCostRule struct {
	CostCenter string
	Percentage float64
}

// Allocation represents allocated costs for one cost center.
type Allocation struct {
	CostCenter     string
	TotalCost      money.Money
	DirectCost     money.Money
	AllocatedCost  money.Money
	ByProvider     map[model.Provider]money.Money
	ByResourceType map[model.ResourceType]money.Money
	Entries        []model.NormalizedCostEntry
}

// Allocator performs tag-based cost allocation over CostAllocation.CostCenter.
type Allocator struct {
	config AllocatorConfig
}

// NewAllocator creates a new cost allocator.
func NewAllocator(cfg AllocatorConfig) *Allocator {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Allocator{config: cfg}
}

func (a *Allocator) newAllocation(costCenter string) *Allocation {
	return &Allocation{
		CostCenter:     costCenter,
		TotalCost:      money.Zero(a.config.Currency),
		DirectCost:     money.Zero(a.config.Currency),
		AllocatedCost:  money.Zero(a.config.Currency),
		ByProvider:     make(map[model.Provider]money.Money),
		ByResourceType: make(map[model.ResourceType]money.Money),
	}
}

func (a *Allocator) addDimension(dims map[model.Provider]money.Money, key model.Provider, amount money.Money) {
	if existing, ok := dims[key]; ok {
		dims[key] = existing.Add(amount)
		return
	}
	dims[key] = amount
}

func (a *Allocator) addResourceTypeDimension(dims map[model.ResourceType]money.Money, key model.ResourceType, amount money.Money) {
	if existing, ok := dims[key]; ok {
		dims[key] = existing.Add(amount)
		return
	}
	dims[key] = amount
}

// Allocate distributes costs to cost centers based on CostAllocation.CostCenter.
func (a *Allocator) Allocate(entries []model.NormalizedCostEntry) map[string]*Allocation {
	allocations := make(map[string]*Allocation)
	var untagged []model.NormalizedCostEntry

	for _, e := range entries {
		costCenter := e.Allocation.CostCenter
		if costCenter == "" {
			untagged = append(untagged, e)
			continue
		}

		alloc, exists := allocations[costCenter]
		if !exists {
			alloc = a.newAllocation(costCenter)
			allocations[costCenter] = alloc
		}

		total := e.TotalCost()
		alloc.TotalCost = alloc.TotalCost.Add(total)
		alloc.DirectCost = alloc.DirectCost.Add(total)
		a.addDimension(alloc.ByProvider, e.Resource.Provider, total)
		a.addResourceTypeDimension(alloc.ByResourceType, e.Resource.CanonicalType, total)
		alloc.Entries = append(alloc.Entries, e)
	}

	a.allocateUntagged(allocations, untagged)
	return allocations
}

// allocateUntagged distributes untagged costs per SharedCostSplit, the
// untagged pool, or proportionally to already-allocated spend.
func (a *Allocator) allocateUntagged(allocations map[string]*Allocation, untagged []model.NormalizedCostEntry) {
	if len(untagged) == 0 {
		return
	}

	totalUntagged := money.Zero(a.config.Currency)
	for _, e := range untagged {
		totalUntagged = totalUntagged.Add(e.TotalCost())
	}

	switch {
	case len(a.config.SharedCostSplit) > 0:
		remainingPct := 100.0
		for _, rule := range a.config.SharedCostSplit {
			alloc, exists := allocations[rule.CostCenter]
			if !exists {
				alloc = a.newAllocation(rule.CostCenter)
				allocations[rule.CostCenter] = alloc
			}
			share := totalUntagged.Mul(percentFraction(rule.Percentage))
			alloc.AllocatedCost = alloc.AllocatedCost.Add(share)
			alloc.TotalCost = alloc.TotalCost.Add(share)
			remainingPct -= rule.Percentage
		}
		if remainingPct > 0 {
			a.distributeProportionally(allocations, totalUntagged.Mul(percentFraction(remainingPct)))
		}

	case a.config.UntaggedPool != "":
		alloc, exists := allocations[a.config.UntaggedPool]
		if !exists {
			alloc = a.newAllocation(a.config.UntaggedPool)
			allocations[a.config.UntaggedPool] = alloc
		}
		alloc.TotalCost = alloc.TotalCost.Add(totalUntagged)
		alloc.AllocatedCost = alloc.AllocatedCost.Add(totalUntagged)
		for _, e := range untagged {
			total := e.TotalCost()
			a.addDimension(alloc.ByProvider, e.Resource.Provider, total)
			a.addResourceTypeDimension(alloc.ByResourceType, e.Resource.CanonicalType, total)
		}

	default:
		a.distributeProportionally(allocations, totalUntagged)
	}
}

// distributeProportionally spreads amount across allocations weighted by
// each one's existing direct cost.
func (a *Allocator) distributeProportionally(allocations map[string]*Allocation, amount money.Money) {
	totalDirect := decimal.Zero
	for _, alloc := range allocations {
		totalDirect = totalDirect.Add(alloc.DirectCost.Amount)
	}
	if totalDirect.IsZero() {
		return
	}

	for _, alloc := range allocations {
		proportion := alloc.DirectCost.Amount.Div(totalDirect)
		allocated := amount.Mul(proportion)
		alloc.AllocatedCost = alloc.AllocatedCost.Add(allocated)
		alloc.TotalCost = alloc.TotalCost.Add(allocated)
	}
}

func percentFraction(pct float64) decimal.Decimal {
	return decimal.NewFromFloat(pct / 100.0)
}

// Report holds a generated chargeback report for one billing period.
type Report struct {
	Period      string
	Allocations []*Allocation
	TotalCost   money.Money
	Generated   time.Time
}

// GenerateReport creates a chargeback report from allocations, sorted by
// total cost descending.
func GenerateReport(allocations map[string]*Allocation, period, currency string) *Report {
	report := &Report{Period: period, Generated: time.Now(), TotalCost: money.Zero(currency)}
	for _, alloc := range allocations {
		report.Allocations = append(report.Allocations, alloc)
		report.TotalCost = report.TotalCost.Add(alloc.TotalCost)
	}
	sort.Slice(report.Allocations, func(i, j int) bool {
		return report.Allocations[i].TotalCost.Cmp(report.Allocations[j].TotalCost) > 0
	})
	return report
}

// SaveCSV saves the report as a CSV file.
func (r *Report) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Cost Center", "Total Cost", "Direct Cost", "Allocated Cost", "AWS", "Azure", "GCP", "% of Total"}
	if err := writer.Write(header); err != nil {
		return err
	}

	total, _ := r.TotalCost.Amount.Float64()
	for _, alloc := range r.Allocations {
		allocTotal, _ := alloc.TotalCost.Amount.Float64()
		pct := 0.0
		if total != 0 {
			pct = (allocTotal / total) * 100
		}
		row := []string{
			alloc.CostCenter,
			alloc.TotalCost.String(),
			alloc.DirectCost.String(),
			alloc.AllocatedCost.String(),
			providerAmount(alloc.ByProvider, model.AWS),
			providerAmount(alloc.ByProvider, model.Azure),
			providerAmount(alloc.ByProvider, model.GCP),
			fmt.Sprintf("%.1f%%", pct),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	totalRow := []string{"TOTAL", r.TotalCost.String(), "", "", "", "", "", "100.0%"}
	return writer.Write(totalRow)
}

func providerAmount(dims map[model.Provider]money.Money, p model.Provider) string {
	if v, ok := dims[p]; ok {
		return v.String()
	}
	return "0"
}
