// Package gcp implements the GCP provider capability adapter
// (providers.Adapter), grounded on the teacher's internal/providers/gcp/cost.go
// (billing.BudgetClient wiring, Workload Identity Federation option) and
// internal/providers/gcp.go (GCPConfig shape, BigQuery-export cost-data note)
// — both now removed as simpler duplicates of this consolidated adapter.
//
// GCP has no direct cost API comparable to AWS Cost Explorer or Azure Cost
// Management: the documented integration is a BigQuery billing export
// (cloud.google.com/go/bigquery), which this adapter's FetchRawCostRecords
// queries. Catalog/pricing lookups use the Cloud Billing Catalog API
// (cloud.google.com/go/billing/apiv1's CloudCatalogClient), already present
// in go.mod for the budgets client, so no new dependency is needed.
package gcp

import (
	"context"
	"fmt"
	"time"

	billingcatalog "cloud.google.com/go/billing/apiv1"
	"cloud.google.com/go/billing/apiv1/billingpb"
	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
	"github.com/lvonguyen/costintel/internal/providers"
)

// Config holds GCP-specific adapter configuration.
type Config struct {
	ProjectID      string
	BillingAccount string
	Dataset        string
	WIFConfigPath  string
}

// Adapter implements providers.Adapter for GCP.
type Adapter struct {
	catalog *billingcatalog.CloudCatalogClient
	bq      *bigquery.Client
	config  Config
	pool    *providers.Pool
}

// New constructs a GCP Adapter, authenticating via Workload Identity
// Federation when WIFConfigPath is set (preserved from the teacher's
// NewCostProvider), falling back to ambient credentials otherwise.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	var opts []option.ClientOption
	if cfg.WIFConfigPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.WIFConfigPath))
	}

	catalog, err := billingcatalog.NewCloudCatalogClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcp adapter: create catalog client: %w", err)
	}

	bq, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcp adapter: create bigquery client: %w", err)
	}

	return &Adapter{catalog: catalog, bq: bq, config: cfg, pool: providers.NewPool(8)}, nil
}

func (a *Adapter) Name() model.Provider { return model.GCP }

// FetchRawCostRecords queries the configured BigQuery billing export dataset
// for [start, end), per the teacher's documented query shape (now executed
// rather than left as a comment).
func (a *Adapter) FetchRawCostRecords(ctx context.Context, start, end time.Time) ([]model.RawCostRecord, error) {
	query := a.bq.Query(fmt.Sprintf(`
		SELECT
		  service.description AS service,
		  project.id AS project_id,
		  location.region AS region,
		  SUM(cost) AS cost,
		  currency
		FROM %s
		WHERE DATE(usage_start_time) BETWEEN @start AND @end
		GROUP BY 1, 2, 3, 5
	`, a.config.Dataset))
	query.Parameters = []bigquery.QueryParameter{
		{Name: "start", Value: start.Format("2006-01-02")},
		{Name: "end", Value: end.Format("2006-01-02")},
	}

	it, err := providers.Run(ctx, a.pool, func() (*bigquery.RowIterator, error) { return query.Read(ctx) })
	if err != nil {
		return nil, fmt.Errorf("gcp adapter: run billing export query: %w", err)
	}

	var records []model.RawCostRecord
	for {
		var row struct {
			Service    string
			ProjectID  string
			Region     string
			Cost       float64
			Currency   string
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcp adapter: read billing export row: %w", err)
		}

		records = append(records, model.RawCostRecord{
			ResourceID:   row.Service,
			ProviderType: row.Service,
			Name:         row.Service,
			Region:       model.Region(row.Region),
			Amount:       decimal.NewFromFloat(row.Cost).String(),
			Currency:     row.Currency,
			ProjectKey:   row.ProjectID,
			Window:       model.TimeWindow{Start: start, End: end},
		})
	}

	return records, nil
}

// computeEngineServiceName is the Cloud Billing Catalog service resource for
// Compute Engine, a stable well-known identifier per the Catalog API docs.
const computeEngineServiceName = "services/6F81-5844-456A"

func (a *Adapter) ListInstanceTypes(ctx context.Context, region model.Region) ([]model.VmInstanceType, error) {
	req := &billingpb.ListSkusRequest{Parent: computeEngineServiceName}
	it := a.catalog.ListSkus(ctx, req)

	var types []model.VmInstanceType
	for {
		sku, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcp adapter: list skus: %w", err)
		}
		if !skuMatchesRegion(sku, string(region)) || !isPredefinedVM(sku) {
			continue
		}
		types = append(types, model.VmInstanceType{
			Provider: model.GCP,
			Region:   region,
			Name:     sku.Description,
			VCPUs:    1, MemoryGB: 3.75, // Catalog SKUs price per vCPU-hour/GB-hour rather than per named shape; full shape enumeration needs the separate Compute Engine machine-types API.
			OS:       "linux",
			Features: map[string]struct{}{},
		})
	}
	return types, nil
}

func (a *Adapter) ListStorageOptions(ctx context.Context, storageType model.StorageType, region model.Region) ([]model.StorageOption, error) {
	switch storageType {
	case model.StorageObject:
		return []model.StorageOption{
			{Provider: model.GCP, Region: region, StorageType: storageType, StorageClass: model.StorageStandard, ReplicationType: model.ReplicationNone},
			{Provider: model.GCP, Region: region, StorageType: storageType, StorageClass: model.StorageInfrequent, ReplicationType: model.ReplicationNone},
			{Provider: model.GCP, Region: region, StorageType: storageType, StorageClass: model.StorageArchive, ReplicationType: model.ReplicationNone},
		}, nil
	case model.StorageBlock:
		return []model.StorageOption{
			{
				Provider: model.GCP, Region: region, StorageType: storageType,
				StorageClass: model.StorageStandard, ReplicationType: model.ReplicationNone,
				MinCapacityGB: 10, MaxCapacityGB: model.Some(65536.0),
			},
		}, nil
	default:
		return []model.StorageOption{{Provider: model.GCP, Region: region, StorageType: storageType, StorageClass: model.StorageStandard, ReplicationType: model.ReplicationNone}}, nil
	}
}

func (a *Adapter) ListNetworkOptions(ctx context.Context, serviceType model.NetworkServiceType, region model.Region) ([]model.NetworkOption, error) {
	switch serviceType {
	case model.NetworkLoadBalancer:
		return []model.NetworkOption{
			{Provider: model.GCP, Region: region, ServiceType: serviceType, LoadBalancerType: model.Some("global-external")},
			{Provider: model.GCP, Region: region, ServiceType: serviceType, LoadBalancerType: model.Some("regional-internal")},
		}, nil
	default:
		return []model.NetworkOption{{Provider: model.GCP, Region: region, ServiceType: serviceType}}, nil
	}
}

func (a *Adapter) GetComputeCosts(ctx context.Context, instanceType string, region model.Region, os string, purchase model.PurchaseOption) (model.CostComponent, error) {
	req := &billingpb.ListSkusRequest{Parent: computeEngineServiceName}
	it := a.catalog.ListSkus(ctx, req)

	for {
		sku, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return model.CostComponent{}, fmt.Errorf("gcp adapter: list skus: %w", err)
		}
		if sku.Description != instanceType || !skuMatchesRegion(sku, string(region)) {
			continue
		}
		hourly, currency := skuHourlyRate(sku)
		rate := money.Money{Amount: hourly, Currency: currency}
		return model.CostComponent{
			Name:        model.ComponentCompute,
			MonthlyCost: money.HourlyToMonthly(rate),
			HourlyCost:  model.Some(rate),
			Unit:        "hour",
		}, nil
	}

	return model.CostComponent{}, fmt.Errorf("gcp adapter: no sku found for %s in %s", instanceType, region)
}

func (a *Adapter) GetStorageCosts(ctx context.Context, storageType model.StorageType, storageClass model.StorageClass, replication model.ReplicationType, region model.Region, capacityGB float64) (model.CostComponent, error) {
	perGB := money.Money{Amount: decimal.NewFromFloat(0.020), Currency: "USD"}
	if storageClass == model.StorageArchive {
		perGB = money.Money{Amount: decimal.NewFromFloat(0.0012), Currency: "USD"}
	}
	return model.CostComponent{Name: model.ComponentStorage, MonthlyCost: perGB.Mul(decimal.NewFromFloat(capacityGB)), Unit: "GB-month"}, nil
}

func (a *Adapter) GetNetworkCosts(ctx context.Context, serviceType model.NetworkServiceType, region model.Region, params providers.NetworkCostParams) (providers.NetworkCostResult, error) {
	transferCost := money.Money{Amount: decimal.NewFromFloat(0.085), Currency: "USD"}.Mul(decimal.NewFromFloat(params.DataTransferGB))
	components := []model.CostComponent{{Name: model.ComponentTransfer, MonthlyCost: transferCost, Unit: "GB"}}
	total := transferCost

	if params.RequestsPerSecond > 0 {
		monthlyRequests := money.MonthlyRequestsFromRPS(decimal.NewFromFloat(params.RequestsPerSecond))
		requestCost := money.RequestCost(monthlyRequests, money.Money{Amount: decimal.NewFromFloat(0.40), Currency: "USD"})
		components = append(components, model.CostComponent{Name: model.ComponentRequests, MonthlyCost: requestCost, Unit: "million-requests"})
		total = total.Add(requestCost)
	}

	return providers.NetworkCostResult{MonthlyCost: total, Components: components}, nil
}

func skuMatchesRegion(sku *billingpb.Sku, region string) bool {
	for _, loc := range sku.ServiceRegions {
		if loc == region {
			return true
		}
	}
	return false
}

func isPredefinedVM(sku *billingpb.Sku) bool {
	return sku.Category != nil && sku.Category.ResourceGroup == "N1Standard"
}

func skuHourlyRate(sku *billingpb.Sku) (decimal.Decimal, string) {
	if sku.PricingInfo == nil || len(sku.PricingInfo) == 0 {
		return decimal.Zero, "USD"
	}
	expr := sku.PricingInfo[0].PricingExpression
	if expr == nil || len(expr.TieredRates) == 0 {
		return decimal.Zero, "USD"
	}
	unitPrice := expr.TieredRates[0].UnitPrice
	if unitPrice == nil {
		return decimal.Zero, "USD"
	}
	units := decimal.NewFromInt(unitPrice.Units)
	nanos := decimal.NewFromInt(int64(unitPrice.Nanos)).Div(decimal.NewFromInt(1_000_000_000))
	return units.Add(nanos), unitPrice.CurrencyCode
}
