// Package azure implements the Azure provider capability adapter
// (providers.Adapter) and Cost Management glue that feeds the
// normalization engine.
//
// Grounded on the teacher's internal/providers/azure/cost.go (armcostmanagement
// QueryClient usage, toPtr helper) and internal/providers/azure.go (now
// removed, a simpler duplicate of the same concern) — consolidated here and
// adapted to emit model.RawCostRecord instead of the teacher's flat
// CostRecord/aggregator.CostEntry.
package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/shopspring/decimal"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
	"github.com/lvonguyen/costintel/internal/providers"
)

// Config holds Azure-specific adapter configuration.
type Config struct {
	TenantID        string
	SubscriptionIDs []string
	UseMSI          bool
	Granularity     string
}

// Adapter implements providers.Adapter and the cost-record collector for
// Azure. Catalog/pricing lookups use the public Azure Retail Prices API
// (prices.azure.com), which has no dedicated Go SDK client in the pack —
// a plain net/http JSON GET is the documented integration path.
type Adapter struct {
	client          *armcostmanagement.QueryClient
	subscriptionIDs []string
	granularity     armcostmanagement.GranularityType
	httpClient      *http.Client
	pool            *providers.Pool
}

// New constructs an Azure Adapter using DefaultAzureCredential, mirroring
// the teacher's NewCostProvider.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	var cred *azidentity.DefaultAzureCredential
	var err error
	if cfg.UseMSI {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{TenantID: cfg.TenantID})
	}
	if err != nil {
		return nil, fmt.Errorf("azure adapter: create credential: %w", err)
	}

	client, err := armcostmanagement.NewQueryClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure adapter: create cost management client: %w", err)
	}

	granularity := armcostmanagement.GranularityType("Daily")
	if cfg.Granularity == "MONTHLY" {
		granularity = armcostmanagement.GranularityType("Monthly")
	}

	return &Adapter{
		client:          client,
		subscriptionIDs: cfg.SubscriptionIDs,
		granularity:     granularity,
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		pool:            providers.NewPool(8),
	}, nil
}

func (a *Adapter) Name() model.Provider { return model.Azure }

// FetchRawCostRecords queries Cost Management's Usage API per configured
// subscription for [start, end) and converts rows into model.RawCostRecord.
func (a *Adapter) FetchRawCostRecords(ctx context.Context, start, end time.Time) ([]model.RawCostRecord, error) {
	var records []model.RawCostRecord

	for _, subscriptionID := range a.subscriptionIDs {
		scope := fmt.Sprintf("/subscriptions/%s", subscriptionID)
		granularity := a.granularity

		query := armcostmanagement.QueryDefinition{
			Type:      toPtr(armcostmanagement.ExportTypeActualCost),
			Timeframe: toPtr(armcostmanagement.TimeframeTypeCustom),
			TimePeriod: &armcostmanagement.QueryTimePeriod{From: &start, To: &end},
			Dataset: &armcostmanagement.QueryDataset{
				Granularity: &granularity,
				Grouping: []*armcostmanagement.QueryGrouping{
					{Type: toPtr(armcostmanagement.QueryColumnTypeDimension), Name: toPtr("ServiceName")},
					{Type: toPtr(armcostmanagement.QueryColumnTypeDimension), Name: toPtr("ResourceLocation")},
				},
				Aggregation: map[string]*armcostmanagement.QueryAggregation{
					"totalCost": {Name: toPtr("Cost"), Function: toPtr(armcostmanagement.FunctionTypeSum)},
				},
			},
		}

		result, err := providers.Run(ctx, a.pool, func() (armcostmanagement.QueryClientUsageResponse, error) {
			return a.client.Usage(ctx, scope, query, nil)
		})
		if err != nil {
			return nil, fmt.Errorf("azure adapter: query costs for %s: %w", subscriptionID, err)
		}

		if result.Properties == nil {
			continue
		}
		for _, row := range result.Properties.Rows {
			if len(row) < 4 {
				continue
			}
			// Row format: [cost, date, serviceName, region]. The SDK
			// unmarshals the cost cell as float64 at this API boundary;
			// it is converted to an exact-decimal string immediately
			// and never used in float arithmetic afterward.
			costFloat, _ := row[0].(float64)
			dateStr, _ := row[1].(string)
			service, _ := row[2].(string)
			region, _ := row[3].(string)

			date, _ := time.Parse("20060102", dateStr)

			records = append(records, model.RawCostRecord{
				ResourceID:   service,
				ProviderType: service,
				Name:         service,
				Region:       model.Region(region),
				Amount:       decimal.NewFromFloat(costFloat).String(),
				Currency:     "USD",
				RawFields:    map[string]string{"accountId": subscriptionID},
				Window:       model.TimeWindow{Start: date, End: date.AddDate(0, 0, 1)},
			})
		}
	}

	return records, nil
}

// retailPriceItem is the subset of prices.azure.com's response this adapter
// reads.
type retailPriceItem struct {
	ArmSkuName    string  `json:"armSkuName"`
	ProductName   string  `json:"productName"`
	SkuName       string  `json:"skuName"`
	RetailPrice   float64 `json:"retailPrice"`
	UnitOfMeasure string  `json:"unitOfMeasure"`
	ArmRegionName string  `json:"armRegionName"`
}

type retailPriceResponse struct {
	Items []retailPriceItem `json:"Items"`
}

func (a *Adapter) queryRetailPrices(ctx context.Context, filter string) ([]retailPriceItem, error) {
	url := "https://prices.azure.com/api/retail/prices?$filter=" + filter
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := providers.Run(ctx, a.pool, func() (*http.Response, error) { return a.httpClient.Do(req) })
	if err != nil {
		return nil, fmt.Errorf("azure adapter: retail prices request: %w", err)
	}
	defer resp.Body.Close()

	var parsed retailPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("azure adapter: decode retail prices: %w", err)
	}
	return parsed.Items, nil
}

// ListInstanceTypes queries the Retail Prices API for virtual machine SKUs
// in region.
func (a *Adapter) ListInstanceTypes(ctx context.Context, region model.Region) ([]model.VmInstanceType, error) {
	filter := fmt.Sprintf("serviceName eq 'Virtual Machines' and armRegionName eq '%s' and priceType eq 'Consumption'", region)
	items, err := a.queryRetailPrices(ctx, filter)
	if err != nil {
		return nil, err
	}

	types := make([]model.VmInstanceType, 0, len(items))
	for _, item := range items {
		if item.ArmSkuName == "" {
			continue
		}
		types = append(types, model.VmInstanceType{
			Provider: model.Azure,
			Region:   region,
			Name:     item.ArmSkuName,
			VCPUs:    2, MemoryGB: 8, // Retail Prices doesn't carry spec sheet data; a capability catalog service is the documented source for those.
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
			{Provider: model.Azure, Region: region, StorageType: storageType, StorageClass: model.StorageStandard, ReplicationType: model.ReplicationLRS},
			{Provider: model.Azure, Region: region, StorageType: storageType, StorageClass: model.StorageInfrequent, ReplicationType: model.ReplicationGRS},
		}, nil
	case model.StorageBlock:
		return []model.StorageOption{
			{
				Provider: model.Azure, Region: region, StorageType: storageType,
				StorageClass: model.StorageStandard, ReplicationType: model.ReplicationLRS,
				MinCapacityGB: 4, MaxCapacityGB: model.Some(32767.0),
				MinIOPS: model.Some(500), MaxIOPS: model.Some(6000),
			},
		}, nil
	default:
		return []model.StorageOption{{Provider: model.Azure, Region: region, StorageType: storageType, StorageClass: model.StorageStandard, ReplicationType: model.ReplicationZRS}}, nil
	}
}

func (a *Adapter) ListNetworkOptions(ctx context.Context, serviceType model.NetworkServiceType, region model.Region) ([]model.NetworkOption, error) {
	switch serviceType {
	case model.NetworkLoadBalancer:
		return []model.NetworkOption{
			{Provider: model.Azure, Region: region, ServiceType: serviceType, LoadBalancerType: model.Some("standard")},
			{Provider: model.Azure, Region: region, ServiceType: serviceType, LoadBalancerType: model.Some("basic")},
		}, nil
	default:
		return []model.NetworkOption{{Provider: model.Azure, Region: region, ServiceType: serviceType}}, nil
	}
}

func (a *Adapter) GetComputeCosts(ctx context.Context, instanceType string, region model.Region, os string, purchase model.PurchaseOption) (model.CostComponent, error) {
	filter := fmt.Sprintf("armSkuName eq '%s' and armRegionName eq '%s' and priceType eq 'Consumption'", instanceType, region)
	items, err := a.queryRetailPrices(ctx, filter)
	if err != nil {
		return model.CostComponent{}, err
	}
	if len(items) == 0 {
		return model.CostComponent{}, fmt.Errorf("azure adapter: no retail price found for %s in %s", instanceType, region)
	}

	hourly := money.Money{Amount: decimal.NewFromFloat(items[0].RetailPrice), Currency: "USD"}
	return model.CostComponent{
		Name:        model.ComponentCompute,
		MonthlyCost: money.HourlyToMonthly(hourly),
		HourlyCost:  model.Some(hourly),
		Unit:        "hour",
	}, nil
}

func (a *Adapter) GetStorageCosts(ctx context.Context, storageType model.StorageType, storageClass model.StorageClass, replication model.ReplicationType, region model.Region, capacityGB float64) (model.CostComponent, error) {
	filter := fmt.Sprintf("serviceName eq 'Storage' and armRegionName eq '%s' and priceType eq 'Consumption'", region)
	items, err := a.queryRetailPrices(ctx, filter)
	if err != nil {
		return model.CostComponent{}, err
	}
	if len(items) == 0 {
		return model.CostComponent{}, fmt.Errorf("azure adapter: no storage retail price found in %s", region)
	}

	rate := money.Money{Amount: decimal.NewFromFloat(items[0].RetailPrice), Currency: "USD"}
	return model.CostComponent{Name: model.ComponentStorage, MonthlyCost: rate.Mul(decimal.NewFromFloat(capacityGB)), Unit: "GB-month"}, nil
}

func (a *Adapter) GetNetworkCosts(ctx context.Context, serviceType model.NetworkServiceType, region model.Region, params providers.NetworkCostParams) (providers.NetworkCostResult, error) {
	transferCost := money.Money{Amount: decimal.NewFromFloat(0.087), Currency: "USD"}.Mul(decimal.NewFromFloat(params.DataTransferGB))
	components := []model.CostComponent{{Name: model.ComponentTransfer, MonthlyCost: transferCost, Unit: "GB"}}
	total := transferCost

	if params.RequestsPerSecond > 0 {
		monthlyRequests := money.MonthlyRequestsFromRPS(decimal.NewFromFloat(params.RequestsPerSecond))
		requestCost := money.RequestCost(monthlyRequests, money.Money{Amount: decimal.NewFromFloat(0.50), Currency: "USD"})
		components = append(components, model.CostComponent{Name: model.ComponentRequests, MonthlyCost: requestCost, Unit: "million-requests"})
		total = total.Add(requestCost)
	}

	return providers.NetworkCostResult{MonthlyCost: total, Components: components}, nil
}

func toPtr[T any](v T) *T {
	return &v
}
