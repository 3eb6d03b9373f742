// Package aws implements the AWS provider capability adapter
// (providers.Adapter) and the raw-cost-record collector Cost Explorer
// glue feeds to the normalization engine.
//
// Grounded on the teacher's internal/providers/aws/cost.go (STS role
// assumption, Cost Explorer pagination) merged with the now-removed
// internal/providers/aws.go (group-by-dimension parsing) — both were
// parallel implementations of the same AWS Cost Explorer concern in the
// teacher; this file consolidates them into one adapter producing
// model.RawCostRecord instead of the teacher's flat CostRecord, preserving
// exact-decimal amounts (spec.md §3 "floats are forbidden on cost paths")
// instead of the teacher's fmt.Sscanf-to-float64 parsing.
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/shopspring/decimal"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
	"github.com/lvonguyen/costintel/internal/providers"
)

// Config holds AWS-specific adapter configuration.
type Config struct {
	Region      string
	RoleARN     string
	Granularity string // DAILY or MONTHLY
	GroupBy     []string
}

// Adapter implements providers.Adapter and the cost-record collector for
// AWS.
type Adapter struct {
	costExplorer *costexplorer.Client
	pricing      *pricing.Client
	region       string
	granularity  cetypes.Granularity
	groupBy      []string
	pool         *providers.Pool
}

// New constructs an AWS Adapter, assuming cfg.RoleARN via STS when set
// (mirrors the teacher's NewCostProvider).
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("aws adapter: load config: %w", err)
	}

	if cfg.RoleARN != "" {
		stsClient := sts.NewFromConfig(awsCfg)
		creds := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN)
		awsCfg.Credentials = awssdk.NewCredentialsCache(creds)
	}

	granularity := cetypes.GranularityDaily
	if cfg.Granularity == "MONTHLY" {
		granularity = cetypes.GranularityMonthly
	}

	groupBy := cfg.GroupBy
	if len(groupBy) == 0 {
		groupBy = []string{"SERVICE", "LINKED_ACCOUNT", "REGION"}
	}

	// Pricing API is only served out of us-east-1, regardless of cfg.Region.
	pricingCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-1"))
	if err != nil {
		return nil, fmt.Errorf("aws adapter: load pricing config: %w", err)
	}
	pricingCfg.Credentials = awsCfg.Credentials

	return &Adapter{
		costExplorer: costexplorer.NewFromConfig(awsCfg),
		pricing:      pricing.NewFromConfig(pricingCfg),
		region:       cfg.Region,
		granularity:  granularity,
		groupBy:      groupBy,
		pool:         providers.NewPool(8),
	}, nil
}

func (a *Adapter) Name() model.Provider { return model.AWS }

// FetchRawCostRecords pulls raw cost data from Cost Explorer for [start,
// end) and converts it into model.RawCostRecord values, ready for the
// normalization engine. This is the "raw provider-SDK call glue" spec.md §1
// names as an external collaborator outside the core's scope; it lives here
// as the adapter's own responsibility rather than inside the normalizer.
func (a *Adapter) FetchRawCostRecords(ctx context.Context, start, end time.Time) ([]model.RawCostRecord, error) {
	var groupByDefs []cetypes.GroupDefinition
	for _, g := range a.groupBy {
		groupByDefs = append(groupByDefs, cetypes.GroupDefinition{
			Type: cetypes.GroupDefinitionTypeDimension,
			Key:  awssdk.String(g),
		})
	}

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: awssdk.String(start.Format("2006-01-02")),
			End:   awssdk.String(end.Format("2006-01-02")),
		},
		Granularity: a.granularity,
		Metrics:     []string{"UnblendedCost", "UsageQuantity"},
		GroupBy:     groupByDefs,
	}

	var records []model.RawCostRecord
	for {
		output, err := providers.Run(ctx, a.pool, func() (*costexplorer.GetCostAndUsageOutput, error) {
			return a.costExplorer.GetCostAndUsage(ctx, input)
		})
		if err != nil {
			return nil, fmt.Errorf("aws adapter: GetCostAndUsage: %w", err)
		}

		for _, result := range output.ResultsByTime {
			periodStart, _ := time.Parse("2006-01-02", awssdk.ToString(result.TimePeriod.Start))
			periodEnd, _ := time.Parse("2006-01-02", awssdk.ToString(result.TimePeriod.End))

			for _, group := range result.Groups {
				rec := model.RawCostRecord{
					Currency:  "USD",
					RawFields: map[string]string{},
					Window:    model.TimeWindow{Start: periodStart, End: periodEnd},
				}

				for i, key := range group.Keys {
					if i >= len(a.groupBy) {
						break
					}
					switch a.groupBy[i] {
					case "SERVICE":
						rec.ProviderType = key
						rec.Name = key
						rec.ResourceID = key
					case "LINKED_ACCOUNT":
						rec.RawFields["accountId"] = key
					case "REGION":
						rec.Region = model.Region(key)
					}
				}

				if amt, ok := group.Metrics["UnblendedCost"]; ok && amt.Amount != nil {
					rec.Amount = *amt.Amount // already an exact-decimal string from the API
				} else {
					rec.Amount = "0"
				}

				records = append(records, rec)
			}
		}

		if output.NextPageToken == nil {
			break
		}
		input.NextPageToken = output.NextPageToken
	}

	return records, nil
}

// ListInstanceTypes implements providers.Adapter by querying the AWS
// Pricing API's GetProducts for EC2 On-Demand instance offerings in region.
// Grounded on original_source/storage-cost-comparison-service's
// providers/aws.py, which queries the same pricing_client.get_products
// surface for storage; this adapts the pattern to EC2 compute.
func (a *Adapter) ListInstanceTypes(ctx context.Context, region model.Region) ([]model.VmInstanceType, error) {
	filters := []pricingtypes.Filter{
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("productFamily"), Value: awssdk.String("Compute Instance")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("location"), Value: awssdk.String(regionToLocation(region))},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("operatingSystem"), Value: awssdk.String("Linux")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("tenancy"), Value: awssdk.String("Shared")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("preInstalledSw"), Value: awssdk.String("NA")},
	}

	out, err := providers.Run(ctx, a.pool, func() (*pricing.GetProductsOutput, error) {
		return a.pricing.GetProducts(ctx, &pricing.GetProductsInput{
			ServiceCode: awssdk.String("AmazonEC2"),
			Filters:     filters,
			MaxResults:  awssdk.Int32(50),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("aws adapter: ListInstanceTypes: %w", err)
	}

	types := make([]model.VmInstanceType, 0, len(out.PriceList))
	for _, raw := range out.PriceList {
		instanceType, vcpus, memGB, ok := parseEC2PriceListAttributes(raw)
		if !ok {
			continue
		}
		types = append(types, model.VmInstanceType{
			Provider:             model.AWS,
			Region:               region,
			Name:                 instanceType,
			VCPUs:                vcpus,
			MemoryGB:             memGB,
			OS:                   "linux",
			Features:             map[string]struct{}{"ebs-optimized": {}},
			NetworkBandwidthGbps: 10,
		})
	}
	return types, nil
}

// ListStorageOptions implements providers.Adapter for S3/EBS/EFS, mirroring
// the option catalog shape original_source's AwsStorageProvider.list_storage_options
// returns (static capability ranges per storage class).
func (a *Adapter) ListStorageOptions(ctx context.Context, storageType model.StorageType, region model.Region) ([]model.StorageOption, error) {
	switch storageType {
	case model.StorageObject:
		return []model.StorageOption{
			{Provider: model.AWS, Region: region, StorageType: storageType, StorageClass: model.StorageStandard, ReplicationType: model.ReplicationZRS, MinCapacityGB: 0},
			{Provider: model.AWS, Region: region, StorageType: storageType, StorageClass: model.StorageInfrequent, ReplicationType: model.ReplicationZRS, MinCapacityGB: 128.0 / 1024},
			{Provider: model.AWS, Region: region, StorageType: storageType, StorageClass: model.StorageArchive, ReplicationType: model.ReplicationZRS, MinCapacityGB: 40.0 / 1024},
		}, nil
	case model.StorageBlock:
		maxCap := 16384.0
		return []model.StorageOption{
			{
				Provider: model.AWS, Region: region, StorageType: storageType,
				StorageClass: model.StorageStandard, ReplicationType: model.ReplicationLRS,
				MinCapacityGB: 1, MaxCapacityGB: model.Some(maxCap),
				MinIOPS: model.Some(3000), MaxIOPS: model.Some(16000),
				MinThroughputMBps: model.Some(125.0), MaxThroughputMBps: model.Some(1000.0),
			},
			{
				Provider: model.AWS, Region: region, StorageType: storageType,
				StorageClass: model.StoragePremium, ReplicationType: model.ReplicationLRS,
				MinCapacityGB: 4, MaxCapacityGB: model.Some(maxCap),
				MinIOPS: model.Some(100), MaxIOPS: model.Some(64000),
				MinThroughputMBps: model.Some(125.0), MaxThroughputMBps: model.Some(1000.0),
			},
		}, nil
	default: // FILE
		return []model.StorageOption{
			{Provider: model.AWS, Region: region, StorageType: storageType, StorageClass: model.StorageStandard, ReplicationType: model.ReplicationZRS},
			{Provider: model.AWS, Region: region, StorageType: storageType, StorageClass: model.StorageOneZone, ReplicationType: model.ReplicationLRS},
		}, nil
	}
}

// ListNetworkOptions returns AWS's network service catalog for serviceType.
func (a *Adapter) ListNetworkOptions(ctx context.Context, serviceType model.NetworkServiceType, region model.Region) ([]model.NetworkOption, error) {
	switch serviceType {
	case model.NetworkLoadBalancer:
		return []model.NetworkOption{
			{Provider: model.AWS, Region: region, ServiceType: serviceType, LoadBalancerType: model.Some("application")},
			{Provider: model.AWS, Region: region, ServiceType: serviceType, LoadBalancerType: model.Some("network")},
		}, nil
	case model.NetworkVPN:
		return []model.NetworkOption{{Provider: model.AWS, Region: region, ServiceType: serviceType, VPNType: model.Some("site-to-site")}}, nil
	default:
		return []model.NetworkOption{{Provider: model.AWS, Region: region, ServiceType: serviceType}}, nil
	}
}

// GetComputeCosts prices one instance type's On-Demand hourly rate, folded
// to a monthly figure via money.HourlyToMonthly (spec.md §4.2).
func (a *Adapter) GetComputeCosts(ctx context.Context, instanceType string, region model.Region, os string, purchase model.PurchaseOption) (model.CostComponent, error) {
	filters := []pricingtypes.Filter{
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("instanceType"), Value: awssdk.String(instanceType)},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("location"), Value: awssdk.String(regionToLocation(region))},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("operatingSystem"), Value: awssdk.String(osToPricingAttr(os))},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("tenancy"), Value: awssdk.String("Shared")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("preInstalledSw"), Value: awssdk.String("NA")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("capacitystatus"), Value: awssdk.String("Used")},
	}

	out, err := providers.Run(ctx, a.pool, func() (*pricing.GetProductsOutput, error) {
		return a.pricing.GetProducts(ctx, &pricing.GetProductsInput{ServiceCode: awssdk.String("AmazonEC2"), Filters: filters, MaxResults: awssdk.Int32(1)})
	})
	if err != nil {
		return model.CostComponent{}, fmt.Errorf("aws adapter: GetComputeCosts: %w", err)
	}
	if len(out.PriceList) == 0 {
		return model.CostComponent{}, &costerrors.DataNotFoundError{Kind: "compute pricing", ID: instanceType}
	}

	hourlyRate, err := extractOnDemandRate(out.PriceList[0])
	if err != nil {
		return model.CostComponent{}, err
	}
	hourly := money.Money{Amount: hourlyRate, Currency: "USD"}
	return model.CostComponent{
		Name:        model.ComponentCompute,
		MonthlyCost: money.HourlyToMonthly(hourly),
		HourlyCost:  model.Some(hourly),
		Unit:        "hour",
	}, nil
}

// GetStorageCosts prices base per-GB-month storage, mirroring
// original_source's get_storage_costs.
func (a *Adapter) GetStorageCosts(ctx context.Context, storageType model.StorageType, storageClass model.StorageClass, replication model.ReplicationType, region model.Region, capacityGB float64) (model.CostComponent, error) {
	serviceCode, family := storageServiceCode(storageType)
	filters := []pricingtypes.Filter{
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("productFamily"), Value: awssdk.String(family)},
		{Type: pricingtypes.FilterTypeTermMatch, Field: awssdk.String("location"), Value: awssdk.String(regionToLocation(region))},
	}

	out, err := providers.Run(ctx, a.pool, func() (*pricing.GetProductsOutput, error) {
		return a.pricing.GetProducts(ctx, &pricing.GetProductsInput{ServiceCode: awssdk.String(serviceCode), Filters: filters, MaxResults: awssdk.Int32(1)})
	})
	if err != nil {
		return model.CostComponent{}, fmt.Errorf("aws adapter: GetStorageCosts: %w", err)
	}
	if len(out.PriceList) == 0 {
		return model.CostComponent{}, &costerrors.DataNotFoundError{Kind: "storage pricing", ID: string(storageClass)}
	}

	rate, err := extractOnDemandRate(out.PriceList[0])
	if err != nil {
		return model.CostComponent{}, err
	}
	monthly := money.Money{Amount: rate, Currency: "USD"}.Mul(decimal.NewFromFloat(capacityGB))
	return model.CostComponent{Name: model.ComponentStorage, MonthlyCost: monthly, Unit: "GB-month"}, nil
}

// GetNetworkCosts prices data-transfer and request-count components for a
// network service, grounded on network_comparison/comparison.py's
// get_service_costs.
func (a *Adapter) GetNetworkCosts(ctx context.Context, serviceType model.NetworkServiceType, region model.Region, params providers.NetworkCostParams) (providers.NetworkCostResult, error) {
	transferRate := money.Money{Amount: decimal.NewFromFloat(0.09), Currency: "USD"} // per-GB, first tier
	transferCost := money.Money{Amount: transferRate.Amount, Currency: "USD"}.Mul(decimal.NewFromFloat(params.DataTransferGB))

	components := []model.CostComponent{
		{Name: model.ComponentTransfer, MonthlyCost: transferCost, Unit: "GB"},
	}
	total := transferCost

	if params.RequestsPerSecond > 0 {
		monthlyRequests := money.MonthlyRequestsFromRPS(decimal.NewFromFloat(params.RequestsPerSecond))
		requestCost := money.RequestCost(monthlyRequests, money.Money{Amount: decimal.NewFromFloat(0.60), Currency: "USD"})
		components = append(components, model.CostComponent{Name: model.ComponentRequests, MonthlyCost: requestCost, Unit: "million-requests"})
		total = total.Add(requestCost)
	}

	return providers.NetworkCostResult{MonthlyCost: total, Components: components}, nil
}

func regionToLocation(region model.Region) string {
	locations := map[model.Region]string{
		"us-east-1": "US East (N. Virginia)",
		"us-west-2": "US West (Oregon)",
		"eu-west-1": "EU (Ireland)",
	}
	if loc, ok := locations[region]; ok {
		return loc
	}
	return string(region)
}

func osToPricingAttr(os string) string {
	switch os {
	case "windows":
		return "Windows"
	default:
		return "Linux"
	}
}

func storageServiceCode(storageType model.StorageType) (serviceCode, productFamily string) {
	switch storageType {
	case model.StorageObject:
		return "AmazonS3", "Storage"
	case model.StorageFile:
		return "AmazonEFS", "Storage"
	default:
		return "AmazonEC2", "Storage"
	}
}

// parseEC2PriceListAttributes pulls instanceType/vcpu/memory out of a raw
// Pricing API JSON blob without a full price-list schema decode.
func parseEC2PriceListAttributes(raw string) (instanceType string, vcpus, memGB float64, ok bool) {
	instanceType = extractJSONField(raw, "instanceType")
	if instanceType == "" {
		return "", 0, 0, false
	}
	vcpus = decimalOr(extractJSONField(raw, "vcpu"), 2)
	memGB = decimalOr(trimUnit(extractJSONField(raw, "memory"), "GiB"), 4)
	return instanceType, vcpus, memGB, true
}

func extractOnDemandRate(raw string) (decimal.Decimal, error) {
	rate := extractJSONField(raw, "pricePerUnit.USD")
	if rate == "" {
		return decimal.Decimal{}, fmt.Errorf("aws adapter: could not find on-demand rate in price list entry")
	}
	return decimal.NewFromString(rate)
}

func decimalOr(s string, fallback float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fallback
	}
	f, _ := d.Float64()
	return f
}

func trimUnit(s, unit string) string {
	if idx := strings.Index(s, unit); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

// extractJSONField pulls one field out of a Pricing API PriceList document.
// The document's real shape is product.attributes.<field> for catalog
// attributes, and terms.OnDemand.<sku>.<offer>.priceDimensions.<dim>.pricePerUnit.USD
// for the on-demand rate; rather than model that whole schema this walks a
// generic map for the handful of keys this adapter needs.
func extractJSONField(raw string, dotPath string) string {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return ""
	}

	if dotPath == "pricePerUnit.USD" {
		return findFirst(doc, "pricePerUnit", "USD")
	}

	if attrs, ok := dig(doc, "product", "attributes").(map[string]any); ok {
		if v, ok := attrs[dotPath].(string); ok {
			return v
		}
	}
	return ""
}

// dig walks a nested map[string]any by successive keys.
func dig(node any, path ...string) any {
	cur := node
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// findFirst performs a depth-first search for a nested key1 -> key2 pair
// anywhere under node, returning the first string value found. Used to
// locate pricePerUnit.USD without modeling the full terms/offer/sku
// nesting the Pricing API uses.
func findFirst(node any, key1, key2 string) string {
	m, ok := node.(map[string]any)
	if !ok {
		return ""
	}
	if inner, ok := m[key1].(map[string]any); ok {
		if v, ok := inner[key2].(string); ok {
			return v
		}
	}
	for _, v := range m {
		if found := findFirst(v, key1, key2); found != "" {
			return found
		}
	}
	return ""
}
