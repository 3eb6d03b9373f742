package model

// CostComponent is a named additive contributor to a cost estimate.
// Contributions compose by sum; order matters only for trace/display
// output (spec.md §4.2 step 4).
type CostComponentName string

const (
	ComponentCompute    CostComponentName = "Compute"
	ComponentStorage    CostComponentName = "Storage"
	ComponentIOPS       CostComponentName = "IOPS"
	ComponentThroughput CostComponentName = "Throughput"
	ComponentTransfer   CostComponentName = "DataTransfer"
	ComponentRequests   CostComponentName = "Requests"
)

// PurchaseOption discriminates on-demand vs reserved/spot purchasing.
type PurchaseOption string

const (
	PurchaseOnDemand PurchaseOption = "on-demand"
	PurchaseReserved PurchaseOption = "reserved"
	PurchaseSpot     PurchaseOption = "spot"
)

// StorageClass is the provider-neutral storage tier discriminator.
type StorageClass string

const (
	StorageStandard    StorageClass = "standard"
	StorageInfrequent  StorageClass = "infrequent"
	StorageArchive     StorageClass = "archive"
	StorageDeepArchive StorageClass = "deep_archive"
	StorageOneZone     StorageClass = "one_zone"
	StorageIntelligent StorageClass = "intelligent"
	StoragePremium     StorageClass = "premium"
	StorageProvisioned StorageClass = "provisioned"
)

// StorageType discriminates object/block/file storage.
type StorageType string

const (
	StorageObject StorageType = "object"
	StorageBlock  StorageType = "block"
	StorageFile   StorageType = "file"
)

// ReplicationType is the provider-neutral replication/durability scheme.
type ReplicationType string

const (
	ReplicationNone   ReplicationType = "none"
	ReplicationLRS    ReplicationType = "lrs"
	ReplicationZRS    ReplicationType = "zrs"
	ReplicationGRS    ReplicationType = "grs"
	ReplicationRAGRS  ReplicationType = "ra_grs"
)

// NetworkServiceType discriminates the kind of network option on offer.
type NetworkServiceType string

const (
	NetworkLoadBalancer NetworkServiceType = "load_balancer"
	NetworkCDN          NetworkServiceType = "cdn"
	NetworkDNS          NetworkServiceType = "dns"
	NetworkVPN          NetworkServiceType = "vpn"
	NetworkTransit      NetworkServiceType = "transit_gateway"
	NetworkWAF          NetworkServiceType = "waf"
	NetworkDDoS         NetworkServiceType = "ddos_protection"
	NetworkNAT          NetworkServiceType = "nat_gateway"
)

// VmInstanceType is a catalog record for one (provider, region, instance
// family) returned by list_instance_types.
type VmInstanceType struct {
	Provider        Provider
	Region          Region
	Name            string
	VCPUs           float64
	MemoryGB        float64
	GPUCount        int
	LocalDiskGB     Optional[float64]
	NetworkBandwidthGbps float64
	Features        map[string]struct{}
	Certifications  map[string]struct{}
	OS              string
}

// StorageOption is a catalog record for one (provider, region, class)
// returned by list_storage_options.
type StorageOption struct {
	Provider           Provider
	Region             Region
	StorageType        StorageType
	StorageClass       StorageClass
	ReplicationType    ReplicationType
	MinCapacityGB      float64
	MaxCapacityGB      Optional[float64]
	MinIOPS            Optional[int]
	MaxIOPS            Optional[int]
	MinThroughputMBps  Optional[float64]
	MaxThroughputMBps  Optional[float64]
	Features           map[string]struct{}
	Certifications     map[string]struct{}
}

// NetworkOption is a catalog record for one (provider, region, service
// type) returned by list_network_options.
type NetworkOption struct {
	Provider        Provider
	Region          Region
	ServiceType     NetworkServiceType
	LoadBalancerType Optional[string]
	CDNType          Optional[string]
	DNSType          Optional[string]
	VPNType          Optional[string]
	TransitType      Optional[string]
	WAFType          Optional[string]
	DDoSType         Optional[string]
	NATType          Optional[string]
	MaxBandwidthGbps Optional[float64]
	Features         map[string]struct{}
	Certifications   map[string]struct{}
}
