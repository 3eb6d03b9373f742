package model

// Provider is the closed-but-extensible set of supported cloud providers.
type Provider string

const (
	AWS   Provider = "aws"
	Azure Provider = "azure"
	GCP   Provider = "gcp"
)

// Region is an opaque provider-scoped identifier; the pair (Provider,
// Region) locates a catalog scope.
type Region string

// ResourceType is the canonical, provider-neutral resource classification.
type ResourceType string

const (
	ResourceCompute      ResourceType = "compute"
	ResourceStorage      ResourceType = "storage"
	ResourceNetwork      ResourceType = "network"
	ResourceDatabase     ResourceType = "database"
	ResourceContainer    ResourceType = "container"
	ResourceServerless   ResourceType = "serverless"
	ResourceCache        ResourceType = "cache"
	ResourceQueue        ResourceType = "queue"
	ResourceLoadBalancer ResourceType = "load_balancer"
	ResourceDNS          ResourceType = "dns"
	ResourceCDN          ResourceType = "cdn"
	ResourceMonitoring   ResourceType = "monitoring"
	ResourceSecurity     ResourceType = "security"
	ResourceIAM          ResourceType = "iam"
	ResourceOther        ResourceType = "other"
)

// ProjectionRule describes how one provider-native field is written into
// ResourceMetadata.Specifications: Src is the raw field name, DotPath is
// the destination "a.b.c" path.
type ProjectionRule struct {
	Src     string
	DotPath string
}

// ResourceMapping binds one provider-native resource-type string to a
// canonical ResourceType plus the metadata projection rules for that type.
// Invariant: an unknown (Provider, ProviderType) pair is a configuration
// error that must list the mappings that do exist (ResourceMappingError).
type ResourceMapping struct {
	Provider       Provider
	ProviderType   string
	NormalizedType ResourceType
	Projections    []ProjectionRule
}
