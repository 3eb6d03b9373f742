package normalizer

import "github.com/lvonguyen/costintel/internal/model"

// defaultMappings seeds the resource-mapping table exactly as
// original_source/cloud-cost-normalization/normalizer.py's
// _load_resource_mappings does: per-provider native type strings mapped to
// canonical types, plus the metadata projection rules used to build
// ResourceMetadata.Specifications.
func defaultMappings() []model.ResourceMapping {
	return []model.ResourceMapping{
		// AWS
		{
			Provider: model.AWS, ProviderType: "Amazon Elastic Compute Cloud",
			NormalizedType: model.ResourceCompute,
			Projections: []model.ProjectionRule{
				{Src: "instanceType", DotPath: "instance_type"},
				{Src: "operatingSystem", DotPath: "os"},
				{Src: "tenancy", DotPath: "tenancy"},
			},
		},
		{
			Provider: model.AWS, ProviderType: "Amazon Simple Storage Service",
			NormalizedType: model.ResourceStorage,
			Projections: []model.ProjectionRule{
				{Src: "storageClass", DotPath: "storage.class"},
				{Src: "volumeType", DotPath: "storage.volume_type"},
			},
		},
		{
			Provider: model.AWS, ProviderType: "Amazon Virtual Private Cloud",
			NormalizedType: model.ResourceNetwork,
			Projections: []model.ProjectionRule{
				{Src: "transferType", DotPath: "network.transfer_type"},
			},
		},
		{
			Provider: model.AWS, ProviderType: "Amazon Relational Database Service",
			NormalizedType: model.ResourceDatabase,
			Projections: []model.ProjectionRule{
				{Src: "databaseEngine", DotPath: "database.engine"},
			},
		},
		{
			Provider: model.AWS, ProviderType: "Amazon Elastic Container Service",
			NormalizedType: model.ResourceContainer,
			Projections: []model.ProjectionRule{
				{Src: "launchType", DotPath: "container.launch_type"},
			},
		},

		// Azure
		{
			Provider: model.Azure, ProviderType: "Microsoft.Compute",
			NormalizedType: model.ResourceCompute,
			Projections: []model.ProjectionRule{
				{Src: "meterSubCategory", DotPath: "instance_type"},
				{Src: "serviceTier", DotPath: "service_tier"},
			},
		},
		{
			Provider: model.Azure, ProviderType: "Microsoft.Storage",
			NormalizedType: model.ResourceStorage,
			Projections: []model.ProjectionRule{
				{Src: "skuName", DotPath: "storage.sku"},
			},
		},
		{
			Provider: model.Azure, ProviderType: "Microsoft.Network",
			NormalizedType: model.ResourceNetwork,
			Projections: []model.ProjectionRule{
				{Src: "meterName", DotPath: "network.meter"},
			},
		},
		{
			Provider: model.Azure, ProviderType: "Microsoft.Sql",
			NormalizedType: model.ResourceDatabase,
			Projections: []model.ProjectionRule{
				{Src: "skuName", DotPath: "database.sku"},
			},
		},
		{
			Provider: model.Azure, ProviderType: "Microsoft.ContainerService",
			NormalizedType: model.ResourceContainer,
			Projections: []model.ProjectionRule{
				{Src: "skuName", DotPath: "container.sku"},
			},
		},

		// GCP
		{
			Provider: model.GCP, ProviderType: "Compute Engine",
			NormalizedType: model.ResourceCompute,
			Projections: []model.ProjectionRule{
				{Src: "machineType", DotPath: "instance_type"},
			},
		},
		{
			Provider: model.GCP, ProviderType: "Cloud Storage",
			NormalizedType: model.ResourceStorage,
			Projections: []model.ProjectionRule{
				{Src: "storageClass", DotPath: "storage.class"},
			},
		},
		{
			Provider: model.GCP, ProviderType: "Networking",
			NormalizedType: model.ResourceNetwork,
			Projections: []model.ProjectionRule{
				{Src: "skuDescription", DotPath: "network.sku"},
			},
		},
		{
			Provider: model.GCP, ProviderType: "Cloud SQL",
			NormalizedType: model.ResourceDatabase,
			Projections: []model.ProjectionRule{
				{Src: "tier", DotPath: "database.tier"},
			},
		},
		{
			Provider: model.GCP, ProviderType: "Kubernetes Engine",
			NormalizedType: model.ResourceContainer,
			Projections: []model.ProjectionRule{
				{Src: "nodeType", DotPath: "container.node_type"},
			},
		},
	}
}
