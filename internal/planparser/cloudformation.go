package planparser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lvonguyen/costintel/internal/model"
)

// CloudFormation resource-type sets, grounded on
// CloudFormationParser's COMPUTE_TYPES/STORAGE_TYPES/NETWORK_TYPES/DATABASE_TYPES.
var (
	cfnComputeTypes = map[string]bool{
		"AWS::EC2::Instance":                     true,
		"AWS::AutoScaling::LaunchConfiguration":   true,
		"AWS::AutoScaling::LaunchTemplate":        true,
		"AWS::ECS::TaskDefinition":                true,
		"AWS::Lambda::Function":                   true,
	}
	cfnStorageTypes = map[string]bool{
		"AWS::S3::Bucket":       true,
		"AWS::EBS::Volume":      true,
		"AWS::EFS::FileSystem":  true,
		"AWS::FSx::FileSystem":  true,
	}
	cfnNetworkTypes = map[string]bool{
		"AWS::EC2::VPC":           true,
		"AWS::EC2::Subnet":        true,
		"AWS::EC2::SecurityGroup": true,
		"AWS::EC2::RouteTable":    true,
		"AWS::EC2::VPNGateway":    true,
	}
	cfnDatabaseTypes = map[string]bool{
		"AWS::RDS::DBInstance":           true,
		"AWS::RDS::DBCluster":            true,
		"AWS::DynamoDB::Table":           true,
		"AWS::ElastiCache::CacheCluster": true,
	}
)

func cfnCategoryFor(resourceType string) model.ResourceType {
	switch {
	case cfnComputeTypes[resourceType]:
		return model.ResourceCompute
	case cfnStorageTypes[resourceType]:
		return model.ResourceStorage
	case cfnNetworkTypes[resourceType]:
		return model.ResourceNetwork
	case cfnDatabaseTypes[resourceType]:
		return model.ResourceDatabase
	default:
		return ""
	}
}

// cfnResource mirrors one entry of a template's top-level Resources map.
type cfnResource struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties" yaml:"Properties"`
	DependsOn  any            `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// cfnTemplate mirrors the subset of a CloudFormation template this parser
// reads: the Resources map.
type cfnTemplate struct {
	Resources map[string]cfnResource `json:"Resources" yaml:"Resources"`
}

// CloudFormationParser parses a single CloudFormation template document
// (JSON or YAML).
type CloudFormationParser struct {
	sourcePath string
}

// NewCloudFormationParser creates a parser attributing its output to
// sourcePath.
func NewCloudFormationParser(sourcePath string) *CloudFormationParser {
	return &CloudFormationParser{sourcePath: sourcePath}
}

// Parse parses a template document, detecting JSON vs YAML by leading
// non-whitespace byte, mirroring _load_template's suffix-based dispatch.
func (p *CloudFormationParser) Parse(content []byte, name string) (*Result, error) {
	tmpl, err := p.decodeTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("planparser: failed to parse cloudformation template %s: %w", name, err)
	}

	result := &Result{
		Name:       name,
		SourceType: SourceCloudFormation,
		SourcePath: p.sourcePath,
		GlobalTags: make(map[string]string),
	}

	ids := make([]string, 0, len(tmpl.Resources))
	for id := range tmpl.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		data := tmpl.Resources[id]
		category := cfnCategoryFor(data.Type)
		if category == "" {
			continue
		}

		props := data.Properties
		parsed := ParsedResource{
			Name:         id,
			NativeType:   data.Type,
			Type:         category,
			Tags:         cfnTags(props),
			Dependencies: cfnDependsOn(data.DependsOn),
		}

		switch category {
		case model.ResourceCompute:
			parsed.VM = buildCfnVMRequirements(id, data.Type, props)
		case model.ResourceStorage, model.ResourceDatabase:
			parsed.Storage = buildCfnStorageRequirements(data.Type, props)
		case model.ResourceNetwork:
			parsed.Network = buildCfnNetworkRequirements(data.Type, props)
		}

		result.Resources = append(result.Resources, parsed)
	}

	return result, nil
}

func (p *CloudFormationParser) decodeTemplate(content []byte) (*cfnTemplate, error) {
	trimmed := strings.TrimSpace(string(content))
	var tmpl cfnTemplate

	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(content, &tmpl); err != nil {
			return nil, err
		}
		return &tmpl, nil
	}

	if err := yaml.Unmarshal(content, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func cfnTags(props map[string]any) map[string]string {
	raw, ok := props["Tags"].([]any)
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := entry["Key"].(string)
		value, _ := entry["Value"].(string)
		if key != "" {
			out[key] = value
		}
	}
	return out
}

func cfnDependsOn(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func cfnStringProp(props map[string]any, key, fallback string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return fallback
}

func cfnFloatProp(props map[string]any, key string, fallback float64) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f
		}
	}
	return fallback
}

func buildCfnVMRequirements(id, resourceType string, props map[string]any) *model.VmRequirements {
	instanceType := cfnStringProp(props, "InstanceType", "t3.medium")
	vcpus, memoryGB := specFor(instanceType)

	return &model.VmRequirements{
		Name:     id,
		VCPUs:    vcpus,
		MemoryGB: memoryGB,
		OS:       cfnStringProp(props, "ImageId", "linux"),
	}
}

func buildCfnStorageRequirements(resourceType string, props map[string]any) *model.StorageRequirements {
	var capacity float64
	switch resourceType {
	case "AWS::S3::Bucket":
		capacity = 0 // object storage has no provisioned capacity attribute
	default:
		capacity = cfnFloatProp(props, "Size", cfnFloatProp(props, "AllocatedStorage", 0))
	}

	storageType := model.StorageBlock
	if resourceType == "AWS::S3::Bucket" {
		storageType = model.StorageObject
	} else if resourceType == "AWS::EFS::FileSystem" || resourceType == "AWS::FSx::FileSystem" {
		storageType = model.StorageFile
	}

	return &model.StorageRequirements{
		StorageType: storageType,
		CapacityGB:  capacity,
	}
}

func buildCfnNetworkRequirements(resourceType string, props map[string]any) *model.NetworkRequirements {
	serviceType := model.NetworkTransit
	switch resourceType {
	case "AWS::EC2::SecurityGroup":
		serviceType = model.NetworkWAF
	case "AWS::EC2::VPNGateway":
		serviceType = model.NetworkVPN
	}

	return &model.NetworkRequirements{
		ServiceType: serviceType,
	}
}
