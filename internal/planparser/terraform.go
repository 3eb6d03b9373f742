package planparser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/lvonguyen/costintel/internal/model"
)

// Terraform resource-type prefixes, mirroring TerraformParser's
// COMPUTE_PREFIXES/STORAGE_PREFIXES/NETWORK_PREFIXES/DATABASE_PREFIXES.
var (
	terraformComputePrefixes = []string{
		"aws_instance", "aws_launch_template", "aws_autoscaling_group",
		"azurerm_virtual_machine", "azurerm_linux_virtual_machine",
		"azurerm_windows_virtual_machine", "google_compute_instance",
		"google_container_cluster",
	}
	terraformStoragePrefixes = []string{
		"aws_s3_bucket", "aws_ebs_volume", "aws_efs_file_system",
		"azurerm_storage_account", "azurerm_managed_disk",
		"google_storage_bucket", "google_compute_disk",
	}
	terraformNetworkPrefixes = []string{
		"aws_vpc", "aws_subnet", "aws_security_group", "aws_route_table",
		"azurerm_virtual_network", "azurerm_subnet", "azurerm_network_security_group",
		"google_compute_network", "google_compute_subnetwork",
		"google_compute_firewall",
	}
	terraformDatabasePrefixes = []string{
		"aws_db_instance", "aws_rds_cluster", "aws_dynamodb_table",
		"azurerm_sql_server", "azurerm_mysql_server", "azurerm_postgresql_server",
		"google_sql_database_instance", "google_spanner_instance",
	}
)

func terraformCategoryFor(resourceType string) model.ResourceType {
	switch {
	case hasAnyPrefix(resourceType, terraformComputePrefixes):
		return model.ResourceCompute
	case hasAnyPrefix(resourceType, terraformStoragePrefixes):
		return model.ResourceStorage
	case hasAnyPrefix(resourceType, terraformNetworkPrefixes):
		return model.ResourceNetwork
	case hasAnyPrefix(resourceType, terraformDatabasePrefixes):
		return model.ResourceDatabase
	default:
		return ""
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// TerraformParser parses the top-level `resource "type" "name" { ... }`
// blocks of one or more .tf files' raw HCL source.
type TerraformParser struct {
	sourcePath string
}

// NewTerraformParser creates a parser attributing parsed resources to
// sourcePath (a directory or file name, used only for Result.SourcePath).
func NewTerraformParser(sourcePath string) *TerraformParser {
	return &TerraformParser{sourcePath: sourcePath}
}

// ParseFile parses one .tf file's contents (filename is used only for HCL
// diagnostics) and merges its resources into a single Result. Call
// multiple times over a directory's files to accumulate a full Result,
// mirroring _parse_terraform_files' glob-and-merge loop.
func (p *TerraformParser) ParseFile(content []byte, filename string) (*Result, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("planparser: terraform parse errors in %s: %s", filename, diags.Error())
	}

	content2, _, diags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "resource", LabelNames: []string{"type", "name"}},
		},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("planparser: failed to decode body of %s: %s", filename, diags.Error())
	}

	result := &Result{
		SourceType: SourceTerraform,
		SourcePath: p.sourcePath,
		GlobalTags: make(map[string]string),
	}

	for _, block := range content2.Blocks {
		if block.Type != "resource" || len(block.Labels) != 2 {
			continue
		}
		resourceType, name := block.Labels[0], block.Labels[1]

		category := terraformCategoryFor(resourceType)
		if category == "" {
			continue
		}

		attrs := extractAttributes(block.Body)
		parsed := ParsedResource{
			Name:         fmt.Sprintf("%s.%s", resourceType, name),
			NativeType:   resourceType,
			Type:         category,
			Tags:         stringMapAttr(attrs, "tags"),
			Dependencies: stringSliceAttr(attrs, "depends_on"),
		}

		switch category {
		case model.ResourceCompute:
			parsed.VM = buildVMRequirements(parsed.Name, resourceType, attrs)
		case model.ResourceStorage:
			parsed.Storage = buildStorageRequirements(resourceType, attrs)
		case model.ResourceNetwork:
			parsed.Network = buildNetworkRequirements(resourceType, attrs)
		}

		result.Resources = append(result.Resources, parsed)
	}

	return result, nil
}

// MergeResults combines parser outputs from multiple files into one
// Result, the Go equivalent of _merge_config's dict merge over repeated
// ParseFile calls across a directory's .tf files.
func MergeResults(name, sourcePath string, parts ...*Result) *Result {
	merged := &Result{
		Name:       name,
		SourceType: SourceTerraform,
		SourcePath: sourcePath,
		GlobalTags: make(map[string]string),
	}
	for _, part := range parts {
		if part == nil {
			continue
		}
		merged.Resources = append(merged.Resources, part.Resources...)
		for k, v := range part.GlobalTags {
			merged.GlobalTags[k] = v
		}
		merged.Warnings = append(merged.Warnings, part.Warnings...)
	}
	sort.Slice(merged.Resources, func(i, j int) bool { return merged.Resources[i].Name < merged.Resources[j].Name })
	return merged
}

// extractAttributes evaluates every top-level attribute in body with a nil
// evaluation context (static literals only; expressions that reference
// variables or other resources evaluate to an error and are skipped,
// mirroring how hcl2.load in the original returns unresolved references as
// opaque tokens rather than failing the whole parse).
func extractAttributes(body hcl.Body) map[string]any {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() && attrs == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			continue
		}
		goVal, err := ctyToGo(val)
		if err != nil {
			continue
		}
		out[name] = goVal
	}
	return out
}

// ctyToGo converts a cty.Value into plain Go values, grounded on
// driftmgr's internal/terragrunt/parser/hcl.Parser.ctyToGo.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			goVal, err := ctyToGo(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, goVal)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			goVal, err := ctyToGo(elem)
			if err != nil {
				return nil, err
			}
			out[key.AsString()] = goVal
		}
		return out, nil
	default:
		return nil, fmt.Errorf("planparser: unsupported HCL type %s", ty.FriendlyName())
	}
}

func stringAttr(attrs map[string]any, key, fallback string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return fallback
}

func floatAttr(attrs map[string]any, key string, fallback float64) float64 {
	if v, ok := attrs[key].(float64); ok {
		return v
	}
	return fallback
}

func boolAttr(attrs map[string]any, key string) bool {
	v, _ := attrs[key].(bool)
	return v
}

func stringMapAttr(attrs map[string]any, key string) map[string]string {
	raw, ok := attrs[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func stringSliceAttr(attrs map[string]any, key string) []string {
	raw, ok := attrs[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func buildVMRequirements(name, resourceType string, attrs map[string]any) *model.VmRequirements {
	instanceType := stringAttr(attrs, "instance_type", stringAttr(attrs, "size", "unknown"))
	vcpus, memoryGB := specFor(instanceType)

	return &model.VmRequirements{
		Name:     name,
		Region:   model.Region(stringAttr(attrs, "region", stringAttr(attrs, "location", ""))),
		VCPUs:    vcpus,
		MemoryGB: memoryGB,
		OS:       stringAttr(attrs, "ami", stringAttr(attrs, "image", "linux")),
	}
}

func buildStorageRequirements(resourceType string, attrs map[string]any) *model.StorageRequirements {
	capacity := floatAttr(attrs, "size", floatAttr(attrs, "allocated_storage", 0))

	return &model.StorageRequirements{
		Region:      model.Region(stringAttr(attrs, "region", stringAttr(attrs, "location", ""))),
		StorageType: terraformStorageClass(resourceType),
		CapacityGB:  capacity,
	}
}

func terraformStorageClass(resourceType string) model.StorageType {
	switch {
	case strings.Contains(resourceType, "s3") || strings.Contains(resourceType, "storage_bucket"):
		return model.StorageObject
	case strings.Contains(resourceType, "efs") || strings.Contains(resourceType, "file"):
		return model.StorageFile
	default:
		return model.StorageBlock
	}
}

func buildNetworkRequirements(resourceType string, attrs map[string]any) *model.NetworkRequirements {
	return &model.NetworkRequirements{
		Region:           model.Region(stringAttr(attrs, "region", stringAttr(attrs, "location", ""))),
		ServiceType:      terraformNetworkServiceType(resourceType),
		HighAvailability: boolAttr(attrs, "multi_az"),
		CrossRegion:      false,
	}
}

// terraformNetworkServiceType maps a raw networking resource type onto the
// closest billable NetworkServiceType the catalog prices; core constructs
// with no standalone bill (vpc, subnet, route_table) fall back to
// NetworkTransit as the nearest billable proxy.
func terraformNetworkServiceType(resourceType string) model.NetworkServiceType {
	switch {
	case strings.Contains(resourceType, "security_group") || strings.Contains(resourceType, "firewall"):
		return model.NetworkWAF
	case strings.Contains(resourceType, "vpn"):
		return model.NetworkVPN
	case strings.Contains(resourceType, "load_balancer") || strings.Contains(resourceType, "lb"):
		return model.NetworkLoadBalancer
	default:
		return model.NetworkTransit
	}
}
