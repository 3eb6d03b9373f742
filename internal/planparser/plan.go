// Package planparser extracts infrastructure requirements from Terraform
// and CloudFormation source files, grounded on
// original_source/resource-requirements-parser's TerraformParser and
// CloudFormationParser: the same prefix-keyed resource categorization and
// per-category requirement extraction, re-typed onto
// model.{Vm,Storage,Network}Requirements instead of the original's
// pydantic ComputeRequirements/StorageRequirements/NetworkRequirements, so
// a parsed plan can be fed directly into the comparison and selection
// engines.
package planparser

import (
	"time"

	"github.com/lvonguyen/costintel/internal/model"
)

// SourceType identifies the infrastructure-as-code dialect a Result was
// parsed from.
type SourceType string

const (
	SourceTerraform      SourceType = "terraform"
	SourceCloudFormation SourceType = "cloudformation"
)

// ParsedResource is one infrastructure-as-code resource block whose type
// planparser maps onto a category; blocks of other types are skipped by the
// parsers. At most one of VM/Storage/Network is set (mirroring
// model.Resource's one-bucket invariant): compute resources carry VM,
// storage resources carry Storage, network resources carry Network,
// CloudFormation database resources carry Storage, and Terraform database
// resources carry none of the three.
type ParsedResource struct {
	Name         string
	NativeType   string // e.g. "aws_instance", "AWS::EC2::Instance"
	Type         model.ResourceType
	Tags         map[string]string
	Dependencies []string

	VM      *model.VmRequirements
	Storage *model.StorageRequirements
	Network *model.NetworkRequirements
}

// Result is the full output of parsing one infrastructure definition file
// or directory.
type Result struct {
	Name         string
	SourceType   SourceType
	SourcePath   string
	Resources    []ParsedResource
	GlobalTags   map[string]string
	Warnings     []string
	GeneratedAt  time.Time
}

// ResourcesByType returns every resource whose category matches t.
func (r *Result) ResourcesByType(t model.ResourceType) []ParsedResource {
	var out []ParsedResource
	for _, res := range r.Resources {
		if res.Type == t {
			out = append(out, res)
		}
	}
	return out
}

// instanceSpec is one entry of the common cloud-instance-type -> (vCPU,
// memory) lookup table used when a compute resource names an instance type
// but not explicit CPU/memory attributes.
type instanceSpec struct {
	vCPUs    float64
	memoryGB float64
}

// instanceSpecs covers the common general-purpose families across AWS,
// Azure, and GCP; an unrecognized instance type falls back to a
// conservative 2 vCPU / 8 GiB estimate rather than failing the parse.
var instanceSpecs = map[string]instanceSpec{
	"t3.micro":            {2, 1},
	"t3.small":            {2, 2},
	"t3.medium":           {2, 4},
	"t3.large":            {2, 8},
	"t3.xlarge":           {4, 16},
	"m5.large":            {2, 8},
	"m5.xlarge":           {4, 16},
	"m5.2xlarge":          {8, 32},
	"m5.4xlarge":          {16, 64},
	"c5.large":            {2, 4},
	"c5.xlarge":           {4, 8},
	"c5.2xlarge":          {8, 16},
	"r5.large":            {2, 16},
	"r5.xlarge":           {4, 32},
	"Standard_B2s":        {2, 4},
	"Standard_B2ms":       {2, 8},
	"Standard_D2s_v3":     {2, 8},
	"Standard_D4s_v3":     {4, 16},
	"Standard_D8s_v3":     {8, 32},
	"Standard_F2s_v2":     {2, 4},
	"Standard_F4s_v2":     {4, 8},
	"e2-micro":            {0.25, 1},
	"e2-small":            {0.5, 2},
	"e2-medium":           {1, 4},
	"e2-standard-2":       {2, 8},
	"e2-standard-4":       {4, 16},
	"n2-standard-2":       {2, 8},
	"n2-standard-4":       {4, 16},
	"n2-standard-8":       {8, 32},
}

// specFor looks up an instance type's (vCPU, memory) pair, falling back to
// a conservative default for unrecognized types.
func specFor(instanceType string) (vcpus, memoryGB float64) {
	if spec, ok := instanceSpecs[instanceType]; ok {
		return spec.vCPUs, spec.memoryGB
	}
	return 2, 8
}
