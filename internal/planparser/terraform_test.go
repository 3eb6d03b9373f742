package planparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
)

const sampleTF = `
resource "aws_instance" "web" {
  instance_type = "m5.xlarge"
  region        = "us-east-1"
  ami           = "ami-12345"

  tags = {
    team = "platform"
    env  = "prod"
  }
}

resource "aws_s3_bucket" "assets" {
  region = "us-east-1"
}

resource "aws_vpc" "main" {
  region = "us-east-1"
}

resource "aws_security_group" "web_sg" {
  region = "us-east-1"
}

resource "aws_db_instance" "primary" {
  region = "us-east-1"
}
`

func TestParseFileCategorizesResources(t *testing.T) {
	parser := NewTerraformParser("testdata")
	result, err := parser.ParseFile([]byte(sampleTF), "main.tf")
	require.NoError(t, err)

	compute := result.ResourcesByType(model.ResourceCompute)
	require.Len(t, compute, 1)
	assert.Equal(t, "aws_instance.web", compute[0].Name)
	require.NotNil(t, compute[0].VM)
	assert.Equal(t, float64(4), compute[0].VM.VCPUs)
	assert.Equal(t, float64(16), compute[0].VM.MemoryGB)
	assert.Equal(t, "platform", compute[0].Tags["team"])

	storage := result.ResourcesByType(model.ResourceStorage)
	require.Len(t, storage, 1)
	require.NotNil(t, storage[0].Storage)
	assert.Equal(t, model.StorageObject, storage[0].Storage.StorageType)

	database := result.ResourcesByType(model.ResourceDatabase)
	assert.Len(t, database, 1)
}

func TestParseFileNetworkServiceTypeMapping(t *testing.T) {
	parser := NewTerraformParser("testdata")
	result, err := parser.ParseFile([]byte(sampleTF), "main.tf")
	require.NoError(t, err)

	network := result.ResourcesByType(model.ResourceNetwork)
	require.Len(t, network, 2)

	byName := make(map[string]ParsedResource)
	for _, r := range network {
		byName[r.Name] = r
	}

	assert.Equal(t, model.NetworkTransit, byName["aws_vpc.main"].Network.ServiceType)
	assert.Equal(t, model.NetworkWAF, byName["aws_security_group.web_sg"].Network.ServiceType)
}

func TestParseFileUnknownInstanceTypeFallsBackToDefault(t *testing.T) {
	tf := `
resource "aws_instance" "mystery" {
  instance_type = "totally.unknown.type"
}
`
	parser := NewTerraformParser("testdata")
	result, err := parser.ParseFile([]byte(tf), "main.tf")
	require.NoError(t, err)

	compute := result.ResourcesByType(model.ResourceCompute)
	require.Len(t, compute, 1)
	assert.Equal(t, float64(2), compute[0].VM.VCPUs)
	assert.Equal(t, float64(8), compute[0].VM.MemoryGB)
}

func TestParseFileSkipsUnrecognizedResourceTypes(t *testing.T) {
	tf := `
resource "null_resource" "noop" {
  triggers = {
    always_run = "true"
  }
}
`
	parser := NewTerraformParser("testdata")
	result, err := parser.ParseFile([]byte(tf), "main.tf")
	require.NoError(t, err)
	assert.Empty(t, result.Resources)
}

func TestParseFileInvalidHCLReturnsError(t *testing.T) {
	parser := NewTerraformParser("testdata")
	_, err := parser.ParseFile([]byte(`resource "aws_instance" "broken" {`), "broken.tf")
	assert.Error(t, err)
}

func TestMergeResultsCombinesAndSorts(t *testing.T) {
	parser := NewTerraformParser("testdata")
	a, err := parser.ParseFile([]byte(`resource "aws_instance" "b" {}`), "a.tf")
	require.NoError(t, err)
	b, err := parser.ParseFile([]byte(`resource "aws_instance" "a" {}`), "b.tf")
	require.NoError(t, err)

	merged := MergeResults("combined", "testdata", a, b)
	require.Len(t, merged.Resources, 2)
	assert.Equal(t, "aws_instance.a", merged.Resources[0].Name)
	assert.Equal(t, "aws_instance.b", merged.Resources[1].Name)
}
