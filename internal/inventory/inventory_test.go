package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
)

func TestPutAndGetRoundTrip(t *testing.T) {
	store := NewStore()
	r := model.Resource{ID: "vm-1", Provider: model.AWS, Region: "us-east-1", Type: model.ResourceCompute}
	store.Put(r)

	got, err := store.Get(context.Background(), "vm-1")
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestGetMissingReturnsError(t *testing.T) {
	store := NewStore()
	_, err := store.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestDeleteRemovesResource(t *testing.T) {
	store := NewStore()
	store.Put(model.Resource{ID: "vm-1", Type: model.ResourceCompute})
	store.Delete("vm-1")

	_, err := store.Get(context.Background(), "vm-1")
	assert.Error(t, err)
}

func TestListFiltersByTypeAndRegionSortedByID(t *testing.T) {
	store := NewStore()
	store.Put(model.Resource{ID: "vm-b", Type: model.ResourceCompute, Region: "us-east-1"})
	store.Put(model.Resource{ID: "vm-a", Type: model.ResourceCompute, Region: "us-east-1"})
	store.Put(model.Resource{ID: "vm-other-region", Type: model.ResourceCompute, Region: "us-west-2"})
	store.Put(model.Resource{ID: "bucket-1", Type: model.ResourceStorage, Region: "us-east-1"})

	out, err := store.List(context.Background(), model.ResourceCompute, "us-east-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "vm-a", out[0].ID)
	assert.Equal(t, "vm-b", out[1].ID)
}

func TestListEmptyRegionMatchesAll(t *testing.T) {
	store := NewStore()
	store.Put(model.Resource{ID: "vm-a", Type: model.ResourceCompute, Region: "us-east-1"})
	store.Put(model.Resource{ID: "vm-b", Type: model.ResourceCompute, Region: "us-west-2"})

	out, err := store.List(context.Background(), model.ResourceCompute, "")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
