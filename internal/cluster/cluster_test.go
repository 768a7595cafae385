package cluster

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unit returns a 2D unit vector at the given angle. Cosine distance
// between two of these is 1-cos(delta), so angles translate directly
// into epsilon values.
func unit(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func TestRun_Empty(t *testing.T) {
	assert.Nil(t, Run(nil, Config{Epsilon: 0.2, MinClusterSize: 2}))
}

func TestRun_PairClustersOrthogonalIsNoise(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	points := []Point{
		{ID: a, Vector: unit(0)},
		{ID: b, Vector: unit(0.1)},
		{ID: c, Vector: unit(math.Pi / 2)},
	}

	got := Run(points, Config{Epsilon: 0.2, MinClusterSize: 2})
	require.Len(t, got, 3)

	assert.Equal(t, 0, got[0].ClusterID)
	assert.Equal(t, 0, got[1].ClusterID)
	assert.Equal(t, NoiseID, got[2].ClusterID)
	assert.Equal(t, NoiseOrder, got[2].Order)
	assert.Less(t, got[0].Order, NoiseOrder)
}

func TestRun_MinClusterSizeBlocksPairs(t *testing.T) {
	points := []Point{
		{ID: uuid.New(), Vector: unit(0)},
		{ID: uuid.New(), Vector: unit(0.05)},
	}

	got := Run(points, Config{Epsilon: 0.2, MinClusterSize: 3})
	require.Len(t, got, 2)
	assert.Equal(t, NoiseID, got[0].ClusterID)
	assert.Equal(t, NoiseID, got[1].ClusterID)
}

func TestRun_LargestClusterGetsIDZero(t *testing.T) {
	// The pair appears first in input order, the triple second. Size
	// descending means the triple still gets cluster 0.
	points := []Point{
		{ID: uuid.New(), Vector: unit(1.5)},
		{ID: uuid.New(), Vector: unit(1.55)},
		{ID: uuid.New(), Vector: unit(0)},
		{ID: uuid.New(), Vector: unit(0.05)},
		{ID: uuid.New(), Vector: unit(0.1)},
	}

	got := Run(points, Config{Epsilon: 0.1, MinClusterSize: 2})
	require.Len(t, got, 5)

	assert.Equal(t, 1, got[0].ClusterID)
	assert.Equal(t, 1, got[1].ClusterID)
	assert.Equal(t, 0, got[2].ClusterID)
	assert.Equal(t, 0, got[3].ClusterID)
	assert.Equal(t, 0, got[4].ClusterID)
}

func TestRun_OrderRanksCentroidProximityFirst(t *testing.T) {
	mid := uuid.New()
	points := []Point{
		{ID: uuid.New(), Vector: unit(0)},
		{ID: mid, Vector: unit(0.2)},
		{ID: uuid.New(), Vector: unit(0.4)},
	}

	got := Run(points, Config{Epsilon: 0.1, MinClusterSize: 2})
	require.Len(t, got, 3)
	for _, a := range got {
		require.Equal(t, 0, a.ClusterID)
	}

	// The middle point sits closest to the centroid.
	assert.Less(t, got[1].Order, got[0].Order)
	assert.Less(t, got[1].Order, got[2].Order)
	assert.Equal(t, mid, got[1].ID)
}

func TestRun_Deterministic(t *testing.T) {
	points := make([]Point, 0, 12)
	for i := 0; i < 6; i++ {
		points = append(points, Point{ID: uuid.New(), Vector: unit(float64(i) * 0.03)})
	}
	for i := 0; i < 6; i++ {
		points = append(points, Point{ID: uuid.New(), Vector: unit(1.2 + float64(i)*0.03)})
	}

	first := Run(points, Config{Epsilon: 0.05, MinClusterSize: 2})
	second := Run(points, Config{Epsilon: 0.05, MinClusterSize: 2})
	assert.Equal(t, first, second)
}
