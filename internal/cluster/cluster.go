// Package cluster groups unit vectors by cosine-distance density. Used
// after enrichment batches to assign face identity clusters and scene
// appearance clusters. A pair of vectors within epsilon already forms a
// cluster; anything not reachable from such a pair is noise. Re-running
// over an unchanged input yields the identical partition.
package cluster

import (
	"sort"

	"github.com/google/uuid"
	"github.com/viterin/vek/vek32"
	"gonum.org/v1/gonum/floats"
)

const (
	// NoiseID marks points not dense enough to join any cluster.
	NoiseID = -1
	// NoiseOrder sits strictly above any real cosine distance, which
	// is bounded by [0, 2], so noise always sorts last.
	NoiseOrder = 999.0
)

// Point is one vector to cluster. All vectors in a call must share a
// dimension.
type Point struct {
	ID     uuid.UUID
	Vector []float32
}

// Assignment is the resulting membership for one point. Order is the
// cosine distance to the cluster centroid (most representative first);
// noise gets NoiseID and NoiseOrder.
type Assignment struct {
	ID        uuid.UUID
	ClusterID int
	Order     float64
}

type Config struct {
	// Epsilon is the merge radius in cosine distance. Smaller values
	// produce more, tighter clusters.
	Epsilon float64
	// MinClusterSize is the minimum group size; 2 means any matching
	// pair clusters.
	MinClusterSize int
}

// Run clusters the points density-wise. Cluster IDs are dense integers
// from 0 assigned by size descending (ties by first appearance), so
// cluster 0 is always the largest.
func Run(points []Point, cfg Config) []Assignment {
	n := len(points)
	if n == 0 {
		return nil
	}
	if cfg.MinClusterSize < 2 {
		cfg.MinClusterSize = 2
	}

	adj := buildAdjacency(points, cfg.Epsilon)

	core := make([]bool, n)
	for i := range points {
		core[i] = len(adj[i])+1 >= cfg.MinClusterSize
	}

	// Flood fill from core points in input order. Border points join
	// the first cluster that reaches them but never expand it.
	labels := make([]int, n)
	for i := range labels {
		labels[i] = NoiseID
	}
	nextLabel := 0
	for i := 0; i < n; i++ {
		if labels[i] != NoiseID || !core[i] {
			continue
		}
		labels[i] = nextLabel
		queue := []int{i}
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if !core[p] {
				continue
			}
			for _, q := range adj[p] {
				if labels[q] == NoiseID {
					labels[q] = nextLabel
					queue = append(queue, q)
				}
			}
		}
		nextLabel++
	}

	remap := remapBySize(labels, nextLabel)
	orders := centroidOrders(points, labels, nextLabel)

	out := make([]Assignment, n)
	for i, p := range points {
		if labels[i] == NoiseID {
			out[i] = Assignment{ID: p.ID, ClusterID: NoiseID, Order: NoiseOrder}
			continue
		}
		out[i] = Assignment{ID: p.ID, ClusterID: remap[labels[i]], Order: orders[i]}
	}
	return out
}

func buildAdjacency(points []Point, epsilon float64) [][]int {
	n := len(points)
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := 1 - float64(vek32.Dot(points[i].Vector, points[j].Vector))
			if dist <= epsilon {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}
	return adj
}

// remapBySize maps raw labels to dense IDs ordered by cluster size
// descending. Raw labels are created in first-appearance order, which
// breaks size ties deterministically.
func remapBySize(labels []int, numLabels int) map[int]int {
	sizes := make([]int, numLabels)
	for _, l := range labels {
		if l != NoiseID {
			sizes[l]++
		}
	}
	order := make([]int, numLabels)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if sizes[order[a]] != sizes[order[b]] {
			return sizes[order[a]] > sizes[order[b]]
		}
		return order[a] < order[b]
	})
	remap := make(map[int]int, numLabels)
	for dense, raw := range order {
		remap[raw] = dense
	}
	return remap
}

// centroidOrders computes each member's cosine distance to its cluster
// centroid (mean renormalized to unit length). Sums accumulate in
// float64 so member order does not move with float32 rounding.
func centroidOrders(points []Point, labels []int, numLabels int) []float64 {
	if numLabels == 0 {
		return make([]float64, len(points))
	}
	dim := len(points[0].Vector)

	sums := make([][]float64, numLabels)
	counts := make([]int, numLabels)
	member := make([]float64, dim)
	for i, p := range points {
		l := labels[i]
		if l == NoiseID {
			continue
		}
		if sums[l] == nil {
			sums[l] = make([]float64, dim)
		}
		for d, v := range p.Vector {
			member[d] = float64(v)
		}
		floats.Add(sums[l], member)
		counts[l]++
	}

	centroids := make([][]float32, numLabels)
	for l, sum := range sums {
		if sum == nil {
			continue
		}
		floats.Scale(1/float64(counts[l]), sum)
		norm := floats.Norm(sum, 2)
		if norm > 0 {
			floats.Scale(1/norm, sum)
		}
		c := make([]float32, dim)
		for d, v := range sum {
			c[d] = float32(v)
		}
		centroids[l] = c
	}

	orders := make([]float64, len(points))
	for i, p := range points {
		l := labels[i]
		if l == NoiseID {
			continue
		}
		orders[i] = 1 - float64(vek32.Dot(p.Vector, centroids[l]))
	}
	return orders
}
