package utils

import (
	"runtime"
	"sync"
)

// PartitionMap splits an index range [0, MaxIndex) into ParallelDegree contiguous buckets
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for bn := range pm.Partitions {
		pm.Partitions[bn] = pm.split(bn)
	}
	return
}

// ParallelDegree picks the number of go routines used for a loop over maxIndex items.
// A ProcLimit of zero uses every CPU, no more routines than items are used.
func ParallelDegree(ProcLimit, maxIndex int) (NPar int) {
	if ProcLimit > 0 {
		NPar = ProcLimit
	} else {
		NPar = runtime.NumCPU()
	}
	return max(min(NPar, maxIndex), 1)
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

// split gives bucket bn its share of MaxIndex, the first MaxIndex%ParallelDegree buckets take one extra item
func (pm *PartitionMap) split(bn int) (bucket [2]int) {
	var (
		size      = pm.MaxIndex / pm.ParallelDegree
		remainder = pm.MaxIndex % pm.ParallelDegree
	)
	bucket[0] = bn*size + min(bn, remainder)
	bucket[1] = bucket[0] + size
	if bn < remainder {
		bucket[1]++
	}
	return
}

// Run calls fn once per bucket, each in its own go routine, and waits for all of them.
// A single bucket runs on the calling go routine.
func (pm *PartitionMap) Run(fn func(bn, kMin, kMax int)) {
	if pm.ParallelDegree == 1 {
		kMin, kMax := pm.GetBucketRange(0)
		fn(0, kMin, kMax)
		return
	}
	var wg sync.WaitGroup
	for np := 0; np < pm.ParallelDegree; np++ {
		wg.Add(1)
		go func(bn int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(bn)
			fn(bn, kMin, kMax)
		}(np)
	}
	wg.Wait()
}
