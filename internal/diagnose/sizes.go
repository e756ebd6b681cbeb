package diagnose

// SizeBucket is one histogram bucket of a message size distribution.
type SizeBucket struct {
	Label string
	Max   int // upper bound in bytes, 0 for the unbounded last bucket
	Count int
}

// SizeStats summarizes the payload sizes of a message sample.
type SizeStats struct {
	Count   int
	Min     int
	Max     int
	Total   int64
	Buckets []SizeBucket
}

// Avg returns the mean payload size of the sample, 0 when empty.
func (s SizeStats) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Total) / float64(s.Count)
}

func newBuckets() []SizeBucket {
	return []SizeBucket{
		{Label: "< 1 KB", Max: 1 << 10},
		{Label: "1-10 KB", Max: 10 << 10},
		{Label: "10-100 KB", Max: 100 << 10},
		{Label: "100 KB - 1 MB", Max: 1 << 20},
		{Label: ">= 1 MB", Max: 0},
	}
}

// SizeDistribution builds a histogram over the given payload sizes.
func SizeDistribution(sizes []int) SizeStats {
	stats := SizeStats{Buckets: newBuckets()}

	for _, size := range sizes {
		if stats.Count == 0 || size < stats.Min {
			stats.Min = size
		}
		if size > stats.Max {
			stats.Max = size
		}
		stats.Count++
		stats.Total += int64(size)

		for i := range stats.Buckets {
			if stats.Buckets[i].Max == 0 || size < stats.Buckets[i].Max {
				stats.Buckets[i].Count++
				break
			}
		}
	}

	return stats
}
