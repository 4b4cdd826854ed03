package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/dataset"
)

// FeatureStats characterizes one feature within a cluster.
type FeatureStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// ClusterAnalysis is the per-cluster numeric breakdown.
type ClusterAnalysis struct {
	Size            int                     `json:"size"`
	Percentage      float64                 `json:"percentage"`
	Characteristics map[string]FeatureStats `json:"characteristics"`
}

// ClusterDetail is the human-readable summary of one cluster.
type ClusterDetail struct {
	Size            int     `json:"size"`
	Percentage      float64 `json:"percentage"`
	Characteristics string  `json:"characteristics"`
	Type            string  `json:"type"`
}

// SegmentationResult reports centroid clustering over numeric features.
type SegmentationResult struct {
	NClusters           int                        `json:"n_clusters"`
	ClusterAnalysis     map[string]ClusterAnalysis `json:"cluster_analysis"`
	ClusterDetails      []ClusterDetail            `json:"cluster_details"`
	ClusterCenters      [][]float64                `json:"cluster_centers"`
	TotalRecords        int                        `json:"total_customers"`
	FeaturesUsed        []string                   `json:"features_used"`
	SegmentationQuality float64                    `json:"segmentation_quality"`
	BusinessInsights    []string                   `json:"business_insights"`
}

// Segment clusters rows into nClusters groups over the numeric subset of the
// requested features (missing values mean-imputed, features standardized),
// then labels each cluster with a heuristic business type.
func Segment(t *dataset.Table, features []string, nClusters int) (*SegmentationResult, *Error) {
	if nClusters <= 0 {
		nClusters = config.DefaultClusterCount
	}
	cols, matrix := featureMatrix(t, features)
	if len(cols) == 0 {
		return nil, ErrNoSegmentationFeatures
	}
	if len(matrix) < nClusters {
		return nil, Errorf("Customer segmentation failed: %d rows cannot form %d clusters", len(matrix), nClusters)
	}
	standardize(matrix)

	km := kmeans(matrix, nClusters, config.DefaultModelSeed, 300)

	analysis := make(map[string]ClusterAnalysis, nClusters)
	details := make([]ClusterDetail, 0, nClusters)
	total := len(matrix)
	for c := 0; c < nClusters; c++ {
		members := make([]int, 0)
		for i, label := range km.labels {
			if label == c {
				members = append(members, i)
			}
		}
		chars := make(map[string]FeatureStats, len(cols))
		for _, col := range cols {
			vals := make([]float64, 0, len(members))
			for _, i := range members {
				if v, ok := dataset.ParseFloat(t.Cell(i, col)); ok {
					vals = append(vals, v)
				}
			}
			if len(vals) == 0 {
				continue
			}
			sorted := append([]float64(nil), vals...)
			sort.Float64s(sorted)
			chars[col] = FeatureStats{
				Mean:   meanOf(vals),
				Median: median(sorted),
				Std:    stdOf(vals),
			}
		}
		ca := ClusterAnalysis{
			Size:            len(members),
			Percentage:      float64(len(members)) / float64(total) * 100,
			Characteristics: chars,
		}
		analysis[fmt.Sprintf("cluster_%d", c)] = ca
		details = append(details, ClusterDetail{
			Size:            ca.Size,
			Percentage:      round1(ca.Percentage),
			Characteristics: describeCluster(cols, chars),
			Type:            clusterType(ca, cols),
		})
	}

	return &SegmentationResult{
		NClusters:           nClusters,
		ClusterAnalysis:     analysis,
		ClusterDetails:      details,
		ClusterCenters:      km.centers,
		TotalRecords:        total,
		FeaturesUsed:        cols,
		SegmentationQuality: km.inertia,
		BusinessInsights:    segmentInsights(details),
	}, nil
}

// describeCluster formats the top-3 positive feature means.
func describeCluster(features []string, chars map[string]FeatureStats) string {
	var parts []string
	for _, f := range features {
		if fs, ok := chars[f]; ok && fs.Mean > 0 {
			parts = append(parts, fmt.Sprintf("%s: ₹%.2f avg", f, fs.Mean))
		}
	}
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ", ")
}

// clusterType buckets a cluster into a business label. Spending features win
// over frequency features; otherwise the relative size decides.
func clusterType(ca ClusterAnalysis, features []string) string {
	spendWords := []string{"spent", "value", "amount", "revenue", "total"}
	freqWords := []string{"order", "count", "frequency"}

	spending := 0.0
	haveSpend := false
	for _, f := range features {
		if !matchesAny(strings.ToLower(f), spendWords) {
			continue
		}
		haveSpend = true
		if fs, ok := ca.Characteristics[f]; ok {
			spending += fs.Mean
		}
	}
	if haveSpend && spending > 0 {
		switch {
		case spending > 10000:
			return "High-Value Premium"
		case spending > 5000:
			return "Mid-Value Standard"
		default:
			return "Low-Value Basic"
		}
	}

	freq := 0.0
	haveFreq := false
	for _, f := range features {
		if !matchesAny(strings.ToLower(f), freqWords) {
			continue
		}
		haveFreq = true
		if fs, ok := ca.Characteristics[f]; ok {
			freq += fs.Mean
		}
	}
	if haveFreq && freq > 0 {
		switch {
		case freq > 20:
			return "High-Frequency Loyal"
		case freq > 10:
			return "Medium-Frequency Regular"
		default:
			return "Low-Frequency Occasional"
		}
	}

	switch {
	case ca.Percentage > 40:
		return "Mainstream Majority"
	case ca.Percentage < 10:
		return "Niche Minority"
	default:
		return "Standard Segment"
	}
}

// segmentInsights surfaces the largest and smallest segments and counts
// premium groups.
func segmentInsights(details []ClusterDetail) []string {
	if len(details) < 2 {
		return nil
	}
	largest, smallest := details[0], details[0]
	premium := 0
	for _, d := range details {
		if d.Size > largest.Size {
			largest = d
		}
		if d.Size < smallest.Size {
			smallest = d
		}
		lower := strings.ToLower(d.Type)
		if strings.Contains(lower, "high") || strings.Contains(lower, "premium") {
			premium++
		}
	}
	out := []string{
		fmt.Sprintf("Largest segment: %s (%d items, %.1f%%)", largest.Type, largest.Size, largest.Percentage),
		fmt.Sprintf("Smallest segment: %s (%d items, %.1f%%)", smallest.Type, smallest.Size, smallest.Percentage),
	}
	if premium > 0 {
		out = append(out, fmt.Sprintf("High-value segments identified: %d premium groups", premium))
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
