package vibepapers

import (
	"math"
	"sort"
)

// TopicCount pairs a topic with its frequency in a batch.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Stats summarizes one batch of papers for the daily index page.
type Stats struct {
	Total           int
	AvgUpvotes      float64
	AvgDifficulty   float64
	AvgNovelty      float64
	AvgPracticality float64
	// TopicCounts is ordered by frequency descending, ties broken by
	// first-seen order.
	TopicCounts []TopicCount
	// AllTags is the distinct tag set, sorted lexicographically.
	AllTags []string
}

// ComputeStats aggregates batch statistics. Rating means are computed only
// over papers that carry metadata; papers without metadata are excluded
// from those means rather than counted as zero. An empty batch yields a
// zeroed result.
func ComputeStats(papers []*Paper) Stats {
	stats := Stats{
		Total:       len(papers),
		TopicCounts: []TopicCount{},
		AllTags:     []string{},
	}
	if len(papers) == 0 {
		return stats
	}

	upvoteSum := 0
	var difficulties, novelties, practicalities []int
	topicCounts := map[string]int{}
	var topicOrder []string
	tagSet := map[string]struct{}{}

	for _, p := range papers {
		upvoteSum += p.Upvotes
		meta := p.Metadata
		if meta == nil {
			continue
		}
		difficulties = append(difficulties, meta.Difficulty)
		novelties = append(novelties, meta.Novelty)
		practicalities = append(practicalities, meta.Practicality)
		for _, topic := range meta.Topics {
			if _, seen := topicCounts[topic]; !seen {
				topicOrder = append(topicOrder, topic)
			}
			topicCounts[topic]++
		}
		for _, tag := range meta.Tags {
			tagSet[tag] = struct{}{}
		}
	}

	stats.AvgUpvotes = round1(float64(upvoteSum) / float64(len(papers)))
	stats.AvgDifficulty = round1(meanInt(difficulties))
	stats.AvgNovelty = round1(meanInt(novelties))
	stats.AvgPracticality = round1(meanInt(practicalities))

	for _, topic := range topicOrder {
		stats.TopicCounts = append(stats.TopicCounts, TopicCount{Topic: topic, Count: topicCounts[topic]})
	}
	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(stats.TopicCounts, func(i, j int) bool {
		return stats.TopicCounts[i].Count > stats.TopicCounts[j].Count
	})

	for tag := range tagSet {
		stats.AllTags = append(stats.AllTags, tag)
	}
	sort.Strings(stats.AllTags)

	return stats
}

// meanInt returns the arithmetic mean, or 0 for an empty slice.
func meanInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
