// Package runindex persists the cross-run papers index: a JSON mapping from
// batch date to compact per-paper records, the single source of truth for
// the multi-day dashboard.
package runindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hzhou/vibepapers/internal/dateutil"
	"github.com/hzhou/vibepapers/internal/fileutil"
)

// FileName is the index file name under the HTML output root.
const FileName = "papers_index.json"

// ErrCorruptIndex indicates the index file existed but could not be parsed.
var ErrCorruptIndex = errors.New("corrupt papers index")

// KeyMetric is one named metric carried through the index for the dashboard.
type KeyMetric struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Context string `json:"context,omitempty"`
}

// Record is the compact per-paper summary stored for one batch date.
// The metadata fields are omitted for papers without metadata; consumers
// tolerate missing optional fields and unknown extra fields.
type Record struct {
	ArxivID        string      `json:"arxiv_id"`
	Title          string      `json:"title"`
	Upvotes        int         `json:"upvotes"`
	Authors        []string    `json:"authors"`
	OneLineSummary string      `json:"one_line_summary,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	Difficulty     int         `json:"difficulty,omitempty"`
	Novelty        int         `json:"novelty,omitempty"`
	Practicality   int         `json:"practicality,omitempty"`
	Topics         []string    `json:"topics,omitempty"`
	KeyMetrics     []KeyMetric `json:"key_metrics,omitempty"`
}

// HasRatings reports whether this record carries the three ordinal ratings.
// Ratings are clamped to [1,5] at construction, so zero means absent.
func (r Record) HasRatings() bool {
	return r.Difficulty != 0
}

// Index maps ISO date strings to the batch records for that date.
// Dates are unique keys: the index grows monotonically across distinct
// dates but is idempotently replaceable for any single date.
type Index map[string][]Record

// Load reads the index from path. A missing or unparsable file yields an
// empty, usable index; the returned error is diagnostic only and must not
// abort the pipeline.
func Load(path string) (Index, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is under the configured output root
	if err != nil {
		if os.IsNotExist(err) {
			return Index{}, nil
		}
		return Index{}, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return Index{}, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if idx == nil {
		idx = Index{}
	}
	return idx, nil
}

// Upsert replaces the entry for date if present, else inserts it.
// Re-running a batch for an already-processed date overwrites that date's
// records in place rather than appending duplicates.
func (ix Index) Upsert(date string, records []Record) {
	ix[date] = records
}

// Dates returns the index keys in ascending calendar order.
func (ix Index) Dates() []string {
	dates := make([]string, 0, len(ix))
	for d := range ix {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// TotalRecords returns the record count across all dates.
func (ix Index) TotalRecords() int {
	total := 0
	for _, records := range ix {
		total += len(records)
	}
	return total
}

// Save writes the index atomically (temp file + rename) so a crash can
// never leave truncated JSON behind.
func Save(path string, ix Index) error {
	return fileutil.WriteJSONAtomic(path, ix)
}

// NearestAdjacent returns the closest earlier and closest later dates,
// within the given windows, for which an output directory already exists
// under baseDir. Either result is empty when nothing is found in that
// direction. Used to build prev/next navigation links.
func NearestAdjacent(baseDir string, day time.Time, lookbackDays, lookaheadDays int) (prev, next string) {
	for delta := 1; delta <= lookbackDays; delta++ {
		d := day.AddDate(0, 0, -delta).Format(dateutil.ISODate)
		if fileutil.DirExists(filepath.Join(baseDir, d)) {
			prev = d
			break
		}
	}
	for delta := 1; delta <= lookaheadDays; delta++ {
		d := day.AddDate(0, 0, delta).Format(dateutil.ISODate)
		if fileutil.DirExists(filepath.Join(baseDir, d)) {
			next = d
			break
		}
	}
	return prev, next
}
