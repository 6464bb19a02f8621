package board

import (
	"time"

	"github.com/minhng/qaboard/internal/model"
)

// GroupKey selects the grouping dimension for bucket partitioning.
type GroupKey string

const (
	GroupByDueDate GroupKey = "dueDate"
	GroupByStatus  GroupKey = "status"
	GroupBySite    GroupKey = "site"
	GroupNone      GroupKey = "none"
)

// GroupKeys returns the grouping dimensions in UI cycle order.
func GroupKeys() []GroupKey {
	return []GroupKey{GroupByDueDate, GroupByStatus, GroupBySite, GroupNone}
}

// Due-date bucket keys. The display titles live in BucketTitle.
const (
	BucketOverdue  = "overdue"
	BucketToday    = "today"
	BucketThisWeek = "week"
	BucketUpcoming = "upcoming"
	BucketNoDue    = "noDue"

	// BucketUnknown collects records with a missing value when
	// grouping by a literal field.
	BucketUnknown = "Unknown"
)

// DueBuckets returns the due-date bucket keys in display order.
func DueBuckets() []string {
	return []string{
		BucketOverdue, BucketToday, BucketThisWeek,
		BucketUpcoming, BucketNoDue,
	}
}

// BucketTitle maps a due-date bucket key to its section title.
func BucketTitle(key string) string {
	switch key {
	case BucketOverdue:
		return "Overdue"
	case BucketToday:
		return "Today"
	case BucketThisWeek:
		return "This Week"
	case BucketUpcoming:
		return "Upcoming"
	case BucketNoDue:
		return "No Due Date"
	}
	return key
}

// Bucket is a named, ordered group of reports sharing a group key.
// Buckets are recomputed on every change to the filtered set; they are
// never persisted. A bucket with zero members is valid and is simply
// skipped at render time.
type Bucket struct {
	Key     string
	Title   string
	Reports []model.Report
}

// startOfDay returns local midnight of the day containing t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DueBucketOf places a due date into exactly one bucket relative to
// now. The week starts Monday and runs through the end of Sunday:
//
//	Overdue:   due strictly before the start of today
//	Today:     start of today through end of today, inclusive
//	This Week: start of tomorrow through the end of Sunday, inclusive
//	Upcoming:  strictly after the end of the current week
//	No Due:    due is nil, regardless of anything else
func DueBucketOf(due *time.Time, now time.Time) string {
	if due == nil {
		return BucketNoDue
	}

	startOfToday := startOfDay(now)
	endOfToday := startOfToday.AddDate(0, 0, 1).Add(-time.Millisecond)
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)

	// Monday of the current week.
	daysSinceMonday := (int(startOfToday.Weekday()) + 6) % 7
	startOfWeek := startOfToday.AddDate(0, 0, -daysSinceMonday)
	endOfWeek := startOfWeek.AddDate(0, 0, 7).Add(-time.Millisecond)

	d := *due
	switch {
	case d.Before(startOfToday):
		return BucketOverdue
	case !d.After(endOfToday):
		return BucketToday
	case !d.Before(startOfTomorrow) && !d.After(endOfWeek):
		return BucketThisWeek
	default:
		return BucketUpcoming
	}
}

// Partition splits an already filtered/sorted sequence into buckets by
// the given key, preserving intra-bucket order from the input. Due-date
// and status grouping return their buckets in fixed display order,
// including empty ones; site grouping returns buckets in order of first
// appearance with missing values collected under "Unknown".
func Partition(
	reports []model.Report,
	key GroupKey,
	now time.Time,
) []Bucket {
	switch key {
	case GroupByDueDate:
		return partitionByDueDate(reports, now)
	case GroupByStatus:
		return partitionByStatus(reports)
	case GroupBySite:
		return partitionByField(reports, func(r model.Report) string {
			return r.Site
		})
	default:
		return []Bucket{{
			Key:     string(GroupNone),
			Title:   "All Tasks",
			Reports: reports,
		}}
	}
}

func partitionByDueDate(reports []model.Report, now time.Time) []Bucket {
	byKey := make(map[string][]model.Report)
	for _, r := range reports {
		k := DueBucketOf(r.DueDate, now)
		byKey[k] = append(byKey[k], r)
	}

	buckets := make([]Bucket, 0, len(DueBuckets()))
	for _, k := range DueBuckets() {
		buckets = append(buckets, Bucket{
			Key:     k,
			Title:   BucketTitle(k),
			Reports: byKey[k],
		})
	}
	return buckets
}

func partitionByStatus(reports []model.Report) []Bucket {
	byKey := make(map[string][]model.Report)
	var unknown []model.Report
	for _, r := range reports {
		if model.ValidStatus(r.Status) {
			byKey[r.Status] = append(byKey[r.Status], r)
		} else {
			unknown = append(unknown, r)
		}
	}

	buckets := make([]Bucket, 0, len(model.Statuses())+1)
	for _, s := range model.Statuses() {
		buckets = append(buckets, Bucket{
			Key:     s,
			Title:   model.StatusLabel(s),
			Reports: byKey[s],
		})
	}
	if len(unknown) > 0 {
		buckets = append(buckets, Bucket{
			Key:     BucketUnknown,
			Title:   BucketUnknown,
			Reports: unknown,
		})
	}
	return buckets
}

// partitionByField groups by a literal field value in order of first
// appearance.
func partitionByField(
	reports []model.Report,
	field func(model.Report) string,
) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, r := range reports {
		k := field(r)
		if k == "" {
			k = BucketUnknown
		}
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k, Title: k})
		}
		buckets[i].Reports = append(buckets[i].Reports, r)
	}
	return buckets
}
