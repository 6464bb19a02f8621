package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhng/qaboard/internal/model"
)

// testNow is 2024-03-13, a Wednesday. The current week runs Monday
// 2024-03-11 through Sunday 2024-03-17.

func dueReport(id string, due *time.Time) model.Report {
	return model.Report{ID: id, Title: id, Status: model.StatusNew, DueDate: due}
}

func ptr(t time.Time) *time.Time { return &t }

func TestDueBucketOf_boundaries(t *testing.T) {
	tests := []struct {
		name string
		due  *time.Time
		want string
	}{
		{"nil due date", nil, BucketNoDue},
		{"last year", ptr(testNow.AddDate(-1, 0, 0)), BucketOverdue},
		{"yesterday end of day", ptr(time.Date(2024, 3, 12, 23, 59, 59, 0, time.UTC)), BucketOverdue},
		{"today midnight", ptr(time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)), BucketToday},
		{"today end of day", ptr(time.Date(2024, 3, 13, 23, 59, 59, 0, time.UTC)), BucketToday},
		{"tomorrow midnight", ptr(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)), BucketThisWeek},
		{"sunday evening", ptr(time.Date(2024, 3, 17, 23, 0, 0, 0, time.UTC)), BucketThisWeek},
		{"next monday", ptr(time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)), BucketUpcoming},
		{"far future", ptr(testNow.AddDate(1, 0, 0)), BucketUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DueBucketOf(tt.due, testNow))
		})
	}
}

func TestDueBucketOf_monday_has_no_earlier_week_days(t *testing.T) {
	// When today is Monday, "This Week" starts tomorrow and still ends
	// the coming Sunday.
	monday := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, BucketToday, DueBucketOf(ptr(monday), monday))
	assert.Equal(t, BucketThisWeek,
		DueBucketOf(ptr(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)), monday))
	assert.Equal(t, BucketThisWeek,
		DueBucketOf(ptr(time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)), monday))
	assert.Equal(t, BucketUpcoming,
		DueBucketOf(ptr(time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)), monday))
}

func TestDueBucketOf_is_a_partition(t *testing.T) {
	// Every dated record lands in exactly one of the four dated
	// buckets; every undated record lands in noDue and nowhere else.
	var dues []*time.Time
	for d := -30; d <= 30; d++ {
		dues = append(dues, ptr(testNow.AddDate(0, 0, d)))
	}
	dues = append(dues, nil)

	for _, due := range dues {
		got := DueBucketOf(due, testNow)
		if due == nil {
			assert.Equal(t, BucketNoDue, got)
			continue
		}
		assert.Contains(t,
			[]string{BucketOverdue, BucketToday, BucketThisWeek, BucketUpcoming},
			got, "due %v", due)
	}
}

func TestPartition_by_due_date_scenario(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	in := []model.Report{
		dueReport("1", &yesterday),
		dueReport("2", nil),
	}

	buckets := Partition(in, GroupByDueDate, testNow)
	byKey := make(map[string]Bucket, len(buckets))
	for _, b := range buckets {
		byKey[b.Key] = b
	}

	require.Len(t, byKey[BucketOverdue].Reports, 1)
	assert.Equal(t, "1", byKey[BucketOverdue].Reports[0].ID)

	require.Len(t, byKey[BucketNoDue].Reports, 1)
	assert.Equal(t, "2", byKey[BucketNoDue].Reports[0].ID)

	assert.Empty(t, byKey[BucketToday].Reports)
	assert.Empty(t, byKey[BucketThisWeek].Reports)
	assert.Empty(t, byKey[BucketUpcoming].Reports)
}

func TestPartition_by_status_preserves_order_and_collects_unknown(t *testing.T) {
	in := []model.Report{
		{ID: "1", Status: model.StatusDone},
		{ID: "2", Status: model.StatusNew},
		{ID: "3", Status: ""},
		{ID: "4", Status: model.StatusNew},
	}

	buckets := Partition(in, GroupByStatus, testNow)
	require.Len(t, buckets, 4)

	assert.Equal(t, model.StatusNew, buckets[0].Key)
	require.Len(t, buckets[0].Reports, 2)
	assert.Equal(t, "2", buckets[0].Reports[0].ID)
	assert.Equal(t, "4", buckets[0].Reports[1].ID)

	assert.Equal(t, model.StatusInProgress, buckets[1].Key)
	assert.Empty(t, buckets[1].Reports)

	assert.Equal(t, model.StatusDone, buckets[2].Key)
	require.Len(t, buckets[2].Reports, 1)

	assert.Equal(t, BucketUnknown, buckets[3].Key)
	require.Len(t, buckets[3].Reports, 1)
	assert.Equal(t, "3", buckets[3].Reports[0].ID)
}

func TestPartition_by_site_orders_by_first_appearance(t *testing.T) {
	in := []model.Report{
		{ID: "1", Site: "landing"},
		{ID: "2", Site: "shop"},
		{ID: "3", Site: "landing"},
		{ID: "4", Site: ""},
	}

	buckets := Partition(in, GroupBySite, testNow)
	require.Len(t, buckets, 3)
	assert.Equal(t, "landing", buckets[0].Key)
	assert.Len(t, buckets[0].Reports, 2)
	assert.Equal(t, "shop", buckets[1].Key)
	assert.Equal(t, BucketUnknown, buckets[2].Key)
}

func TestPartition_none_returns_single_bucket(t *testing.T) {
	in := testReports()

	buckets := Partition(in, GroupNone, testNow)
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[0].Reports, len(in))
}
