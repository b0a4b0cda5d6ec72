package urgency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := ref.Add(d)
	return &t
}

type record struct {
	id       string
	deadline *time.Time
}

func deadlineOf(r record) *time.Time { return r.deadline }

func ids(entries []Entry[record]) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Record.id)
	}
	return out
}

func TestComputeRemainingNoDeadline(t *testing.T) {
	assert.Nil(t, ComputeRemaining(ref, nil))
	assert.Nil(t, ComputeRemaining(time.Time{}, nil))
	assert.Equal(t, TierNoDate, Classify(nil))
}

func TestComputeRemainingHalfDay(t *testing.T) {
	deadline := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := ComputeRemaining(ref, &deadline)
	require.NotNil(t, r)
	assert.Equal(t, Remaining{Expired: false, Days: 0, Hours: 12, Minutes: 0}, *r)
	assert.Equal(t, TierUrgent, Classify(r))
}

func TestComputeRemainingPast(t *testing.T) {
	deadline := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	r := ComputeRemaining(ref, &deadline)
	require.NotNil(t, r)
	assert.Equal(t, Remaining{Expired: true}, *r)
	assert.Equal(t, TierExpired, Classify(r))
}

func TestComputeRemainingEqualInstantIsExpired(t *testing.T) {
	r := ComputeRemaining(ref, at(0))
	require.NotNil(t, r)
	assert.True(t, r.Expired)
}

func TestComputeRemainingSubMinuteIsLive(t *testing.T) {
	r := ComputeRemaining(ref, at(30*time.Second))
	require.NotNil(t, r)
	assert.False(t, r.Expired)
	assert.Equal(t, int64(0), r.TotalMinutes())
	assert.Equal(t, "0 minutes", Format(r))
}

func TestComputeRemainingRoundTrip(t *testing.T) {
	deltas := []time.Duration{
		time.Minute,
		59*time.Minute + 59*time.Second,
		23*time.Hour + 59*time.Minute,
		24 * time.Hour,
		49*time.Hour + 7*time.Minute + 31*time.Second,
		400*24*time.Hour + 3*time.Hour + 2*time.Minute,
	}
	for _, delta := range deltas {
		r := ComputeRemaining(ref, at(delta))
		require.NotNil(t, r, delta.String())
		assert.False(t, r.Expired, delta.String())
		assert.Equal(t, int64(delta/time.Minute), r.TotalMinutes(), delta.String())
		assert.GreaterOrEqual(t, r.Hours, 0)
		assert.Less(t, r.Hours, 24)
		assert.GreaterOrEqual(t, r.Minutes, 0)
		assert.Less(t, r.Minutes, 60)
	}
}

func TestExpiredIffDeadlineNotAfterReference(t *testing.T) {
	for _, delta := range []time.Duration{-48 * time.Hour, -time.Nanosecond, 0, time.Nanosecond, time.Hour} {
		r := ComputeRemaining(ref, at(delta))
		require.NotNil(t, r)
		assert.Equal(t, delta <= 0, r.Expired, delta.String())
	}
}

func TestComputeRemainingBeyondDurationRange(t *testing.T) {
	deadline := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := ComputeRemaining(time.Time{}, &deadline)
	require.NotNil(t, r)
	assert.Equal(t, Remaining{Days: 738885}, *r)

	late := deadline.Add(5*time.Hour + 7*time.Minute + 59*time.Second)
	r = ComputeRemaining(time.Time{}.Add(time.Second/2), &late)
	require.NotNil(t, r)
	assert.Equal(t, Remaining{Days: 738885, Hours: 5, Minutes: 7}, *r)

	r = ComputeRemaining(deadline, &time.Time{})
	require.NotNil(t, r)
	assert.True(t, r.Expired)
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		name string
		in   Remaining
		want Tier
	}{
		{"same day", Remaining{Hours: 3}, TierUrgent},
		{"one day", Remaining{Days: 1}, TierUrgent},
		{"one day late hours", Remaining{Days: 1, Hours: 23, Minutes: 59}, TierUrgent},
		{"two days", Remaining{Days: 2}, TierWarning},
		{"three days", Remaining{Days: 3, Hours: 23}, TierWarning},
		{"four days", Remaining{Days: 4}, TierSafe},
		{"expired ignores days", Remaining{Expired: true, Days: 9}, TierExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			assert.Equal(t, tc.want, Classify(&in))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "no deadline set", Format(nil))
	assert.Equal(t, "deadline passed", Format(&Remaining{Expired: true}))
	assert.Equal(t, "1 day and 4h", Format(&Remaining{Days: 1, Hours: 4, Minutes: 30}))
	assert.Equal(t, "3 days and 0h", Format(&Remaining{Days: 3}))
	assert.Equal(t, "5h and 7min", Format(&Remaining{Hours: 5, Minutes: 7}))
	assert.Equal(t, "42 minutes", Format(&Remaining{Minutes: 42}))
}

func TestTierBadgeAndLabel(t *testing.T) {
	assert.Equal(t, "URGENT", TierUrgent.Badge())
	assert.Equal(t, "NO DEADLINE", TierNoDate.Badge())
	assert.Equal(t, "Relaxed", TierSafe.Label())
	assert.Equal(t, "Expired", TierExpired.Label())
}

func TestRankScenario(t *testing.T) {
	records := []record{
		{id: "no-deadline"},
		{id: "expired", deadline: at(-time.Hour)},
		{id: "due-in-2-days", deadline: at(48 * time.Hour)},
	}
	entries := Rank(ref, records, deadlineOf)
	assert.Equal(t, []string{"due-in-2-days", "expired", "no-deadline"}, ids(entries))
	assert.Equal(t, TierWarning, entries[0].Tier)
	assert.Equal(t, TierExpired, entries[1].Tier)
	assert.Equal(t, TierNoDate, entries[2].Tier)
	assert.Nil(t, entries[2].Remaining)
}

func TestRankOrdersByHourKeyAndIsStable(t *testing.T) {
	records := []record{
		{id: "b-10h30", deadline: at(10*time.Hour + 30*time.Minute)},
		{id: "safe", deadline: at(10 * 24 * time.Hour)},
		{id: "a-10h05", deadline: at(10*time.Hour + 5*time.Minute)},
		{id: "none-1"},
		{id: "exp-1", deadline: at(-5 * 24 * time.Hour)},
		{id: "soon", deadline: at(20 * time.Minute)},
		{id: "exp-2", deadline: at(-time.Minute)},
		{id: "none-2"},
	}
	entries := Rank(ref, records, deadlineOf)
	// minutes do not participate in the key, so the two 10h deadlines keep input order
	assert.Equal(t, []string{"soon", "b-10h30", "a-10h05", "safe", "exp-1", "exp-2", "none-1", "none-2"}, ids(entries))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	records := []record{{id: "later", deadline: at(72 * time.Hour)}, {id: "sooner", deadline: at(time.Hour)}}
	_ = Rank(ref, records, deadlineOf)
	assert.Equal(t, "later", records[0].id)
	assert.Equal(t, "sooner", records[1].id)
}

func TestRankIsIdempotent(t *testing.T) {
	records := []record{{id: "x", deadline: at(30 * time.Hour)}, {id: "y"}, {id: "z", deadline: at(-time.Hour)}}
	assert.Equal(t, Rank(ref, records, deadlineOf), Rank(ref, records, deadlineOf))
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(ref, nil, deadlineOf))
	assert.Empty(t, Rank(ref, []record{}, deadlineOf))
}

func TestCompare(t *testing.T) {
	live := &Remaining{Days: 2}
	assert.Equal(t, 0, Compare(nil, nil))
	assert.Positive(t, Compare(nil, live))
	assert.Negative(t, Compare(live, nil))
	assert.Negative(t, Compare(live, &Remaining{Expired: true}))
	assert.Negative(t, Compare(&Remaining{Hours: 1}, live))
	assert.Equal(t, 0, Compare(&Remaining{Hours: 1, Minutes: 1}, &Remaining{Hours: 1, Minutes: 59}))
}

func TestSummarize(t *testing.T) {
	records := []record{
		{id: "urgent", deadline: at(5 * time.Hour)},
		{id: "week", deadline: at(6 * 24 * time.Hour)},
		{id: "far", deadline: at(30 * 24 * time.Hour)},
		{id: "expired", deadline: at(-time.Hour)},
		{id: "none"},
	}
	summary := Summarize(Rank(ref, records, deadlineOf))
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.WithDeadline)
	assert.Equal(t, 2, summary.DueWithinWeek)
	assert.Equal(t, 1, summary.Urgent)
	assert.Equal(t, 1, summary.Expired)
	assert.Equal(t, 2, summary.ByTier[TierSafe])
	assert.Equal(t, 1, summary.ByTier[TierNoDate])
	assert.Equal(t, 0, summary.ByTier[TierWarning])
}
