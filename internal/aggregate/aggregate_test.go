package aggregate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/store"
)

var day = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func meta(conf float64) domain.Meta {
	return domain.Meta{ID: "e", Confidence: conf, Source: domain.SourceModel}
}

func noteAt(t time.Time, events ...domain.Event) domain.Note {
	return domain.Note{ID: t.String(), TS: t.UnixMilli(), Events: events}
}

func ptr(v float64) *float64 { return &v }

func TestAggregateSumsWaterAcrossNotes(t *testing.T) {
	notes := []domain.Note{
		noteAt(day, domain.Drink{Meta: meta(0.6), VolumeMl: 300, Beverage: domain.BeverageWater}),
		noteAt(day.Add(2*time.Hour), domain.Drink{Meta: meta(0.9), VolumeMl: 200, Beverage: domain.BeverageWater}),
	}

	got := Aggregate(notes, time.UTC)

	require.Contains(t, got, "2024-05-01")
	assert.Equal(t, 500, got["2024-05-01"].Water)
}

func TestAggregateSkipsPendingAndLowConfidence(t *testing.T) {
	pending := noteAt(day, domain.Pushups{Meta: meta(0.9), Count: 50})
	pending.Pending = true
	notes := []domain.Note{
		pending,
		noteAt(day.Add(time.Hour),
			domain.Protein{Meta: meta(0.49), Grams: 25},
			domain.Pushups{Meta: meta(0.5), Count: 20},
		),
		noteAt(day.Add(24*time.Hour), domain.Protein{Meta: meta(0.3), Grams: 25}),
	}

	got := Aggregate(notes, time.UTC)

	assert.Equal(t, map[string]domain.Contribution{"2024-05-01": {Pushups: 20}}, got)
}

func TestAggregateMergesSports(t *testing.T) {
	notes := []domain.Note{
		noteAt(day, domain.Workout{Meta: meta(0.8), Sport: domain.SportCardio, DurationMin: 30, Intensity: domain.IntensityEasy}),
		noteAt(day.Add(time.Hour), domain.Workout{Meta: meta(0.8), Sport: domain.SportCardio, Intensity: domain.IntensityHard}),
		noteAt(day.Add(2*time.Hour), domain.Workout{Meta: meta(0.8), Sport: domain.SportCardio, DurationMin: 15}),
		noteAt(day.Add(3*time.Hour),
			domain.Workout{Meta: meta(0.8), Sport: domain.SportOther},
			domain.Workout{Meta: meta(0.8), Sport: domain.SportFootball, DurationMin: 90},
			domain.Rest{Meta: meta(0.8), Reason: "sore"},
		),
	}

	got := Aggregate(notes, time.UTC)["2024-05-01"]

	assert.Equal(t, domain.SportEntry{Active: true, Duration: 45, Intensity: 8}, got.Sports[domain.SportKeyCardio])
	assert.Equal(t, domain.SportEntry{Active: true}, got.Sports[domain.SportKeyGym])
	assert.Equal(t, domain.SportEntry{Active: true, Duration: 90}, got.Sports[domain.SportKeySoccer])
	assert.Equal(t, domain.SportEntry{Active: true}, got.Sports[domain.SportKeyRest])
}

func TestAggregateWeightLastWriteWins(t *testing.T) {
	notes := []domain.Note{
		noteAt(day.Add(time.Hour), domain.Weight{Meta: meta(0.9), Kg: 80.6}),
		noteAt(day, domain.Weight{Meta: meta(0.9), Kg: 81.0}, domain.BodyFat{Meta: meta(0.9), Percent: 18}),
	}

	got := Aggregate(notes, time.UTC)["2024-05-01"]

	require.NotNil(t, got.Weight)
	assert.Equal(t, ptr(80.6), got.Weight.Value)
	assert.Equal(t, ptr(18), got.Weight.BodyFat)
	assert.Nil(t, got.Weight.BMI)
}

func TestAggregateFood(t *testing.T) {
	notes := []domain.Note{noteAt(day,
		domain.Food{Meta: meta(0.7), Label: "porridge", Calories: 450, ProteinG: 30, CarbsG: 60, FatG: 10},
		domain.Protein{Meta: meta(0.7), Grams: 25},
	)}

	got := Aggregate(notes, time.UTC)["2024-05-01"]

	assert.Equal(t, 55.0, got.Protein)
	assert.Equal(t, 450.0, got.Calories)
	assert.Equal(t, 60.0, got.Carbs)
	assert.Equal(t, 10.0, got.Fat)
}

func TestAggregateOmitsEmptyDays(t *testing.T) {
	notes := []domain.Note{
		noteAt(day),
		noteAt(day.Add(24*time.Hour), domain.Drink{Meta: meta(0.2), VolumeMl: 300}),
		noteAt(day.Add(48*time.Hour), domain.Food{Meta: meta(0.9), Label: "salat"}),
		noteAt(day.Add(72*time.Hour),
			domain.Drink{Meta: meta(0.9), VolumeMl: 0, Beverage: domain.BeverageWater},
			domain.Pushups{Meta: meta(0.9), Count: 0},
		),
	}
	assert.Empty(t, Aggregate(notes, time.UTC))
	assert.Empty(t, Aggregate(nil, time.UTC))
}

func TestAggregateDayKeyUsesLocation(t *testing.T) {
	late := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	notes := []domain.Note{noteAt(late, domain.Pushups{Meta: meta(0.9), Count: 10})}

	assert.Contains(t, Aggregate(notes, time.UTC), "2024-05-01")
	assert.Contains(t, Aggregate(notes, time.FixedZone("CEST", 2*60*60)), "2024-05-02")
}

func TestWatcherRecomputesOnMutation(t *testing.T) {
	ctx := context.Background()
	b, err := store.OpenBlob(afero.NewMemMapFs(), "/notes.json")
	require.NoError(t, err)
	s := store.New(b, nil)

	w, err := Watch(ctx, s, time.UTC, nil)
	require.NoError(t, err)
	defer w.Close()
	assert.Empty(t, w.Snapshot())

	var changes []map[string]domain.Contribution
	w.OnChange(func(days map[string]domain.Contribution) { changes = append(changes, days) })

	n := noteAt(day, domain.Drink{Meta: meta(0.9), VolumeMl: 250})
	require.NoError(t, s.Put(ctx, n))
	assert.Equal(t, 250, w.Snapshot()["2024-05-01"].Water)

	require.NoError(t, s.Delete(ctx, n.ID))
	assert.Empty(t, w.Snapshot())
	assert.Len(t, changes, 2)

	w.Close()
	require.NoError(t, s.Put(ctx, n))
	assert.Empty(t, w.Snapshot())
}

// slowList holds one armed List call after it has read the notes, so that
// call returns older data than a List that starts later.
type slowList struct {
	store.Backend
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (b *slowList) List(ctx context.Context, before int64, limit int) ([]domain.Note, error) {
	notes, err := b.Backend.List(ctx, before, limit)
	if b.armed.CompareAndSwap(true, false) {
		close(b.entered)
		<-b.release
	}
	return notes, err
}

func TestWatcherConcurrentRefreshKeepsNewest(t *testing.T) {
	ctx := context.Background()
	blob, err := store.OpenBlob(afero.NewMemMapFs(), "/notes.json")
	require.NoError(t, err)
	b := &slowList{Backend: blob, entered: make(chan struct{}), release: make(chan struct{})}
	s := store.New(b, nil)

	w, err := Watch(ctx, s, time.UTC, nil)
	require.NoError(t, err)
	defer w.Close()

	a := noteAt(day, domain.Drink{Meta: meta(0.9), VolumeMl: 300, Beverage: domain.BeverageWater})
	c := noteAt(day.Add(time.Hour), domain.Drink{Meta: meta(0.9), VolumeMl: 200, Beverage: domain.BeverageWater})

	var wg sync.WaitGroup
	b.armed.Store(true)
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Put(ctx, a))
	}()
	<-b.entered

	second := make(chan struct{})
	go func() {
		defer close(second)
		assert.NoError(t, s.Put(ctx, c))
	}()
	select {
	case <-second:
	case <-time.After(50 * time.Millisecond):
	}
	close(b.release)
	wg.Wait()
	<-second

	notes, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, 500, w.Snapshot()["2024-05-01"].Water)
}
