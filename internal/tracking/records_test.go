package tracking

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/fitlog/internal/domain"
)

func TestRecordsMissingFileIsEmpty(t *testing.T) {
	r := NewRecords(afero.NewMemMapFs(), "/data/tracking.yaml")

	days, err := r.Load()
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestRecordsUpdateRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r := NewRecords(fsys, "/data/tracking.yaml")

	_, err := r.Update("2024-05-01", func(d *domain.DailyTracking) {
		d.Water = 750
		d.Sports = map[domain.SportKey]domain.SportEntry{domain.SportKeyGym: {Active: true, Duration: 60, Intensity: 7}}
		d.Weight = &domain.WeightEntry{Value: ptr(80.2)}
	})
	require.NoError(t, err)

	rec, err := r.Update("2024-05-01", func(d *domain.DailyTracking) { d.Water += 250 })
	require.NoError(t, err)
	assert.Equal(t, 1000, rec.Water)

	days, err := NewRecords(fsys, "/data/tracking.yaml").Load()
	require.NoError(t, err)
	got := days["2024-05-01"]
	assert.Equal(t, "2024-05-01", got.Date)
	assert.Equal(t, 1000, got.Water)
	assert.Equal(t, domain.SportEntry{Active: true, Duration: 60, Intensity: 7}, got.Sports[domain.SportKeyGym])
	assert.Equal(t, ptr(80.2), got.Weight.Value)
}

func TestRecordsRejectsBadDay(t *testing.T) {
	r := NewRecords(afero.NewMemMapFs(), "/tracking.yaml")
	_, err := r.Update("May 1", func(*domain.DailyTracking) {})
	assert.Error(t, err)
}

func TestRecordsCorruptFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/tracking.yaml", []byte("days: [unclosed"), 0o644))

	_, err := NewRecords(fsys, "/tracking.yaml").Load()
	assert.Error(t, err)
}
