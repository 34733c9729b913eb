package tracking

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/pbaille/fitlog/internal/domain"
)

// Records stores manual daily records in a YAML file
type Records struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

type recordFile struct {
	Days map[string]domain.DailyTracking `yaml:"days"`
}

func NewRecords(fsys afero.Fs, path string) *Records {
	return &Records{fs: fsys, path: path}
}

// Load returns every record keyed by day. A missing file holds no records.
func (r *Records) Load() (map[string]domain.DailyTracking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Records) load() (map[string]domain.DailyTracking, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domain.DailyTracking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tracking file: %w", err)
	}
	var f recordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tracking file: %w", err)
	}
	if f.Days == nil {
		f.Days = map[string]domain.DailyTracking{}
	}
	for day, rec := range f.Days {
		rec.Date = day
		f.Days[day] = rec
	}
	return f.Days, nil
}

func (r *Records) save(days map[string]domain.DailyTracking) error {
	data, err := yaml.Marshal(recordFile{Days: days})
	if err != nil {
		return fmt.Errorf("encode tracking file: %w", err)
	}
	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create tracking dir: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tracking file: %w", err)
	}
	if err := r.fs.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace tracking file: %w", err)
	}
	return nil
}

// Update applies fn to the record of day, creating it if needed, and
// saves the file.
func (r *Records) Update(day string, fn func(*domain.DailyTracking)) (domain.DailyTracking, error) {
	if _, err := time.Parse(domain.DayLayout, day); err != nil {
		return domain.DailyTracking{}, fmt.Errorf("invalid day %q: want YYYY-MM-DD", day)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	days, err := r.load()
	if err != nil {
		return domain.DailyTracking{}, err
	}
	rec := days[day]
	fn(&rec)
	rec.Date = day
	days[day] = rec
	if err := r.save(days); err != nil {
		return domain.DailyTracking{}, err
	}
	return rec, nil
}
