package store

import "time"

// FileRecord represents one indexed filesystem path.
type FileRecord struct {
	Filename     string
	Filepath     string
	Filesize     int64
	LastModified time.Time
	IndexedAt    time.Time
}

// RefreshRun is the bookkeeping row written after each refresh pass.
type RefreshRun struct {
	ID         string
	Roots      []string
	StartedAt  time.Time
	FinishedAt time.Time
	Indexed    int
	Skipped    int
	Errors     int
}

// toUnix converts a timestamp to fractional seconds since the epoch,
// the representation used by the files table.
func toUnix(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}

func fromUnix(secs float64) time.Time {
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(secs*1e9))
}
