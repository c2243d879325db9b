package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// logFilePrefix names every file written by the rotating logger
const logFilePrefix = "pkpd-"

// RotatingLogger is an io.Writer over weekly log files. A week starts in
// pkpd-<YYYY-Www>.log and continues in pkpd-<YYYY-Www>_NN.log each time the
// size limit is reached. Files older than the retention are pruned.
type RotatingLogger struct {
	dir         string
	retention   time.Duration
	maxFileSize int64 // 0 disables size rotation

	mu   sync.Mutex
	file *os.File
	week string
	seq  int
	size int64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRotatingLogger returns a logger writing to dir. No file is opened before
// the first write.
func NewRotatingLogger(dir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		stop:        make(chan struct{}),
	}
}

// getWeekKey returns the ISO week of t as YYYY-Www
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func fileName(week string, seq int) string {
	if seq == 0 {
		return logFilePrefix + week + ".log"
	}
	return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, seq)
}

// lastSequence returns the highest numbered file of week already on disk
func (rl *RotatingLogger) lastSequence(week string) int {
	matches, _ := filepath.Glob(filepath.Join(rl.dir, logFilePrefix+week+"_??.log"))

	last := 0
	for _, m := range matches {
		suffix := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), logFilePrefix+week+"_"), ".log")
		if n, err := strconv.Atoi(suffix); err == nil && n > last {
			last = n
		}
	}
	return last
}

// open switches to the current file of now's week, resuming the latest
// sequence left by a previous run. Caller must hold mu or own rl exclusively.
func (rl *RotatingLogger) open(now time.Time) error {
	week := getWeekKey(now)
	seq := 0
	if rl.week == week {
		seq = rl.seq
	} else {
		seq = rl.lastSequence(week)
	}

	for {
		path := filepath.Join(rl.dir, fileName(week, seq))
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		if rl.maxFileSize > 0 && size >= rl.maxFileSize {
			seq++
			continue
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		if rl.file != nil {
			rl.file.Close()
		}
		rl.file, rl.week, rl.seq, rl.size = f, week, seq, size
		return nil
	}
}

// Write appends p to the current file, rotating first when the week changed
// or when p would push the file past the size limit.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	switch {
	case rl.file == nil || rl.week != getWeekKey(now):
		if err := rl.open(now); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.size > 0 && rl.size+int64(len(p)) > rl.maxFileSize:
		rl.seq++
		if err := rl.open(now); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// pruneExpired removes log files last modified before the retention window
func (rl *RotatingLogger) pruneExpired() error {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(rl.dir, name)) == nil {
			removed++
		}
	}

	// stderr: logging through slog here would write into the file being pruned
	if removed > 0 {
		fmt.Fprintf(os.Stderr, "Removed %d expired log files\n", removed)
	}
	return nil
}

// startPruning runs pruneExpired every interval until Close
func (rl *RotatingLogger) startPruning(interval time.Duration) {
	rl.done = make(chan struct{})
	go func() {
		defer close(rl.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				if err := rl.pruneExpired(); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to prune logs: %v\n", err)
				}
			}
		}
	}()
}

// Close stops pruning and closes the current file. It is safe to call twice.
func (rl *RotatingLogger) Close() error {
	var err error
	rl.closeOnce.Do(func() {
		close(rl.stop)
		if rl.done != nil {
			<-rl.done
		}

		rl.mu.Lock()
		defer rl.mu.Unlock()
		if rl.file != nil {
			err = rl.file.Close()
			rl.file = nil
		}
	})
	return err
}
