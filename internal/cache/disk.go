package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tonegate/tonegate/internal/speech"
)

// DiskOptions configures the on-disk store.
type DiskOptions struct {
	Dir           string
	MaxAge        time.Duration // entries older than this are pruned
	MaxBytes      int64         // total artifact size cap, oldest-access first
	PruneInterval time.Duration // zero disables the background prune loop
}

// Disk persists encoded artifacts as files under a cache directory with a
// SQLite index carrying access times for eviction. Artifacts survive
// restarts; the index is rebuilt lazily in the sense that a missing file
// simply turns its row into a miss and removes it.
type Disk struct {
	dir    string
	db     *sql.DB
	opts   DiskOptions
	logger *slog.Logger
	clock  func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OpenDisk initializes the cache directory, the index, and the prune loop.
func OpenDisk(ctx context.Context, opts DiskOptions, log *slog.Logger) (*Disk, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", filepath.Join(opts.Dir, "index.db"))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache index: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache index: %w", err)
	}

	d := &Disk{
		dir:    opts.Dir,
		db:     db,
		opts:   opts,
		logger: log.With(slog.String("component", "disk-cache")),
		clock:  time.Now,
	}
	if err := d.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	if opts.PruneInterval > 0 {
		d.wg.Add(1)
		go d.pruneLoop(loopCtx)
	}
	return d, nil
}

func (d *Disk) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS artifacts (
    key TEXT PRIMARY KEY,
    format TEXT NOT NULL,
    size INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    last_access TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_access ON artifacts(last_access);
`
	_, err := d.db.ExecContext(ctx, ddl)
	return err
}

func (d *Disk) path(key string, format speech.AudioFormat) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s.%s", key, format))
}

func (d *Disk) Get(ctx context.Context, key string) (*Entry, bool) {
	var format string
	var created string
	err := d.db.QueryRowContext(ctx,
		`SELECT format, created_at FROM artifacts WHERE key = ?`, key).Scan(&format, &created)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(d.path(key, speech.AudioFormat(format)))
	if err != nil {
		// Index row without its file: drop the row, report a miss.
		_, _ = d.db.ExecContext(ctx, `DELETE FROM artifacts WHERE key = ?`, key)
		return nil, false
	}

	_, _ = d.db.ExecContext(ctx,
		`UPDATE artifacts SET last_access = ? WHERE key = ?`, d.clock().UTC(), key)

	entry := &Entry{Key: key, Bytes: data, Format: speech.AudioFormat(format)}
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		entry.CreatedAt = ts
	}
	return entry, true
}

func (d *Disk) Put(ctx context.Context, entry *Entry) error {
	target := d.path(entry.Key, entry.Format)

	// Temp-then-rename so a concurrent reader never sees a torn artifact.
	tmp, err := os.CreateTemp(d.dir, "put-*")
	if err != nil {
		return fmt.Errorf("cache temp file: %w", err)
	}
	if _, err := tmp.Write(entry.Bytes); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache write: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache rename: %w", err)
	}

	now := d.clock().UTC()
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO artifacts(key, format, size, created_at, last_access)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		     format = excluded.format,
		     size = excluded.size,
		     last_access = excluded.last_access`,
		entry.Key, string(entry.Format), int64(len(entry.Bytes)), createdAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("cache index insert: %w", err)
	}
	return nil
}

func (d *Disk) pruneLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.opts.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.prune(ctx); err != nil {
				d.logger.Warn("cache prune failed", slog.String("error", err.Error()))
			}
		}
	}
}

// prune enforces the age cap and then the size cap, evicting least
// recently accessed artifacts first.
func (d *Disk) prune(ctx context.Context) error {
	now := d.clock().UTC()

	if d.opts.MaxAge > 0 {
		cutoff := now.Add(-d.opts.MaxAge)
		if err := d.evictWhere(ctx,
			`SELECT key, format FROM artifacts WHERE last_access < ?`, cutoff); err != nil {
			return err
		}
	}

	if d.opts.MaxBytes > 0 {
		var total sql.NullInt64
		if err := d.db.QueryRowContext(ctx,
			`SELECT SUM(size) FROM artifacts`).Scan(&total); err != nil {
			return err
		}
		over := total.Int64 - d.opts.MaxBytes
		for over > 0 {
			var key, format string
			var size int64
			err := d.db.QueryRowContext(ctx,
				`SELECT key, format, size FROM artifacts ORDER BY last_access ASC LIMIT 1`).
				Scan(&key, &format, &size)
			if err != nil {
				break
			}
			if err := d.evict(ctx, key, speech.AudioFormat(format)); err != nil {
				return err
			}
			over -= size
		}
	}
	return nil
}

func (d *Disk) evictWhere(ctx context.Context, query string, args ...any) error {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	type victim struct {
		key    string
		format string
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.key, &v.format); err != nil {
			rows.Close()
			return err
		}
		victims = append(victims, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, v := range victims {
		if err := d.evict(ctx, v.key, speech.AudioFormat(v.format)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Disk) evict(ctx context.Context, key string, format speech.AudioFormat) error {
	if err := os.Remove(d.path(key, format)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM artifacts WHERE key = ?`, key); err != nil {
		return err
	}
	d.logger.Debug("pruned cache artifact", slog.String("key", key))
	return nil
}

// Close stops the prune loop and closes the index.
func (d *Disk) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	return d.db.Close()
}
