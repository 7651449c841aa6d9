// Package snapshot keeps the local SQLite knowledge base in sync with
// the shared R2 snapshot: the scrape leader uploads after a rescrape,
// followers poll the object's ETag and hot-swap their database when it
// changes.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/r2client"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

// ErrNotFound indicates no snapshot exists in R2.
var ErrNotFound = errors.New("snapshot: not found")

// dbFileName is the name the downloaded knowledge base gets on disk.
const dbFileName = "hua.db"

// Config holds snapshot manager configuration.
type Config struct {
	SnapshotKey  string        // R2 object key for the snapshot (e.g. "snapshots/hua.db.zst")
	LockKey      string        // R2 object key for the scrape leader lock
	LockTTL      time.Duration // TTL for the leader lock
	PollInterval time.Duration // how often followers check for a new snapshot
	TempDir      string        // directory for staging files
}

// Manager synchronizes the SQLite knowledge base with the R2 snapshot.
type Manager struct {
	client  *r2client.Client
	config  Config
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu          sync.RWMutex
	currentETag string

	pollCancel context.CancelFunc
	pollDone   chan struct{}

	leaderMu    sync.Mutex
	leaderLock  *r2client.DistributedLock
	renewCancel context.CancelFunc
	renewDone   chan struct{}
}

// New creates a snapshot manager.
func New(client *r2client.Client, cfg Config, log *logger.Logger, m *metrics.Metrics) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Manager{
		client:   client,
		config:   cfg,
		logger:   log.WithModule("snapshot"),
		metrics:  m,
		pollDone: make(chan struct{}),
	}
}

// DownloadSnapshot downloads and decompresses the latest snapshot into
// destDir. Returns the path to the database file and the snapshot ETag,
// or ErrNotFound when the bucket holds no snapshot yet.
func (m *Manager) DownloadSnapshot(ctx context.Context, destDir string) (string, string, error) {
	start := time.Now()

	body, etag, err := m.client.Download(ctx, m.config.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return "", "", ErrNotFound
		}
		m.recordSync("download", "error", start)
		return "", "", fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	dbPath := filepath.Join(destDir, dbFileName)
	if err := r2client.DecompressStream(body, dbPath); err != nil {
		m.recordSync("download", "error", start)
		return "", "", fmt.Errorf("decompress snapshot: %w", err)
	}

	m.setETag(etag)
	m.recordSync("download", "success", start)
	return dbPath, etag, nil
}

// UploadSnapshot takes a consistent copy of db, compresses it and
// uploads it as the new shared snapshot. Returns the uploaded ETag.
func (m *Manager) UploadSnapshot(ctx context.Context, db *storage.DB) (string, error) {
	start := time.Now()

	stagePath := filepath.Join(m.config.TempDir, fmt.Sprintf("hua_snapshot_%d.db", time.Now().UnixNano()))
	if err := db.CreateSnapshot(ctx, stagePath); err != nil {
		m.recordSync("upload", "error", start)
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(stagePath)

	compressedPath := stagePath + ".zst"
	if err := r2client.CompressFile(stagePath, compressedPath); err != nil {
		m.recordSync("upload", "error", start)
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	defer os.Remove(compressedPath)

	compressed, err := os.Open(compressedPath)
	if err != nil {
		m.recordSync("upload", "error", start)
		return "", fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer compressed.Close()

	etag, err := m.client.Upload(ctx, m.config.SnapshotKey, compressed, "application/zstd")
	if err != nil {
		m.recordSync("upload", "error", start)
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	m.setETag(etag)
	m.recordSync("upload", "success", start)
	m.logger.WithField("etag", etag).Infof("Snapshot uploaded")
	return etag, nil
}

// AcquireLeaderLock attempts to become the scrape leader. On success a
// background goroutine keeps renewing the lock until it is released.
func (m *Manager) AcquireLeaderLock(ctx context.Context) (bool, error) {
	lock := r2client.NewDistributedLock(m.client, m.config.LockKey, m.config.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil || !acquired {
		return acquired, err
	}

	m.leaderMu.Lock()
	if m.renewCancel != nil {
		m.renewCancel()
		if m.renewDone != nil {
			<-m.renewDone
		}
	}
	m.leaderLock = lock
	renewCtx, cancel := context.WithCancel(ctx)
	m.renewCancel = cancel
	m.renewDone = make(chan struct{})
	go m.renewLoop(renewCtx, lock, m.renewDone)
	m.leaderMu.Unlock()

	return true, nil
}

// ReleaseLeaderLock stops lock renewal and releases the leader lock.
func (m *Manager) ReleaseLeaderLock(ctx context.Context) error {
	m.leaderMu.Lock()
	lock := m.leaderLock
	cancel := m.renewCancel
	done := m.renewDone
	m.leaderLock = nil
	m.renewCancel = nil
	m.renewDone = nil
	m.leaderMu.Unlock()

	if cancel != nil {
		cancel()
		if done != nil {
			<-done
		}
	}

	if lock == nil {
		return nil
	}
	return lock.Release(ctx)
}

// StartPolling starts the follower loop: whenever the remote ETag
// changes, download the new snapshot and hot-swap it into hotSwapDB.
func (m *Manager) StartPolling(ctx context.Context, hotSwapDB *storage.HotSwapDB, destDir string) {
	pollCtx, cancel := context.WithCancel(ctx)
	m.pollCancel = cancel

	go func() {
		defer close(m.pollDone)

		ticker := time.NewTicker(m.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				m.logger.Infof("Snapshot polling stopped")
				return
			case <-ticker.C:
				m.pollOnce(pollCtx, hotSwapDB, destDir)
			}
		}
	}()

	m.logger.WithField("interval", m.config.PollInterval).
		WithField("snapshot_key", m.config.SnapshotKey).
		Infof("Snapshot polling started")
}

// pollOnce hot-swaps the database when the remote snapshot changed.
func (m *Manager) pollOnce(ctx context.Context, hotSwapDB *storage.HotSwapDB, destDir string) {
	currentETag := m.CurrentETag()

	remoteETag, err := m.client.HeadObject(ctx, m.config.SnapshotKey)
	if err != nil {
		if !errors.Is(err, r2client.ErrNotFound) {
			m.logger.WithError(err).Warnf("Snapshot poll: head object failed")
		}
		return
	}
	if remoteETag == currentETag {
		return
	}

	m.logger.WithField("old_etag", currentETag).
		WithField("new_etag", remoteETag).
		Infof("New snapshot detected, starting hot-swap")

	start := time.Now()

	// Unique path so a half-written download never clobbers the live file.
	newDBPath := filepath.Join(destDir, fmt.Sprintf("hua_%d.db", time.Now().UnixNano()))

	body, _, err := m.client.Download(ctx, m.config.SnapshotKey)
	if err != nil {
		m.logger.WithError(err).Errorf("Snapshot poll: download failed")
		m.recordSync("download", "error", start)
		return
	}
	defer body.Close()

	if err := r2client.DecompressStream(body, newDBPath); err != nil {
		m.logger.WithError(err).Errorf("Snapshot poll: decompress failed")
		m.recordSync("download", "error", start)
		os.Remove(newDBPath)
		return
	}

	if err := hotSwapDB.Swap(ctx, newDBPath); err != nil {
		m.logger.WithError(err).Errorf("Snapshot poll: hot-swap failed")
		m.recordSync("download", "error", start)
		os.Remove(newDBPath)
		os.Remove(newDBPath + "-wal")
		os.Remove(newDBPath + "-shm")
		return
	}

	m.setETag(remoteETag)
	m.recordSync("download", "success", start)
	m.logger.WithField("etag", remoteETag).Infof("Hot-swap completed")
}

// StopPolling stops the follower loop and waits for it to exit.
func (m *Manager) StopPolling() {
	if m.pollCancel != nil {
		m.pollCancel()
		<-m.pollDone
	}
}

func (m *Manager) renewLoop(ctx context.Context, lock *r2client.DistributedLock, done chan struct{}) {
	defer close(done)

	interval := m.config.LockTTL / 3
	if interval < 10*time.Second {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewed, err := lock.Renew(ctx)
			if err != nil {
				m.logger.WithError(err).Warnf("Leader lock renew failed")
				return
			}
			if !renewed {
				m.logger.Warnf("Leader lock lost during renew")
				return
			}
		}
	}
}

// CurrentETag returns the ETag of the currently loaded snapshot.
func (m *Manager) CurrentETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentETag
}

// SetCurrentETag seeds the ETag, used when starting from a local file.
func (m *Manager) SetCurrentETag(etag string) {
	m.setETag(etag)
}

func (m *Manager) setETag(etag string) {
	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()
}

func (m *Manager) recordSync(direction, status string, start time.Time) {
	if m.metrics != nil {
		m.metrics.RecordSnapshotSync(direction, status, time.Since(start).Seconds())
	}
}
