// Package delta records an append-only changelog of scrape runs in R2.
// Each run appends one compressed JSON record of per-table row counts,
// so snapshot history stays auditable without querying old databases.
package delta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/huahelper/hua-messengerbot-go/internal/r2client"
)

// TableDelta describes how one table changed during a scrape run.
type TableDelta struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Record is one changelog entry, covering a single scrape run.
type Record struct {
	ID         string                `json:"id"`
	InstanceID string                `json:"instance_id"`
	StartedAt  int64                 `json:"started_at"`
	FinishedAt int64                 `json:"finished_at"`
	Tables     map[string]TableDelta `json:"tables"`
	Errors     []string              `json:"errors,omitempty"`
}

// ChangeLog appends scrape records to R2 under a shared prefix.
type ChangeLog struct {
	client     *r2client.Client
	prefix     string
	instanceID string
}

// NewChangeLog creates a changelog writer. The prefix groups all
// records of one deployment, e.g. "deltas".
func NewChangeLog(client *r2client.Client, prefix, instanceID string) (*ChangeLog, error) {
	if client == nil {
		return nil, errors.New("delta: r2 client is required")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("delta: prefix must not be empty")
	}
	if instanceID == "" {
		instanceID = "unknown"
	}
	return &ChangeLog{client: client, prefix: prefix, instanceID: instanceID}, nil
}

// Append uploads one scrape record. The record's ID and InstanceID are
// assigned here; callers fill in timing, table deltas and errors.
func (l *ChangeLog) Append(ctx context.Context, rec Record) error {
	rec.ID = uuid.NewString()
	rec.InstanceID = l.instanceID

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("delta: marshal record: %w", err)
	}

	compressed, err := compress(data)
	if err != nil {
		return fmt.Errorf("delta: compress record: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%d-%s.json.zst", l.prefix, l.instanceID, time.Now().UnixNano(), rec.ID)
	if _, err := l.client.Upload(ctx, key, bytes.NewReader(compressed), "application/zstd"); err != nil {
		return fmt.Errorf("delta: upload record: %w", err)
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
