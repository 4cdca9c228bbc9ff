package health

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	_ "github.com/mattn/go-sqlite3"
)

const inMemoryDataLayer = ":memory:"

// OpenDataLayer opens the sqlite database the data-layer probe reads from, creating its directory if needed
func OpenDataLayer(dbPath string) (*sql.DB, error) {
	if dbPath != inMemoryDataLayer {
		err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
		if err != nil {
			return nil, fmt.Errorf("failed to create the data layer directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open data layer: %w", err)
	}

	return db, nil
}

// dataLayerProbe runs a lightweight read against the data layer
type dataLayerProbe struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// NewDataLayerProbe creates a new data-layer probe. A nil database makes the probe always report healthy.
func NewDataLayerProbe(db *sql.DB) *dataLayerProbe {
	return &dataLayerProbe{
		db:      db,
		nowFunc: time.Now,
	}
}

// Name returns the component name
func (probe *dataLayerProbe) Name() string {
	return common.ComponentDatabase
}

// Check measures a SELECT 1 round trip
func (probe *dataLayerProbe) Check(ctx context.Context) common.ProbeResult {
	if probe.db == nil {
		return common.ProbeResult{Message: "no data layer configured, assuming healthy"}
	}

	start := probe.nowFunc()
	var value int
	err := probe.db.QueryRowContext(ctx, "SELECT 1").Scan(&value)
	responseTime := millisecondsSince(start, probe.nowFunc())
	if err != nil {
		return common.ProbeResult{
			ResponseTime: responseTime,
			ErrorRate:    1,
			Err:          fmt.Errorf("data layer read failed: %w", err),
		}
	}

	return common.ProbeResult{ResponseTime: responseTime}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (probe *dataLayerProbe) IsInterfaceNil() bool {
	return probe == nil
}
