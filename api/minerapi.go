// Package api provides the public surface for driving the miner.
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/csmol/thrivescraper/cfg"
	"github.com/csmol/thrivescraper/internal/miner"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/log"
)

// MineStats holds statistics about the mining process
type MineStats struct {
	Version    string              `json:"version"`
	IsRunning  bool                `json:"isRunning"`
	StartTime  time.Time           `json:"startTime"`
	Duration   string              `json:"duration"`
	Topics     []miner.TopicResult `json:"topics"`
	ReposFound int                 `json:"reposFound"`
	ReposAdded int                 `json:"reposAdded"`
	LastError  string              `json:"lastError"`
}

// MinerAPI wires the miners over an opened store and exposes
// start/status operations to the UI handlers.
type MinerAPI struct {
	ctx         context.Context
	config      *cfg.Config
	logger      log.Logger
	thriveDb    *thrivedb.ThriveDB
	minerV1     miner.Miner
	minerV2     miner.Miner
	mining      bool
	mineStatsMu sync.RWMutex
	mineStats   *MineStats
}

// NewMinerAPI creates a new instance of MinerAPI
func NewMinerAPI() *MinerAPI {
	return &MinerAPI{
		mineStats: &MineStats{},
	}
}

// Initialize builds the miners over the given configuration and store.
// At least one miner must come up; v2 needs Kafka and its absence is
// tolerated.
func (a *MinerAPI) Initialize(ctx context.Context, config *cfg.Config, logger log.Logger, thriveDb *thrivedb.ThriveDB) error {
	a.ctx = ctx
	a.config = config
	a.logger = logger
	a.thriveDb = thriveDb

	if v1, err := miner.NewMinerV1(logger, config, thriveDb); err != nil {
		a.logger.Error(ctx, "Failed to create miner v1: %v", err)
	} else {
		a.minerV1 = v1
	}

	if v2, err := miner.NewMinerV2(logger, config, thriveDb); err != nil {
		a.logger.Warn(ctx, "Miner v2 unavailable: %v", err)
	} else {
		a.minerV2 = v2
	}

	if a.minerV1 == nil && a.minerV2 == nil {
		return errors.New("failed to initialize any miner")
	}

	return nil
}

// StartMining starts the mining process with the given miner version
func (a *MinerAPI) StartMining(version string) (string, error) {
	// Check if already mining
	a.mineStatsMu.RLock()
	isMining := a.mining
	a.mineStatsMu.RUnlock()

	if isMining {
		return "Mining is already in progress", nil
	}

	var selectedMiner miner.Miner
	switch version {
	case "v1":
		if a.minerV1 == nil {
			return "", errors.New("miner v1 is not initialized")
		}
		selectedMiner = a.minerV1
	case "v2":
		if a.minerV2 == nil {
			return "", errors.New("miner v2 is not initialized")
		}
		selectedMiner = a.minerV2
	default:
		return "", errors.New("invalid miner version: " + version)
	}

	// Create new stats
	a.mineStatsMu.Lock()
	a.mining = true
	a.mineStats = &MineStats{
		Version:   version,
		IsRunning: true,
		StartTime: time.Now(),
	}
	a.mineStatsMu.Unlock()

	// Start mining in a goroutine
	go func(m miner.Miner) {
		success := m.Mine(a.ctx)

		a.updateMineStats(func(stats *MineStats) {
			stats.IsRunning = false
			stats.Topics = m.Results()
			for _, result := range m.Results() {
				stats.ReposFound += result.Found
				stats.ReposAdded += result.New
			}
			if !success {
				stats.LastError = "Mining failed"
			}
		})

		a.mineStatsMu.Lock()
		a.mining = false
		a.mineStatsMu.Unlock()
	}(selectedMiner)

	return "Started mining with version " + version, nil
}

// GetMineStats returns statistics about the mining process
func (a *MinerAPI) GetMineStats() (*MineStats, error) {
	a.mineStatsMu.RLock()
	defer a.mineStatsMu.RUnlock()

	if a.mineStats == nil {
		return &MineStats{}, nil
	}

	// Calculate duration if mining is running
	stats := *a.mineStats
	if stats.IsRunning {
		stats.Duration = time.Since(stats.StartTime).String()
	}

	return &stats, nil
}

// updateMineStats updates the mining statistics safely
func (a *MinerAPI) updateMineStats(updateFn func(*MineStats)) {
	a.mineStatsMu.Lock()
	defer a.mineStatsMu.Unlock()

	if a.mineStats == nil {
		a.mineStats = &MineStats{}
	}

	updateFn(a.mineStats)
}

// GetDatabaseStatus checks the store connection
func (a *MinerAPI) GetDatabaseStatus() (string, error) {
	if a.thriveDb == nil {
		return "Database not initialized", nil
	}

	if err := a.thriveDb.Sqlite.Ping(); err != nil {
		return "Database not connected: " + err.Error(), err
	}

	return "Database connected", nil
}

// Close releases the kafka producer held by miner v2, if one came up.
func (a *MinerAPI) Close() error {
	if closer, ok := a.minerV2.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
