package miner

import (
	"fmt"

	"github.com/csmol/thrivescraper/cfg"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/log"
)

func FactoryMiner(version string, logger log.Logger, config *cfg.Config, db *thrivedb.ThriveDB) (Miner, error) {
	switch version {
	case "v1":
		return NewMinerV1(logger, config, db)
	case "v2":
		return NewMinerV2(logger, config, db)
	default:
		return nil, fmt.Errorf("unsupported miner version: %s", version)
	}
}
