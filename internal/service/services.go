package service

import (
	"github.com/smitebuilds/backend/internal/config"
	"github.com/smitebuilds/backend/internal/hirez"
	"github.com/smitebuilds/backend/internal/imagestore"
	"github.com/smitebuilds/backend/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Ingest *IngestService
}

func NewServices(tx repository.Transactor, cfg *config.Config, log *zap.Logger) *Services {
	fetcher := imagestore.NewFetcher(cfg.IconBaseURL, log)
	archiver := imagestore.NewArchiver(cfg.IconArchiveDir, log)
	roster := hirez.NewClient(cfg.HiRezAPIURL, cfg.HiRezDevID, cfg.HiRezAuthKey, cfg.GodsCachePath, log)

	// Every automatic data correction lands in this named logger, so fixes
	// and leftover inconsistencies can be audited per ingestion run.
	autofix := log.Named("autofix")

	return &Services{
		Ingest: NewIngestService(tx, roster, fetcher, archiver, autofix),
	}
}
