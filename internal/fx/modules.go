package fx

import (
	"takurating/internal/api"
	"takurating/internal/config"
	"takurating/internal/database"
	"takurating/internal/logger"
	"takurating/internal/rating"
	"takurating/internal/repository"
	"takurating/internal/server"
	"takurating/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideDeltaStrategy selects the configured rating delta strategy. The
// Supabase client only backs the remote strategy when it is configured.
func ProvideDeltaStrategy(cfg *config.Config, client *api.SupabaseClient, logger zerolog.Logger) (rating.DeltaStrategy, error) {
	var remote rating.DeltaStrategy
	if cfg.SupabaseEnabled() {
		remote = client
	}

	strategy, err := rating.NewStrategy(cfg.DeltaStrategy, cfg.EloKFactor, cfg.DeltaCap, remote)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("strategy", cfg.DeltaStrategy).Int("cap", cfg.DeltaCap).Msg("delta strategy selected")
	return strategy, nil
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewSchoolRepository),
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewRatingHistoryRepository),
	fx.Provide(repository.NewTournamentRepository),
	// api client
	fx.Provide(api.NewSupabaseClient),
	fx.Provide(ProvideDeltaStrategy),
	// svc
	fx.Provide(service.NewCompareService),
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewSyncService),
	// server
	fx.Provide(server.NewRatingServer),
	fx.Provide(server.NewREST),
)
