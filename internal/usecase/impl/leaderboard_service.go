package impl

import (
	"context"
	"log/slog"

	"puffsocial/config"
	deliverycontext "puffsocial/internal/delivery/context"
	"puffsocial/internal/domain/entity"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/usecase"
	"puffsocial/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// leaderboardService implements the LeaderboardUsecase interface.
type leaderboardService struct {
	lbRepo         repository.LeaderboardRepository
	defaultLimit   int
	minFirmwareRaw int64
	logger         *slog.Logger
}

// LeaderboardServiceParams holds dependencies for LeaderboardService, injected by Fx.
type LeaderboardServiceParams struct {
	fx.In

	LbRepo repository.LeaderboardRepository
	Config *config.Config
	Logger *slog.Logger
}

// NewLeaderboardService is the constructor for leaderboardService.
func NewLeaderboardService(params LeaderboardServiceParams) usecase.LeaderboardUsecase {
	defaultLimit := 25
	var minFirmwareRaw int64
	if params.Config != nil && params.Config.Leaderboard != nil {
		if params.Config.Leaderboard.DefaultLimit > 0 {
			defaultLimit = params.Config.Leaderboard.DefaultLimit
		}
		minFirmwareRaw = util.LettersToNumber(params.Config.Leaderboard.MinAverageFirmware)
	}

	return &leaderboardService{
		lbRepo:         params.LbRepo,
		defaultLimit:   defaultLimit,
		minFirmwareRaw: minFirmwareRaw,
		logger:         params.Logger,
	}
}

func (srv *leaderboardService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// TopDevices returns the highest ranked owned devices.
func (srv *leaderboardService) TopDevices(ctx context.Context, limit int, byAverage bool) ([]*entity.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = srv.defaultLimit
	}

	// Average rankings only make sense on firmware new enough to report a
	// meaningful per-day rate, so older devices are filtered out.
	var minFirmwareRaw int64
	if byAverage {
		minFirmwareRaw = srv.minFirmwareRaw
	}

	entries, err := srv.lbRepo.FindTop(ctx, limit, byAverage, minFirmwareRaw)
	if err != nil {
		srv.log(ctx).Error("Failed to read leaderboard", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to read leaderboard")
	}

	return entries, nil
}
