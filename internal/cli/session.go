package cli

import (
	"fmt"
	"time"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/app"
	"github.com/hession/memhub/internal/config"
	"github.com/hession/memhub/internal/logger"
	"github.com/hession/memhub/internal/suggest"
)

// NewController wires the API client and session controller from cfg
func NewController(cfg *config.Config) (*app.Controller, error) {
	msgCfg, err := config.LoadMessageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load message catalog: %w", err)
	}
	msgs := msgCfg.Get()

	mode, err := app.ParseSearchMode(cfg.Search.DefaultMode)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.Server.BaseURL, cfg.Server.APIPrefix,
		api.WithToken(cfg.Server.APIToken),
		api.WithUserAgent(cfg.Server.UserAgent),
		api.WithMessages(api.Messages{
			Unreachable:  msgs.Unreachable,
			Generic:      msgs.NetworkError,
			DeleteFailed: msgs.DeleteFailed,
		}),
		api.WithBreaker(uint32(cfg.Server.BreakerFailures),
			time.Duration(cfg.Server.BreakerCooldown)*time.Second),
		api.WithLogger(logger.L().Named("api")),
	)

	ctl := app.New(client,
		app.WithLogger(logger.L().Named("app")),
		app.WithSuggestions(
			suggest.NewSeeded(cfg.Suggestions.Seed),
			suggest.Mode(cfg.Suggestions.Mode),
			cfg.Suggestions.Count,
		),
		app.WithSearchLimit(cfg.Search.Limit),
		app.WithSearchMode(mode),
		app.WithMessages(msgs),
	)

	logger.Info("session ready: server=%s mode=%s", client.BaseURL(), mode)
	return ctl, nil
}
