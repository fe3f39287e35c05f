package providers_fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweaver/config"
	"tripweaver/internal/providers"
)

var Module = fx.Provide(
	ProvideBrowserUseClient,
	ProvideStayProviders,
	ProvideActivityProviders,
)

func ProvideBrowserUseClient(cfg config.Config, log zerolog.Logger) *providers.Client {
	return providers.NewClient(cfg.BrowserUseBaseURL, cfg.BrowserUseAPIKey, cfg.BrowserUseRPS, log)
}

func ProvideStayProviders(client *providers.Client, cfg config.Config) []providers.StayProvider {
	return []providers.StayProvider{
		providers.NewAirbnbProvider(client, cfg.AirbnbSkillID),
		providers.NewBookingProvider(client, cfg.BookingSkillID),
	}
}

func ProvideActivityProviders(client *providers.Client, cfg config.Config) []providers.ActivityProvider {
	return []providers.ActivityProvider{
		providers.NewHeadoutProvider(client, cfg.HeadoutSkillID),
		providers.NewKlookProvider(client, cfg.KlookSkillID),
	}
}
