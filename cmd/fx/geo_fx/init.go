package geo_fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweaver/config"
	"tripweaver/internal/geo"
	"tripweaver/internal/providers"
	"tripweaver/pkg/llm"
)

var Module = fx.Provide(
	ProvideCoordsCache,
	ProvideGeocoder,
)

func ProvideCoordsCache() geo.CoordsCache {
	return geo.NewMemoryCoordsCache()
}

func ProvideGeocoder(
	client *providers.Client,
	cfg config.Config,
	ai llm.ChatClientInterface,
	coordsCache geo.CoordsCache,
	log zerolog.Logger,
) geo.ResolverInterface {
	return geo.NewGeocoder(client, cfg.GeocodeSkillID, ai, coordsCache, log)
}
