package main

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pricewatch/app"
	"pricewatch/config"
	"pricewatch/lib"
	"pricewatch/lib/aggregator"
	"pricewatch/lib/fetcher"
	"pricewatch/lib/poller"
	"pricewatch/lib/store"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),

		fx.Provide(store.NewObservationStore),
		fx.Provide(store.NewCatalog),
		fx.Provide(store.NewAlertRegistry),
		fx.Provide(aggregator.NewAggregator),

		fx.Provide(fetcher.NewRegistry),
		fx.Provide(poller.NewPoller),

		fx.Provide(lib.NewService),
		fx.Provide(app.NewHTTPServer),

		fx.Invoke(func(*http.Server) {}),
	).Run()
}
