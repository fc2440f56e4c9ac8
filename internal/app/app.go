package app

import (
	"context"

	"github.com/carousell/ct-go/pkg/logger"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/llm"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/storefront"
	"github.com/nguyentranbao-ct/shop-assistant/internal/server"
	"github.com/nguyentranbao-ct/shop-assistant/internal/usecase/catalog"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newGenkitClient,
			newMongoDB,
			newKVStore,

			storefront.NewClient,
			searchidx.NewIndex,
			llm.NewService,

			catalog.NewEngine,
			catalog.NewScheduler,

			server.NewController,
			server.NewSocketHandler,
		),
		fx.Supply(conf),
		fx.Invoke(funcs...),
	)
}

func newGenkitClient(cfg *config.Config) *genkit.Genkit {
	googleAI := &googlegenai.GoogleAI{
		APIKey: cfg.Chat.GoogleAIAPIKey,
	}
	return genkit.Init(context.Background(), genkit.WithPlugins(googleAI))
}
