package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	commonOtel "github.com/Alturino/storefront/cart/internal/common/otel"
	"github.com/Alturino/storefront/cart/internal/controller"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/internal/common/constants"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/mirror"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/profile/pkg/client"
)

func RunStorefrontService(c context.Context) {
	c, span := commonOtel.Tracer.Start(c, "RunStorefrontService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.APP_STOREFRONT_SERVICE).
		Str(log.KeyTag, "main RunStorefrontService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.APP_STOREFRONT_SERVICE)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.APP_STOREFRONT_SERVICE, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		err := otel.ShutdownOtel(context.WithoutCancel(c), otelShutdowns)
		if err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing mirror").Str("driver", cfg.Mirror.Driver).Logger()
	logger.Info().Msg("initializing mirror")
	var factory mirror.Factory
	switch cfg.Mirror.Driver {
	case config.MirrorDriverMemory:
		factory = mirror.MemoryFactory()
	default:
		c = logger.WithContext(c)
		cache := infra.NewCacheClient(c, cfg.Cache)
		defer func() {
			logger.Info().Msg("shutting down cache")
			if err := cache.Close(); err != nil {
				err = fmt.Errorf("failed shutting down cache with error=%w", err)
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("shutdown cache")
		}()
		factory = mirror.RedisFactory(cache, cfg.Mirror.KeyPrefix, cfg.Mirror.TTL)
	}
	logger.Info().Msg("initialized mirror")

	logger = logger.With().Str(log.KeyProcess, "initializing profile client").Logger()
	logger.Info().Msg("initializing profile client")
	c = logger.WithContext(c)
	profile := client.NewProfileClient(c, cfg.Profile, cfg.Breaker)
	logger.Info().Msg("initialized profile client")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	registry := service.NewRegistry(profile, factory, cfg.Session)
	router := controller.NewRouter(registry, cfg.Application.SecretKey)
	logger.Info().Msg("initialized router")

	go registry.Run(logger.With().Str(log.KeyProcess, "evicting idle sessions").Logger().WithContext(c))

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while server is running", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("server stopped listening")
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}
