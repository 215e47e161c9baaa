package main

import (
	"context"
	"flag"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/config"
	"github.com/veilshelf/veilshelf/internal/domain"
	"github.com/veilshelf/veilshelf/internal/infra/database"
	"github.com/veilshelf/veilshelf/internal/infra/gateway"
	"github.com/veilshelf/veilshelf/internal/infra/repository"
	"github.com/veilshelf/veilshelf/internal/present/rest"
	"github.com/veilshelf/veilshelf/internal/present/rest/middleware"
	"github.com/veilshelf/veilshelf/internal/service"
	"github.com/veilshelf/veilshelf/internal/telemetry"
	"github.com/veilshelf/veilshelf/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	dconf := domain.Config{
		FQDN:           conf.NodeInfo.FQDN,
		NodeID:         conf.NodeInfo.NodeID,
		ContextID:      conf.NodeInfo.ContextID,
		OracleID:       conf.NodeInfo.OracleID,
		OracleEndpoint: conf.NodeInfo.OracleEndpoint,
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)

	var ledgerRepo usecase.LedgerRepository = repository.NewLedgerRepository(db)
	if conf.Server.MemcachedAddr != "" {
		mc := database.NewMemcached(conf.Server.MemcachedAddr)
		ledgerRepo = repository.NewCachedLedger(ledgerRepo, mc)
	}

	signal := service.NewSignalService(rdb)
	auth := service.NewAuthService(dconf)

	var oracle veilshelf.Oracle
	if conf.NodeInfo.OracleEndpoint != "" {
		oracle = gateway.NewHttpOracle(conf.NodeInfo.OracleEndpoint)
	}

	ledgerUsecase := usecase.NewLedgerUsecase(ledgerRepo, signal, dconf)
	verifyUsecase := usecase.NewVerifyUsecase(ledgerRepo, signal, oracle, dconf)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	if conf.Server.EnableTrace {
		cleanup, err := telemetry.SetupTraceProvider(context.Background(), conf.Server.TraceEndpoint, "veilshelf")
		if err != nil {
			panic(err)
		}
		defer cleanup()

		e.Use(otelecho.Middleware(conf.NodeInfo.FQDN))
	}

	authMiddleware := middleware.NewAuthMiddleware(auth, dconf)
	e.Use(authMiddleware.IdentifyIdentity)

	handler := rest.NewHandler(dconf, ledgerUsecase, verifyUsecase, signal)
	handler.RegisterRoutes(e)

	listenAddr := conf.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8000"
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
