package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/adapter/in/in_amqp"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/adapter/in/in_ws"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/adapter/in/transport"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/adapter/out/out_amqp"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/adapter/out/out_ws"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/adapter/out/repo"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/usecase"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/auth"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/config"
	db_conn "github.com/usbtecnok/kaviar-v2-sub001/internal/shared/db"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/mq"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/ws"
)

// Run — compose root Match Service.
// Собирает инфраструктуру, репозитории, use cases и адаптеры,
// затем держит HTTP сервер, WebSocket hub, consumers и sweep
// до отмены контекста.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	log.Info(logger.Entry{Action: "match_service_starting", Message: "initializing match service"})

	// ==== инфраструктура ====

	dbPool, err := db_conn.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db_conn.Close(dbPool, log)

	if err := db_conn.Migrate(ctx, dbPool, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	mqConn, err := mq.NewRabbitMQ(ctx, cfg.RabbitMQ, log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(mqConn); err != nil {
		return fmt.Errorf("setup rabbitmq topology: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	hub := ws.NewHub(jwtService.ExtractUserID, log)

	// ==== репозитории ====

	rideRepo := repo.NewRidePgRepository(dbPool, log)
	offerRepo := repo.NewOfferPgRepository(dbPool, log)
	driverRepo := repo.NewDriverPgRepository(dbPool, log)
	territoryRepo := repo.NewTerritoryPgRepository(dbPool, log)
	feeConfigRepo := repo.NewFeeConfigPgRepository(dbPool)

	// ==== исходящие адаптеры ====

	eventPublisher := out_amqp.NewRideEventPublisher(mqConn, log)
	offerNotifier := out_ws.NewWsOfferNotifier(hub, log)

	// ==== use cases ====

	resolver := usecase.NewTerritoryResolver(territoryRepo, cfg.Match.FallbackRadiusM, log)
	feeCalc := usecase.NewFeeTierCalculator(feeConfigRepo, territoryRepo, cfg.Match.FallbackRadiusM, log)
	finder := usecase.NewCandidateFinder(driverRepo, cfg.Match.LocationFreshness, cfg.Match.SearchRadiusKm, cfg.Match.LocalityBonus, log)

	dispatch := usecase.NewDispatchRideService(rideRepo, offerRepo, finder, offerNotifier, eventPublisher, cfg.Match.OfferTTL, cfg.Match.MaxAttempts, log)
	requestRide := usecase.NewRequestRideService(rideRepo, resolver, dispatch, eventPublisher, log)
	acceptOffer := usecase.NewAcceptOfferService(offerRepo, rideRepo, driverRepo, feeCalc, eventPublisher, log)
	rejectOffer := usecase.NewRejectOfferService(offerRepo, dispatch, log)
	quoteFee := usecase.NewQuoteFeeService(driverRepo, resolver, feeCalc)
	releaseDriver := usecase.NewReleaseDriverService(driverRepo, log)
	sweeper := usecase.NewExpireOffersService(offerRepo, rideRepo, dispatch, offerNotifier, eventPublisher, log)

	// ==== входящие адаптеры ====

	in_ws.NewDriverWSHandler(hub, acceptOffer, rejectOffer, driverRepo, log)

	responseConsumer := in_amqp.NewDriverResponseConsumer(mqConn, acceptOffer, rejectOffer, log)
	locationConsumer := in_amqp.NewLocationConsumer(mqConn, driverRepo, log)
	completedConsumer := in_amqp.NewRideCompletedConsumer(mqConn, rideRepo, releaseDriver, log)

	mux := http.NewServeMux()
	httpHandler := transport.NewHTTPHandler(requestRide, resolver, quoteFee, rideRepo, log)
	httpHandler.RegisterRoutes(mux, transport.JWTMiddleware(jwtService, log))
	mux.HandleFunc("GET /ws", hub.ServeWS)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Service.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ==== запуск ====

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		if err := responseConsumer.Start(gctx); err != nil {
			return fmt.Errorf("driver response consumer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := locationConsumer.Start(gctx); err != nil {
			return fmt.Errorf("location consumer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := completedConsumer.Start(gctx); err != nil {
			return fmt.Errorf("ride completed consumer: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sweeper.Run(gctx, cfg.Match.SweepInterval)
		return nil
	})

	g.Go(func() error {
		log.Info(logger.Entry{
			Action:  "http_server_starting",
			Message: fmt.Sprintf("listening on %s", server.Addr),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info(logger.Entry{Action: "match_service_stopped", Message: "all components stopped"})
	return nil
}
