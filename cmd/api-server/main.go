package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/appointment-booking/internal/api"
	"github.com/clinicdesk/appointment-booking/internal/booking"
	"github.com/clinicdesk/appointment-booking/internal/config"
	"github.com/clinicdesk/appointment-booking/internal/db"
	"github.com/clinicdesk/appointment-booking/internal/directory"
	"github.com/clinicdesk/appointment-booking/internal/forms"
	"github.com/clinicdesk/appointment-booking/internal/lock"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s ledger=%s", cfg.Env, cfg.HTTPPort, cfg.LedgerPath)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var patients booking.PatientDirectory
	var doctors booking.DoctorDirectory
	var pgPool *pgxpool.Pool

	if cfg.UsesPostgres() {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatalf("postgres connection error: %v", err)
		}
		defer pgPool.Close()
		log.Println("directories backed by Postgres")

		pgDir := directory.NewPgDirectory(pgPool)
		patients, doctors = pgDir, pgDir
	} else {
		log.Printf("directories backed by CSV files patients=%s doctor_slots=%s", cfg.PatientsCSV, cfg.DoctorSlotsCSV)
		patients = directory.NewCSVPatientDirectory(cfg.PatientsCSV)
		doctors = directory.NewCSVDoctorDirectory(cfg.DoctorSlotsCSV)
	}

	var locker lock.Locker
	var rdb *redis.Client

	if cfg.UsesRedisLock() {
		rdb, err = lock.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connection error: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		locker = lock.NewRedisLedgerLocker(rdb, cfg.LockTTL)
		log.Println("ledger lock shared through Redis")
	} else {
		locker = lock.NewMutexLocker()
	}

	ledger := booking.NewLedger(cfg.LedgerPath)
	store := forms.NewStore(cfg.UploadDir)
	svc := booking.NewService(ledger, patients, doctors, store, locker)

	router := api.NewRouter(api.RouterConfig{
		Service:    svc,
		LedgerPath: cfg.LedgerPath,
		PgPool:     pgPool,
		Redis:      rdb,
		Env:        cfg.Env,
		Version:    version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("api-server stopped")
}
