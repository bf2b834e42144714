package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicdesk/appointment-booking/internal/booking"
	"github.com/clinicdesk/appointment-booking/internal/config"
	"github.com/clinicdesk/appointment-booking/internal/db"
	"github.com/clinicdesk/appointment-booking/internal/directory"
	"github.com/clinicdesk/appointment-booking/internal/forms"
	"github.com/clinicdesk/appointment-booking/internal/lock"
)

// form-reminder periodically scans the ledger for bookings whose intake
// form is still outstanding and logs them so staff can chase the patient.

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("form-reminder starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s interval=%s reminder_after=%s", cfg.Env, cfg.WorkerInterval, cfg.FormReminderAfter)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var patients booking.PatientDirectory
	var doctors booking.DoctorDirectory

	if cfg.UsesPostgres() {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatalf("postgres connection error: %v", err)
		}
		defer pool.Close()

		pgDir := directory.NewPgDirectory(pool)
		patients, doctors = pgDir, pgDir
	} else {
		patients = directory.NewCSVPatientDirectory(cfg.PatientsCSV)
		doctors = directory.NewCSVDoctorDirectory(cfg.DoctorSlotsCSV)
	}

	ledger := booking.NewLedger(cfg.LedgerPath)
	store := forms.NewStore(cfg.UploadDir)
	svc := booking.NewService(ledger, patients, doctors, store, lock.NewMutexLocker())

	// Run once at startup
	runOnce(rootCtx, svc, cfg.FormReminderAfter)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping form-reminder")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.FormReminderAfter)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, reminderAfter time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	cutoff := start.Add(-reminderAfter)

	overdue, err := svc.PendingFormBookings(runCtx, cutoff)
	if err != nil {
		log.Printf("reminder run error: %v", err)
		return
	}

	for _, b := range overdue {
		log.Printf("intake form outstanding: booking_id=%d patient=%q doctor=%q booked_at=%s",
			b.BookingID, b.PatientName, b.DoctorName, b.CreatedAt.Format(time.RFC3339))
	}

	log.Printf("reminder run complete in %s, %d bookings flagged", time.Since(start), len(overdue))
}
