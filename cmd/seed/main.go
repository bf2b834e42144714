package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/appointment-booking/internal/config"
	"github.com/clinicdesk/appointment-booking/internal/db"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var carriers = []string{
	"BlueShield",
	"UnitedCare",
	"Aetna",
	"Cigna",
	"Kaiser",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	patientCount := envInt("PATIENT_COUNT", 50)
	doctorCount := envInt("DOCTOR_COUNT", 10)

	gofakeit.Seed(time.Now().UnixNano())

	if cfg.UsesPostgres() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()

		if err := seedDoctorsPg(context.Background(), pool, doctorCount); err != nil {
			log.Fatalf("seed doctors: %v", err)
		}
		if err := seedPatientsPg(context.Background(), pool, patientCount); err != nil {
			log.Fatalf("seed patients: %v", err)
		}
	} else {
		if err := writePatientCSV(cfg.PatientsCSV, patientCount); err != nil {
			log.Fatalf("write patients csv: %v", err)
		}
		if err := writeDoctorSlotsCSV(cfg.DoctorSlotsCSV, doctorCount); err != nil {
			log.Fatalf("write doctor slots csv: %v", err)
		}
	}

	log.Println("seed complete")
}

func fakePatientRow(id int) []string {
	return []string{
		strconv.Itoa(id),
		gofakeit.Name(),
		gofakeit.Phone(),
		gofakeit.Email(),
		gofakeit.Sentence(6),
		carriers[gofakeit.Number(0, len(carriers)-1)],
		fmt.Sprintf("MB%06d", gofakeit.Number(1, 999999)),
	}
}

func writePatientCSV(path string, count int) error {
	log.Printf("writing %d patients to %s", count, path)

	records := [][]string{{
		"patient_id", "name", "phone", "email",
		"medical_history", "insurance_carrier", "insurance_member_id",
	}}
	for i := 1; i <= count; i++ {
		records = append(records, fakePatientRow(i))
	}
	return writeCSV(path, records)
}

func writeDoctorSlotsCSV(path string, doctorCount int) error {
	log.Printf("writing slots for %d doctors to %s", doctorCount, path)

	records := [][]string{{
		"doctor_id", "doctor_name", "specialty", "location",
		"date", "slot_start", "slot_end", "duration_mins",
	}}

	today := time.Now()
	for i := 1; i <= doctorCount; i++ {
		id := fmt.Sprintf("D%03d", i)
		name := "Dr. " + gofakeit.LastName()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		city := gofakeit.City()

		// A week of morning slots per doctor.
		for day := 0; day < 7; day++ {
			date := today.AddDate(0, 0, day).Format("2006-01-02")
			for hour := 9; hour < 12; hour++ {
				records = append(records, []string{
					id, name, spec, city,
					date,
					fmt.Sprintf("%02d:00", hour),
					fmt.Sprintf("%02d:30", hour),
					"30",
				})
			}
		}
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	err = w.WriteAll(records)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

func seedPatientsPg(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			row := fakePatientRow(i + 1)
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, phone, email, medical_history, insurance_carrier, insurance_member_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, row[0], row[1], row[2], row[3], row[4], row[5], row[6])
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return nil
}

func seedDoctorsPg(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	today := time.Now()
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("D%03d", i)
		name := "Dr. " + gofakeit.LastName()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		city := gofakeit.City()

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, location)
			VALUES ($1, $2, $3, $4)
		`, id, name, spec, city)
		if err != nil {
			return err
		}

		for day := 0; day < 7; day++ {
			date := today.AddDate(0, 0, day).Format("2006-01-02")
			for hour := 9; hour < 12; hour++ {
				_, err := tx.Exec(ctx, `
					INSERT INTO doctor_slots (doctor_id, date, slot_start, slot_end, duration_mins)
					VALUES ($1, $2, $3, $4, $5)
				`, id, date, fmt.Sprintf("%02d:00", hour), fmt.Sprintf("%02d:30", hour), "30")
				if err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit(ctx)
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
