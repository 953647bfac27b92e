package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/db"
	"github.com/2beens/liftlog/internal/source"
	"github.com/2beens/liftlog/internal/source/psql"
	"github.com/2beens/liftlog/internal/workouts"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"
)

// fake workout log generator, for the memory source seed and local postgres

var defaultExercises = []string{
	"Bench Press (Barbell)",
	"Squat (Barbell)",
	"Deadlift (Barbell)",
	"Overhead Press (Barbell)",
	"Bent Over Row (Barbell)",
	"Lat Pulldown (Cable)",
	"Bicep Curl (Dumbbell)",
}

type seedParams struct {
	Exercises []string
	Days      int
	Start     time.Time
	Seed      int64
}

func main() {
	out := flag.String("out", "", "CSV output path (empty for stdout)")
	days := flag.Int("days", 120, "number of training days to generate")
	exercises := flag.String("exercises", strings.Join(defaultExercises, ","), "comma separated exercise names")
	seed := flag.Int64("seed", 0, "random seed (0 for random)")
	pgHost := flag.String("pg-host", "", "append the generated rows to this postgres host instead of writing CSV")
	pgPort := flag.String("pg-port", "5432", "postgres port")
	pgDBName := flag.String("pg-db", "liftlog", "postgres db name")
	flag.Parse()

	rows, err := generateRows(seedParams{
		Exercises: splitNames(*exercises),
		Days:      *days,
		Start:     time.Now().UTC().AddDate(0, 0, -*days),
		Seed:      *seed,
	})
	if err != nil {
		log.Fatalf("generate rows: %s", err)
	}
	log.Infof("generated %d rows", len(rows))

	if *pgHost != "" {
		if err := appendToPostgres(*pgHost, *pgPort, *pgDBName, rows); err != nil {
			log.Fatalf("append to postgres: %s", err)
		}
		log.Infof("rows appended to postgres [%s]", *pgDBName)
		return
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create output file: %s", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Errorf("close output file: %s", err)
			}
		}()
		w = f
	}

	if err := writeCSV(w, rows); err != nil {
		log.Errorf("write csv: %s", err)
	}
}

func splitNames(names string) []string {
	var result []string
	for _, name := range strings.Split(names, ",") {
		if name = strings.TrimSpace(name); name != "" {
			result = append(result, name)
		}
	}
	return result
}

// generateRows logs a few sets per exercise on each training day, with the
// working weight slowly climbing.
func generateRows(params seedParams) ([][]string, error) {
	if len(params.Exercises) == 0 {
		return nil, fmt.Errorf("no exercises")
	}

	faker := gofakeit.New(params.Seed)
	baseWeights := make(map[string]float64, len(params.Exercises))
	for _, name := range params.Exercises {
		baseWeights[name] = roundToPlate(faker.Float64Range(45, 225))
	}

	var rows [][]string
	for day := 0; day < params.Days; day++ {
		// rest days
		if faker.Number(0, 6) < 2 {
			continue
		}

		sessionStart := params.Start.AddDate(0, 0, day).
			Truncate(24 * time.Hour).
			Add(time.Duration(faker.Number(6, 20)) * time.Hour)
		ts := sessionStart
		progress := 1 + float64(day)/float64(params.Days)*0.15

		for _, name := range params.Exercises {
			if faker.Bool() && len(params.Exercises) > 3 {
				continue
			}
			sets := faker.Number(2, 4)
			for set := 0; set < sets; set++ {
				reps := faker.Number(3, 10)
				weight := roundToPlate(baseWeights[name] * progress * faker.Float64Range(0.9, 1.05))
				oneRepMax, err := workouts.OneRepMax(weight, reps)
				if err != nil {
					return nil, err
				}
				rows = append(rows, workouts.EncodeRow(workouts.Entry{
					Timestamp:    ts,
					ExerciseName: name,
					Weight:       weight,
					Reps:         reps,
					OneRepMax:    oneRepMax,
				}))
				ts = ts.Add(time.Duration(faker.Number(90, 240)) * time.Second)
			}
		}
	}

	return rows, nil
}

func roundToPlate(weight float64) float64 {
	return math.Round(weight/2.5) * 2.5
}

func writeCSV(w io.Writer, rows [][]string) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(source.Columns); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return err
	}
	return csvWriter.Error()
}

func appendToPostgres(host, port, dbName string, rows [][]string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     host,
		DBPort:     port,
		DBName:     dbName,
		DBUser:     os.Getenv("LIFTLOG_POSTGRES_USER"),
		DBPassword: os.Getenv("LIFTLOG_POSTGRES_PASS"),
	})
	if err != nil {
		return err
	}
	defer dbPool.Close()

	src := psql.NewSource(dbPool)
	if err := src.EnsureSchema(ctx); err != nil {
		return err
	}
	for i, row := range rows {
		if err := src.AppendRow(ctx, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
