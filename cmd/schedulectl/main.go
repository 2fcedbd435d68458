package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga/internal/dto"
	"github.com/noah-isme/timetable-ga/internal/ga"
	"github.com/noah-isme/timetable-ga/pkg/storage"
)

var (
	inputFile      = "task.json"
	outputFile     = "result.json"
	snapshotDir    = "./snapshots"
	runID          = ""
	changeInterval = 10
	extraGens      = 0
	seed           int64
)

func main() {
	log.SetFlags(log.Ltime)

	root := &cobra.Command{
		Use:   "schedulectl",
		Short: "Weekly timetable genetic-algorithm driver",
		Long: "A standalone driver for the genetic-algorithm timetabling engine:\n" +
			"runs a scheduling task to completion outside the HTTP API, or resumes\n" +
			"one from a persisted generation snapshot.",
	}

	cmdRun := &cobra.Command{
		Use:   "run",
		Short: "run a scheduling task from a JSON request file to completion",
		Run:   commandRun,
	}
	cmdRun.Flags().StringVarP(&inputFile, "input", "i", inputFile, "path to a GenerateTimetableRequest JSON file")
	cmdRun.Flags().StringVarP(&outputFile, "output", "o", outputFile, "path to write the rendered result JSON")
	cmdRun.Flags().StringVar(&snapshotDir, "snapshot-dir", snapshotDir, "directory for generation snapshots")
	cmdRun.Flags().IntVar(&changeInterval, "change-interval", changeInterval, "generations between snapshots")
	cmdRun.Flags().Int64Var(&seed, "seed", seed, "RNG seed (0 picks one from the current time)")
	root.AddCommand(cmdRun)

	cmdResume := &cobra.Command{
		Use:   "resume",
		Short: "resume a run from its last persisted snapshot",
		Run:   commandResume,
	}
	cmdResume.Flags().StringVarP(&runID, "run-id", "r", runID, "run id whose snapshot to resume")
	cmdResume.Flags().StringVarP(&inputFile, "input", "i", inputFile, "path to the original GenerateTimetableRequest JSON file")
	cmdResume.Flags().StringVarP(&outputFile, "output", "o", outputFile, "path to write the rendered result JSON")
	cmdResume.Flags().StringVar(&snapshotDir, "snapshot-dir", snapshotDir, "directory for generation snapshots")
	cmdResume.Flags().IntVar(&changeInterval, "change-interval", changeInterval, "generations between snapshots")
	cmdResume.Flags().IntVar(&extraGens, "generations", extraGens, "additional generations to run past the snapshot")
	root.AddCommand(cmdResume)

	if err := root.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func commandRun(cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		log.Fatalf("unknown option: %s", strings.Join(args, " "))
	}

	req := readRequest(inputFile)
	logr := newCLILogger()
	defer logr.Sync() //nolint:errcheck

	task, err := ga.NewTask(req.ToTaskData())
	if err != nil {
		log.Fatalf("building task: %v", err)
	}

	rng := newRNG(seed)
	driver, err := ga.NewDriver(task, req.ToWeights(), req.ToParams(), rng, logr)
	if err != nil {
		log.Fatalf("building driver: %v", err)
	}

	store := newPopulationStore(snapshotDir)
	id := newRunID()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("starting run %s: %d generations, population %d", id, req.Generations, req.Params.PopulationSize)
	best, runErr := driver.Run(ctx, req.Generations, changeInterval, snapshotFunc(store, id))
	finishRun(task, id, best, runErr)
}

func commandResume(cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		log.Fatalf("unknown option: %s", strings.Join(args, " "))
	}
	if runID == "" {
		log.Fatalf("--run-id is required")
	}
	if extraGens < 1 {
		log.Fatalf("--generations must be >= 1")
	}

	req := readRequest(inputFile)
	logr := newCLILogger()
	defer logr.Sync() //nolint:errcheck

	task, err := ga.NewTask(req.ToTaskData())
	if err != nil {
		log.Fatalf("building task: %v", err)
	}

	store := newPopulationStore(snapshotDir)
	snap, err := store.Load(runID)
	if err != nil {
		log.Fatalf("loading snapshot for run %s: %v", runID, err)
	}

	rng := newRNG(seed)
	driver, err := ga.NewDriver(task, req.ToWeights(), req.ToParams(), rng, logr)
	if err != nil {
		log.Fatalf("building driver: %v", err)
	}
	driver.Seed(snap.Population, snap.HallOfFame)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("resuming run %s from generation %d for %d more generations", runID, snap.Generation, extraGens)
	best, runErr := driver.Run(ctx, extraGens, changeInterval, snapshotFunc(store, runID))
	finishRun(task, runID, best, runErr)
}

func finishRun(task *ga.Task, id string, best ga.Scored, runErr error) {
	pairs := task.Decode(best.Individual)
	rendered := dto.NewGAResultResponse(pairs)

	if err := writeResultFile(outputFile, rendered); err != nil {
		log.Fatalf("writing result file: %v", err)
	}

	switch {
	case runErr == ga.ErrAborted:
		log.Printf("run %s interrupted at best score %.4f; result written to %s", id, best.Score, outputFile)
	case runErr != nil:
		log.Fatalf("run %s failed: %v", id, runErr)
	default:
		log.Printf("run %s complete: best score %.4f; result written to %s", id, best.Score, outputFile)
	}
}

func snapshotFunc(store *ga.PopulationStore, id string) ga.SnapshotFunc {
	return func(ctx context.Context, generation int, population []ga.Scored, hallOfFame []ga.Scored) error {
		log.Printf("run %s: generation %d, best score %.4f", id, generation, hallOfFame[0].Score)
		return store.Save(ctx, ga.Snapshot{
			RunID:      id,
			Generation: generation,
			Population: population,
			HallOfFame: hallOfFame,
			SavedAt:    time.Now().UTC(),
		})
	}
}

func readRequest(filename string) dto.GenerateTimetableRequest {
	fp, err := os.Open(filename)
	if err != nil {
		log.Fatalf("opening %s: %v", filename, err)
	}
	defer fp.Close() //nolint:errcheck

	var req dto.GenerateTimetableRequest
	if err := json.NewDecoder(fp).Decode(&req); err != nil {
		log.Fatalf("parsing %s: %v", filename, err)
	}
	return req
}

// writeResultFile writes via a temp file and rename so a crash mid-write
// never leaves a truncated result behind.
func writeResultFile(filename string, result []dto.GAClassroomPairsResponse) error {
	tmpFile := filename + ".tmp"
	fp, err := os.Create(tmpFile)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fp.Close() //nolint:errcheck
		return err
	}
	if err := fp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpFile, filename)
}

func newPopulationStore(dir string) *ga.PopulationStore {
	fileStore, err := storage.NewLocalStorage(dir)
	if err != nil {
		log.Fatalf("initialising snapshot storage: %v", err)
	}
	return ga.NewPopulationStore(fileStore, nil)
}

func newRNG(s int64) *rand.Rand {
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(s))
}

func newRunID() string {
	return time.Now().UTC().Format("20060102T150405.000000000")
}

func newCLILogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logr, err := cfg.Build()
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	return logr
}
