package main

import (
	"context"
	"fmt"
	"log"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/timetable-ga/api/swagger"
	"github.com/noah-isme/timetable-ga/internal/ga"
	internalhandler "github.com/noah-isme/timetable-ga/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-ga/internal/middleware"
	"github.com/noah-isme/timetable-ga/internal/repository"
	"github.com/noah-isme/timetable-ga/internal/service"
	"github.com/noah-isme/timetable-ga/pkg/cache"
	"github.com/noah-isme/timetable-ga/pkg/config"
	"github.com/noah-isme/timetable-ga/pkg/database"
	"github.com/noah-isme/timetable-ga/pkg/jobs"
	"github.com/noah-isme/timetable-ga/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-ga/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-ga/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-ga/pkg/storage"
)

// @title Timetable GA API
// @version 0.1.0
// @description Genetic-algorithm weekly timetabling engine, with the administrative surface it schedules for.
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		registerPprof(r)
	}

	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	// Administrative surface the GA scheduler sits inside: terms, subjects,
	// classes, teachers, assignments, preferences and the existing
	// single-class heuristic generator.
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classSubjectRepo := repository.NewClassSubjectRepository(db)
	termRepo := repository.NewTermRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	preferenceRepo := repository.NewTeacherPreferenceRepository(db)
	semesterScheduleRepo := repository.NewSemesterScheduleRepository(db)
	semesterSlotRepo := repository.NewSemesterScheduleSlotRepository(db)

	classSvc := service.NewClassService(classRepo, subjectRepo, classSubjectRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	termSvc := service.NewTermService(termRepo, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, nil, logr)
	assignmentSvc := service.NewTeacherAssignmentService(
		teacherRepo,
		classRepo,
		subjectRepo,
		termRepo,
		assignmentRepo,
		scheduleRepo,
		preferenceRepo,
		nil,
		logr,
	)
	preferenceSvc := service.NewTeacherPreferenceService(teacherRepo, preferenceRepo, nil, logr)

	classHandler := internalhandler.NewClassHandler(classSvc)
	subjectHandler := internalhandler.NewSubjectHandler(subjectSvc)
	termHandler := internalhandler.NewTermHandler(termSvc)
	scheduleHandler := internalhandler.NewScheduleHandler(scheduleSvc)
	teacherHandler := internalhandler.NewTeacherHandler(teacherSvc, assignmentSvc, preferenceSvc)

	api.GET("/classes", classHandler.List)
	api.GET("/classes/:id", classHandler.Get)
	api.POST("/classes", classHandler.Create)
	api.PUT("/classes/:id", classHandler.Update)
	api.DELETE("/classes/:id", classHandler.Delete)

	api.GET("/subjects", subjectHandler.List)
	api.GET("/subjects/:id", subjectHandler.Get)
	api.POST("/subjects", subjectHandler.Create)
	api.PUT("/subjects/:id", subjectHandler.Update)
	api.DELETE("/subjects/:id", subjectHandler.Delete)

	api.GET("/terms", termHandler.List)
	api.GET("/terms/active", termHandler.GetActive)
	api.POST("/terms", termHandler.Create)
	api.PUT("/terms/:id", termHandler.Update)
	api.POST("/terms/set-active", termHandler.SetActive)
	api.DELETE("/terms/:id", termHandler.Delete)

	api.GET("/schedules", scheduleHandler.List)
	api.GET("/classes/:id/schedules", scheduleHandler.ListByClass)
	api.GET("/teachers/:id/schedules", scheduleHandler.ListByTeacher)
	api.POST("/schedules", scheduleHandler.Create)
	api.POST("/schedules/bulk", scheduleHandler.BulkCreate)
	api.PUT("/schedules/:id", scheduleHandler.Update)
	api.DELETE("/schedules/:id", scheduleHandler.Delete)

	api.GET("/teachers", teacherHandler.List)
	api.GET("/teachers/:id", teacherHandler.Get)
	api.POST("/teachers", teacherHandler.Create)
	api.PUT("/teachers/:id", teacherHandler.Update)
	api.DELETE("/teachers/:id", teacherHandler.Delete)
	api.GET("/teachers/:id/assignments", teacherHandler.ListAssignments)
	api.POST("/teachers/:id/assignments", teacherHandler.CreateAssignment)
	api.DELETE("/teachers/:id/assignments/:aid", teacherHandler.DeleteAssignment)
	api.GET("/teachers/:id/preferences", teacherHandler.GetPreferences)
	api.PUT("/teachers/:id/preferences", teacherHandler.UpsertPreferences)

	if cfg.Scheduler.Enabled {
		schedulerSvc := service.NewScheduleGeneratorService(
			termRepo,
			classRepo,
			subjectRepo,
			assignmentRepo,
			preferenceRepo,
			scheduleRepo,
			semesterScheduleRepo,
			semesterSlotRepo,
			nil,
			db,
			nil,
			logr,
			service.ScheduleGeneratorConfig{ProposalTTL: cfg.Scheduler.ProposalTTL},
		)
		schedulerHandler := internalhandler.NewScheduleGeneratorHandler(schedulerSvc)

		api.POST("/schedule/generate", schedulerHandler.Generate)
		api.POST("/schedules/generator", schedulerHandler.GenerateAlias)
		api.POST("/schedule/save", schedulerHandler.Save)
		api.GET("/semester-schedule", schedulerHandler.List)
		api.GET("/semester-schedule/:id/slots", schedulerHandler.Slots)
		api.DELETE("/semester-schedule/:id", schedulerHandler.Delete)
	}

	// Genetic-algorithm timetable engine, guarded by a shared service token
	// instead of the deleted per-user auth flow.
	schedulerRunRepo := repository.NewSchedulerRunRepository(db)

	fileStore, err := storage.NewLocalStorage(cfg.SchedulerGA.SnapshotDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init scheduler snapshot storage", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("scheduler snapshot cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	populationStore := ga.NewPopulationStore(fileStore, redisClient)
	tokens := service.NewServiceTokenService(cfg.ServiceToken)
	schedulerGASvc := service.NewSchedulerGAService(schedulerRunRepo, populationStore, nil, logr, metricsSvc)
	schedulerGAHandler := internalhandler.NewSchedulerGAHandler(schedulerGASvc)

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Export.SignerSecret, cfg.Export.ResultTTL)
	exportSvc := service.NewScheduleExportService(schedulerRunRepo, exportStore, exportSigner,
		service.ScheduleExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Export.ResultTTL}, logr, nil, nil)
	exportHandler := internalhandler.NewScheduleExportHandler(exportSvc)

	cleanupQueue := jobs.NewQueue("export-cleanup", func(ctx context.Context, job jobs.Job) error {
		removed, err := exportSvc.Cleanup(cfg.Export.ResultTTL)
		if err != nil {
			return err
		}
		logr.Sugar().Infow("swept expired exports", "count", len(removed))
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	cleanupQueue.Start(context.Background())
	defer cleanupQueue.Stop()
	go scheduleExportCleanup(cleanupQueue, cfg.Export.CleanupInterval)

	gaGroup := api.Group("/scheduler/ga")
	gaGroup.Use(internalmiddleware.ServiceToken(tokens))
	gaGroup.POST("/runs", schedulerGAHandler.Generate)
	gaGroup.GET("/runs/:id", schedulerGAHandler.Status)
	gaGroup.POST("/runs/:id/export", exportHandler.Generate)
	gaGroup.GET("/exports/:token", exportHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// scheduleExportCleanup enqueues a cleanup job on a fixed interval for as
// long as the process runs, sweeping rendered export files whose signed
// links have outlived their TTL.
func scheduleExportCleanup(queue *jobs.Queue, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := queue.Enqueue(jobs.Job{ID: "export-cleanup-sweep", Type: "cleanup"}); err != nil {
			log.Printf("failed to enqueue export cleanup: %v", err)
		}
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	group.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	group.GET("/block", gin.WrapH(pprof.Handler("block")))
	group.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	group.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	group.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	group.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}
