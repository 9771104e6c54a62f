package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"presence/internal/attendance"
	"presence/internal/config"
	"presence/internal/faceclient"
	"presence/internal/queue"
	"presence/internal/store"
	"presence/internal/user"
)

// The worker consumes verification jobs, face-matches the check-in
// snapshot against the student's enrolled images, and records the
// verdict on the attendance record.
func main() {
	cfg := config.Load()

	var log *zap.Logger
	var err error
	if cfg.IsProduction() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		// A memory queue is process-local; a separate worker binary
		// only ever sees jobs when the backend is redis.
		log.Warn("memory queue backend, worker will receive no jobs from the api process")
		q = queue.NewInMemory(64)
	} else {
		rds := store.NewRedis(cfg.RedisAddr)
		defer rds.Close()
		q = queue.NewRedisQueue(rds.Client, "presence:verify")
	}

	records := attendance.NewRepository(db.Client)
	users := user.NewRepository(db.Client)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Warn("face service unreachable, will retry per job", zap.Error(err))
		} else {
			log.Info("face service connected", zap.String("url", cfg.FaceServiceURL))
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatal("queue consume init failed", zap.Error(err))
	}

	log.Info("worker started")
	for msg := range messages {
		if msg.Type != queue.TypeVerifyAttendance {
			continue
		}
		process(ctx, log, records, users, face, msg.Body)
	}
	log.Info("worker stopped")
}

func process(ctx context.Context, log *zap.Logger, records *attendance.Repository,
	users *user.Repository, face *faceclient.Client, body []byte) {
	var job attendance.VerifyJob
	if err := json.Unmarshal(body, &job); err != nil {
		log.Warn("malformed verification job", zap.Error(err))
		return
	}
	jlog := log.With(zap.String("record", job.RecordID))

	rec, err := records.Get(ctx, job.RecordID)
	if err != nil {
		jlog.Warn("record fetch failed", zap.Error(err))
		return
	}
	if rec.SnapshotURL == "" {
		jlog.Info("no snapshot, leaving record unverified")
		return
	}

	student, err := users.GetByID(ctx, job.StudentID)
	if err != nil {
		jlog.Warn("student fetch failed", zap.Error(err))
		return
	}
	if len(student.FaceImages) == 0 {
		jlog.Info("student has no enrolled face images, leaving record unverified")
		return
	}

	result, err := face.Verify(ctx, rec.SnapshotURL, student.FaceImages)
	if err != nil {
		jlog.Warn("face verification call failed", zap.Error(err))
		if uerr := records.UpdateVerification(ctx, job.RecordID, attendance.VerifyFailed, nil); uerr != nil {
			jlog.Warn("verdict update failed", zap.Error(uerr))
		}
		return
	}

	status := attendance.VerifyFailed
	if result.Match {
		status = attendance.VerifyVerified
	}
	score := result.Similarity
	if err := records.UpdateVerification(ctx, job.RecordID, status, &score); err != nil {
		jlog.Warn("verdict update failed", zap.Error(err))
		return
	}
	jlog.Info("record verified",
		zap.String("status", status),
		zap.Float64("similarity", result.Similarity),
		zap.Int("faces", result.FacesDetected))
}
