package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/gradgate/internal/api"
	"github.com/your-org/gradgate/internal/api/ws"
	"github.com/your-org/gradgate/internal/checkin"
	"github.com/your-org/gradgate/internal/config"
	"github.com/your-org/gradgate/internal/faceid"
	"github.com/your-org/gradgate/internal/observability"
	"github.com/your-org/gradgate/internal/queue"
	"github.com/your-org/gradgate/internal/storage"
	"github.com/your-org/gradgate/internal/vision"
	"github.com/your-org/gradgate/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting gradgate API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// WebSocket hub for stage displays
	hub := ws.NewHub()
	go hub.Run()

	// Consume call events and broadcast them to the displays
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create event consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeCalled(ctx, "api-displays", func(ctx context.Context, msg jetstream.Msg) error {
		var evt checkin.CalledEvent
		if err := json.Unmarshal(msg.Data(), &evt); err != nil {
			return err
		}

		hub.BroadcastEvent(&dto.WSEvent{
			Type:       "student_called",
			CeremonyID: evt.CeremonyID,
			Data: dto.CalledStudentResponse{
				Student: dto.StudentResponse{
					PID:            evt.Student.PID,
					Name:           evt.Student.Name,
					Email:          evt.Student.Email,
					DegreeName:     evt.Student.DegreeName,
					DegreeType:     evt.Student.DegreeType,
					OptInBiometric: evt.Student.OptInBiometric,
				},
				CeremonyID: evt.CeremonyID,
				Status:     "called",
			},
		})

		return nil
	})
	if err != nil {
		slog.Warn("start call event consumer", "error", err)
	}

	// Initialize ONNX Runtime for enrollment / identification
	var extractor faceid.Extractor

	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Warn("onnx runtime init failed — face endpoints will be unavailable", "error", err)
	} else {
		ex, err := vision.NewExtractor(cfg.Vision)
		if err != nil {
			slog.Warn("face extractor init failed — face endpoints will be unavailable", "error", err)
		} else {
			extractor = ex
			defer ort.DestroyEnvironment()
			defer ex.Close()
			slog.Info("face extractor ready")
		}
	}

	faces := faceid.NewService(db, minioStore, extractor)
	checkinSvc := checkin.NewService(db, producer)

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		SigningKey: cfg.Auth.SigningKey,
		Issuer:     cfg.Auth.Issuer,
		DB:         db,
		MinIO:      minioStore,
		Producer:   producer,
		Hub:        hub,
		Faces:      faces,
		Checkin:    checkinSvc,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

// getONNXLibPath returns the ONNX Runtime shared library path.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
