package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JayRKay91/photo-share-app-v3/internal/handlers"
	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
	"github.com/JayRKay91/photo-share-app-v3/internal/media"
	"github.com/JayRKay91/photo-share-app-v3/internal/middleware"
	"github.com/JayRKay91/photo-share-app-v3/internal/reconcile"
	"github.com/JayRKay91/photo-share-app-v3/internal/startup"
	"github.com/JayRKay91/photo-share-app-v3/internal/store"
	"github.com/JayRKay91/photo-share-app-v3/internal/upload"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize metadata store
	storeStart := time.Now()
	st, err := store.Open(config.DataDir)
	if err != nil {
		startup.LogFatal("Failed to open metadata store: %v", err)
	}
	startup.LogStoreInit(time.Since(storeStart), len(st.Keys()))

	// Initialize libvips for HEIC normalization
	media.InitVips()
	defer media.ShutdownVips()

	// Check derive tooling
	startup.CheckFFmpeg()

	// Build the upload pipeline
	pipe, err := upload.New(st, config.UploadDir, config.ThumbDir, media.NormalizeHEIC, media.GenerateThumbnail)
	if err != nil {
		startup.LogFatal("Failed to initialize upload pipeline: %v", err)
	}

	// Start the reconciliation loop in the background
	rec := reconcile.New(st, config.UploadDir, config.ThumbDir, config.ReconcileInterval, media.GenerateThumbnail)
	go rec.Start()

	// Initialize handlers
	h, err := handlers.New(st, pipe, rec, config)
	if err != nil {
		startup.LogFatal("Failed to initialize handlers: %v", err)
	}

	// Setup router and middleware chain
	router := setupRouter(h, config)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	handler := middleware.Logger(loggingConfig)(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Optional metrics listener
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, rec)

	startup.LogServerStarted(config, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	// Health and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Gallery pages
	r.HandleFunc("/", h.Gallery).Methods("GET")
	r.HandleFunc("/upload", h.UploadForm).Methods("GET")
	r.HandleFunc("/upload", h.Upload).Methods("POST")
	r.HandleFunc("/tag/{tagname}", h.FilterByTag).Methods("GET")

	// Per-file operations
	r.HandleFunc("/add_tag/{filename}", h.AddTag).Methods("POST")
	r.HandleFunc("/remove_tag/{filename}/{tag}", h.RemoveTag).Methods("POST")
	r.HandleFunc("/rename_tag_single", h.RenameTagSingle).Methods("POST")
	r.HandleFunc("/rename_tag_global", h.RenameTagGlobal).Methods("POST")
	r.HandleFunc("/delete/{filename}", h.Delete).Methods("POST")
	r.HandleFunc("/download/{filename}", h.Download).Methods("GET")
	r.HandleFunc("/update_description/{filename}", h.UpdateDescription).Methods("POST")
	r.HandleFunc("/add_comment/{filename}", h.AddComment).Methods("POST")

	// Stored media and derived thumbnails
	r.PathPrefix("/media/").Handler(
		http.StripPrefix("/media/", http.FileServer(http.Dir(config.UploadDir))))
	r.PathPrefix("/thumbnails/").Handler(
		http.StripPrefix("/thumbnails/", http.FileServer(http.Dir(config.ThumbDir))))

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, rec *reconcile.Reconciler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rec.Stop()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	startup.LogShutdownComplete()
}
