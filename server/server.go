package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"

	"FreeTunes/cache"
	"FreeTunes/config"
	"FreeTunes/core/auth"
	"FreeTunes/core/fetch"
	"FreeTunes/core/hls"
	"FreeTunes/core/janitor"
	"FreeTunes/core/meta"
	"FreeTunes/core/runner"
	"FreeTunes/core/source"
	"FreeTunes/db"
	"FreeTunes/logger"
	"FreeTunes/repository"
	"FreeTunes/storage"
)

// Start boots the full service: configuration, logging, databases, the
// resolution pipeline and the HTTP/websocket routes. Blocks until SIGINT or
// SIGTERM, then shuts down gracefully.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect gorm", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		// Redis only backs segment mirroring; run without it.
		logger.Warn("redis unavailable, segment caching disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
	}

	var mirror *hls.SegmentMirror
	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
		}
		mirror = hls.NewSegmentMirror(cfg.MinioBucket)
	}

	ensureDirExists(cfg.StaticDir)
	ensureDirExists(cfg.HLSDir)
	ensureDirExists(cfg.AudioDir)

	proc := runner.NewExecRunner()
	reclaimer := janitor.New(cfg.CleanupDelay)
	registry := NewRegistry()
	authenticator := auth.NewAuthenticator(cfg.JWTSecret, cfg.TokenExpiry)

	userRepo := repository.NewMySQLUserRepository(db.DB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)

	resolver := buildResolver(cfg)
	locator := buildLocator(cfg, proc)
	fetcher, packager := buildDelivery(cfg, proc, reclaimer, mirror)

	apiHandler := NewAPIHandler(
		cfg, authenticator, userRepo, playlistRepo,
		resolver, locator, fetcher, packager, registry,
	)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/ws", apiHandler.WebSocketStreamHandler)
	router.HandleFunc("/api/stream", apiHandler.StreamHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/verify", apiHandler.AuthMiddleware(apiHandler.VerifyHandler)).Methods(http.MethodGet, http.MethodPost)

	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.GetPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/songs", apiHandler.AuthMiddleware(apiHandler.ModifyPlaylistHandler)).Methods(http.MethodPut)

	router.HandleFunc("/api/history", apiHandler.AuthMiddleware(apiHandler.GetHistoryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/history", apiHandler.AuthMiddleware(apiHandler.AddHistoryHandler)).Methods(http.MethodPut, http.MethodPost)

	// Mirrored segments, served cache-first.
	router.PathPrefix("/streams/").HandlerFunc(streamsHandler(cfg))

	// Local HLS tree and everything else under static/.
	staticFileServer := http.FileServer(http.Dir(cfg.StaticDir))
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", staticFileServer))

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down")

	registry.CloseAll(1001, "server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}

	reclaimer.Stop()
	logger.Info("server stopped")
}

func buildResolver(cfg *config.Config) meta.Resolver {
	switch cfg.MetadataProvider {
	case "ytmusic":
		return meta.NewYTMusicResolver()
	default:
		return meta.NewRemoteResolver(cfg.MetadataAPIURL)
	}
}

func buildLocator(cfg *config.Config, proc runner.ProcessRunner) source.Locator {
	switch cfg.SourceLocator {
	case "agent":
		return source.NewAgentLocator(proc, cfg.YtdlpPath, cfg.CookiesFile)
	case "ytsearch":
		return source.NewYTSearchLocator()
	default:
		return source.NewAPILocator(cfg.YoutubeAPIURL, cfg.YoutubeAPIKey)
	}
}

// buildDelivery wires the fetch and packaging stages for the configured
// mode. In direct mode no audio is downloaded; the chain providers resolve a
// remote playable link instead.
func buildDelivery(cfg *config.Config, proc runner.ProcessRunner, reclaimer *janitor.Janitor, mirror *hls.SegmentMirror) (fetch.Fetcher, hls.Packager) {
	resolvers := []fetch.LinkResolver{
		fetch.NewYTMP36Resolver(cfg.YTMP36URL, cfg.RapidAPIKey),
		fetch.NewInvidiousResolver(cfg.InvidiousURL),
		fetch.NewPipedResolver(cfg.PipedURL),
		fetch.NewConvertResolver(cfg.ConvertURL),
	}

	if cfg.FetchMode == "direct" {
		return nil, hls.NewDirectPackager(resolvers)
	}

	packager := hls.NewFFmpegPackager(
		proc, cfg.FFmpegPath, cfg.HLSDir,
		cfg.AudioBitrate, cfg.HLSSegmentTime,
		"/static/hls", reclaimer, mirror,
	)

	if cfg.FetchMode == "agent" {
		return fetch.NewAgentFetcher(proc, cfg.YtdlpPath, cfg.CookiesFile, cfg.AudioDir), packager
	}
	return fetch.NewChainFetcher(resolvers, cfg.AudioDir), packager
}

// streamsHandler serves mirrored HLS files: Redis first, MinIO on miss.
func streamsHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/")
		parts := strings.Split(objectPath, "/")
		if len(parts) != 3 || parts[0] != "streams" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", contentTypeFor(objectPath))
		w.Header().Set("Cache-Control", "public, max-age=31536000")

		cacheKey := "segment:" + parts[1] + ":" + parts[2]
		if data, err := cache.GetSegment(cacheKey); err == nil && data != nil {
			w.Write(data)
			return
		}

		client := storage.GetMinioClient()
		if client == nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := client.GetObject(ctx, cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		if _, err := io.Copy(w, object); err != nil {
			logger.Error("failed to serve mirrored file",
				logger.String("object", objectPath),
				logger.ErrorField(err))
		}
	}
}

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(path, ".ts"):
		return "video/MP2T"
	default:
		return "application/octet-stream"
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ensureDirExists(path string) {
	if err := os.MkdirAll(path, 0755); err != nil {
		logger.Fatal("failed to create directory",
			logger.String("path", path),
			logger.ErrorField(err))
	}
}
