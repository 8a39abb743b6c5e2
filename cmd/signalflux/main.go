package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/songzhibin97/signalflux/internal/ai"
	"github.com/songzhibin97/signalflux/internal/ai/deepseek"
	"github.com/songzhibin97/signalflux/internal/ai/openai"
	"github.com/songzhibin97/signalflux/internal/configs"
	"github.com/songzhibin97/signalflux/internal/credential"
	"github.com/songzhibin97/signalflux/internal/data"
	"github.com/songzhibin97/signalflux/internal/data/storage"
	"github.com/songzhibin97/signalflux/internal/engine"
	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/notify/discord"
	"github.com/songzhibin97/signalflux/internal/registry"
	"github.com/songzhibin97/signalflux/internal/scheduler"
	sig "github.com/songzhibin97/signalflux/internal/signal"
)

var (
	flagconf string

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "config.json", "config path, eg: -conf config.json")
}

func main() {
	flag.Parse()

	config := &configs.Config{}
	configFile, err := os.ReadFile(flagconf)
	if err != nil {
		log.Error("Error reading config file", "err", err)
		return
	}
	if err := json.Unmarshal(configFile, config); err != nil {
		log.Error("Error parsing config file", "err", err)
		return
	}

	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		log.Debug("set proxy ok", "proxy", config.Proxy)
	}

	envFile := config.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	creds, err := credential.NewEnvStore(envFile, log)
	if err != nil {
		log.Error("Error loading credential store", "err", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.New(creds, log)
	reg.ConstructAll(ctx)
	log.Info("venue clients initialized", "tokens", reg.Tokens())

	notifier := discord.New(creds, log)

	var history data.SignalStorage
	if config.Database.ConnStr != "" {
		history, err = storage.NewPostgresStorage(config.Database.ConnStr)
		if err != nil {
			log.Error("Error creating signal storage", "err", err)
			return
		}
		defer history.Close()
	}

	var analyzer ai.Analyzer
	if config.AIConfig.APIKey != "" {
		switch config.AIConfig.Provider {
		case "deepseek":
			analyzer = deepseek.NewDeepSeekAnalyzer(config.AIConfig.APIKey, config.AIConfig.ModelType)
		default:
			analyzer = openai.NewOpenAIAnalyzer(config.AIConfig.APIKey, config.AIConfig.ModelType)
		}
	}

	eng := engine.New(reg, notifier, history, analyzer, log)

	refreshInterval := parseDuration(config.Scheduler.RefreshInterval, 30*time.Minute)
	healthInterval := parseDuration(config.Scheduler.HealthInterval, time.Hour)
	sched := scheduler.New(eng, config.Scheduler.ReportTimes, refreshInterval, healthInterval, log)
	go sched.Run(ctx)

	addr := config.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:    addr,
		Handler: newMux(eng, creds),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "err", err)
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func newMux(eng *engine.Engine, creds credential.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		if !sig.VerifySignature(body, r.Header.Get("X-Signature"), creds.WebhookSecret()) {
			httpError(w, http.StatusUnauthorized, "invalid signature")
			return
		}

		// UseNumber keeps quantity/price digits exactly as sent
		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.UseNumber()

		var alert models.Alert
		if err := decoder.Decode(&alert); err != nil {
			httpError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}

		writeJSON(w, http.StatusOK, eng.ProcessSignal(r.Context(), alert))
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, eng.PortfolioStatus(r.Context()))
	})

	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		eng.RefreshClients(r.Context())
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
