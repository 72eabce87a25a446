package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"Solaire/internal/auth"
	"Solaire/internal/calc/premium/autodesign"
	"Solaire/internal/calc/premium/batch"
	"Solaire/internal/calc/premium/recommend"
	"Solaire/internal/calc/solar"
	"Solaire/internal/client"
	"Solaire/internal/config"
	"Solaire/internal/importer"
	"Solaire/internal/logging"
	"Solaire/internal/metrics"
	"Solaire/internal/profile"
	"Solaire/internal/project"
	"Solaire/internal/quote"
	"Solaire/internal/repo"
	"Solaire/internal/repo/memstore"
)

var wg sync.WaitGroup

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func HandleList(mux *mux.Router, store repo.Store, cfg config.Config) {
	authEnv := &auth.Authenv{JWTkey: cfg.TokenKey, Repo: store, SecureCookie: cfg.TLSEnabled()}
	profileH := &profile.ProfileHandler{Repo: store, UploadDir: cfg.UploadDir}

	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	mux.Use(metrics.Middleware)
	mux.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")
	api.HandleFunc("/logout", authEnv.LogoutHandler).Methods("POST")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	secureApi.HandleFunc("/profile", profileH.GetProfile).Methods("GET")
	secureApi.HandleFunc("/profile", profileH.UpdateProfile).Methods("PATCH", "PUT")
	secureApi.HandleFunc("/profile/logo", profileH.UploadLogo).Methods("POST")

	solarH := &solar.Handler{DefaultPrice: cfg.ElectricityPrice}
	batchH := &batch.Handler{DefaultPrice: cfg.ElectricityPrice}
	recommendH := &recommend.Handler{DefaultPrice: cfg.ElectricityPrice}
	autoH := &autodesign.Handler{DefaultPrice: cfg.ElectricityPrice}

	secureApi.HandleFunc("/tools/solar/calc", solarH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/solar/batch", batchH.Solar).Methods("POST")
	secureApi.HandleFunc("/tools/solar/recommend", recommendH.Solar).Methods("POST")
	secureApi.HandleFunc("/tools/solar/autodesign", autoH.Solar).Methods("POST")

	clientH := &client.Handler{Repo: store, Projects: store}
	importH := &importer.Handler{Repo: store}
	secureApi.HandleFunc("/clients", clientH.List).Methods("GET")
	secureApi.HandleFunc("/clients", clientH.Create).Methods("POST")
	secureApi.HandleFunc("/clients/stats", clientH.Stats).Methods("GET")
	secureApi.HandleFunc("/clients/import", importH.Clients).Methods("POST")
	secureApi.HandleFunc("/clients/{id}", clientH.Get).Methods("GET")
	secureApi.HandleFunc("/clients/{id}", clientH.Update).Methods("PUT")
	secureApi.HandleFunc("/clients/{id}", clientH.Delete).Methods("DELETE")

	projectH := &project.Handler{Repo: store, Quotes: store, DefaultPrice: cfg.ElectricityPrice}
	secureApi.HandleFunc("/projects", projectH.List).Methods("GET")
	secureApi.HandleFunc("/projects", projectH.Create).Methods("POST")
	secureApi.HandleFunc("/projects/stats", projectH.Stats).Methods("GET")
	secureApi.HandleFunc("/projects/{id}", projectH.Get).Methods("GET")
	secureApi.HandleFunc("/projects/{id}", projectH.Update).Methods("PUT")
	secureApi.HandleFunc("/projects/{id}", projectH.Delete).Methods("DELETE")
	secureApi.HandleFunc("/projects/{id}/simulate", projectH.Simulate).Methods("POST")

	quoteH := &quote.Handler{Repo: store, Users: store, ValidityDays: cfg.QuoteValidityDays, UploadDir: cfg.UploadDir}
	secureApi.HandleFunc("/quotes", quoteH.List).Methods("GET")
	secureApi.HandleFunc("/quotes", quoteH.Create).Methods("POST")
	secureApi.HandleFunc("/quotes/{id}", quoteH.Get).Methods("GET")
	secureApi.HandleFunc("/quotes/{id}", quoteH.Delete).Methods("DELETE")
	secureApi.HandleFunc("/quotes/{id}/status", quoteH.UpdateStatus).Methods("PATCH")
	secureApi.HandleFunc("/quotes/{id}/pdf", quoteH.PDF).Methods("GET")

	mux.PathPrefix("/uploads/").
		Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	authFileServer := http.FileServer(http.Dir("./static/auth"))
	mux.PathPrefix("/auth/").
		Handler(authEnv.RedirectIfLoggedIn(http.StripPrefix("/auth", authFileServer)))
	mainFileServer := http.FileServer(http.Dir("./static/main"))
	mux.PathPrefix("/").
		Handler(authEnv.PageMiddleware(mainFileServer))
}

// recoveryLogger lets gorilla's recovery handler report panics through zerolog.
type recoveryLogger struct{ zerolog.Logger }

func (l recoveryLogger) Println(v ...interface{}) {
	l.Error().Msg(fmt.Sprint(v...))
}

// Wrap applies the outer middleware chain to the router.
func Wrap(router *mux.Router, logger zerolog.Logger) http.Handler {
	var h http.Handler = CORS(router)
	h = handlers.CompressHandler(h)
	h = logging.AccessLog(logger)(h)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))(h)
}

func openStore(ctx context.Context, cfg config.Config) (repo.Store, func(), error) {
	if cfg.Storage == "memory" {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return memstore.New(), func() {}, nil
	}
	db, err := auth.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repo.NewPostgresDB(db), func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("close database")
	}
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel)
	metrics.Register()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage init failed")
	}
	defer closeStore()

	router := mux.NewRouter()
	HandleList(router, store, cfg)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: Wrap(router, logger),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info().Str("addr", cfg.ListenAddr).Bool("tls", cfg.TLSEnabled()).Msg("starting server")
		var err error
		if cfg.TLSEnabled() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, closing active connections")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	wg.Wait()
	logger.Info().Msg("server stopped")
}
