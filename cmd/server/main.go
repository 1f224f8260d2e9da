package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/splitlite/splitlite/internal/ledger"
	"github.com/splitlite/splitlite/internal/metrics"
	"github.com/splitlite/splitlite/internal/middleware"
	"github.com/splitlite/splitlite/internal/ocr"
	"github.com/splitlite/splitlite/internal/service"
	"github.com/splitlite/splitlite/internal/storage/sqlite"
	"github.com/splitlite/splitlite/internal/verify"
	"github.com/splitlite/splitlite/pkg/logging"
)

const port = 8080

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// newSender picks the code delivery path: EmailJS when configured, a
// log-only sender otherwise.
func newSender() verify.Sender {
	serviceID := os.Getenv("EMAILJS_SERVICE_ID")
	templateID := os.Getenv("EMAILJS_TEMPLATE_ID")
	publicKey := os.Getenv("EMAILJS_PUBLIC_KEY")
	if serviceID == "" || templateID == "" || publicKey == "" {
		slog.Warn("EMAILJS_* not set, verification codes will be logged")
		return verify.LogSender{}
	}
	return &verify.EmailJSSender{
		ServiceID:  serviceID,
		TemplateID: templateID,
		PublicKey:  publicKey,
	}
}

// stubExtractor stands in until a real OCR backend is wired via config.
// It treats the upload as plain text, which is enough for curl-driven use.
type stubExtractor struct{}

func (stubExtractor) ExtractText(_ context.Context, image []byte) (string, error) {
	return string(image), nil
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/splitlite.db")
	staticPath := getEnv("STATIC_PATH", "./web/static")
	tokenSecret := getEnv("PROOF_TOKEN_SECRET", "dev-only-insecure-secret")

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	ctx := context.Background()
	ldg, err := ledger.Load(ctx, store)
	if err != nil {
		slog.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}
	slog.Info("Ledger loaded",
		"friends", len(ldg.Friends()),
		"expenses", len(ldg.Expenses()),
		"owner_set", ldg.OwnerEmail() != "",
	)

	tokens := verify.NewTokenManager(tokenSecret, 5*time.Minute)
	verifier := verify.NewService(newSender(), tokens, 10*time.Minute)

	var extractor ocr.Extractor = stubExtractor{}

	mux := http.NewServeMux()
	service.NewService(ldg, verifier, extractor).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	// Serve the SPA for everything that is not an API route.
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		slog.Error("Failed to resolve static path", "error", err)
		os.Exit(1)
	}
	slog.Info("Serving static files", "path", staticDir)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			// SPA fallback: unknown paths get the index page.
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})

	handler := middleware.Logging(
		middleware.CORS(
			middleware.WithProof(tokens)(mux),
		),
	)

	// h2c allows HTTP/2 without TLS behind a local reverse proxy.
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	addr := fmt.Sprintf(":%d", port)
	slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
