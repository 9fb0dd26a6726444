// Command webhook runs a minimal notification receiver: it verifies every
// incoming signed notification against the configured trust roots and logs
// the decoded event.
//
// Configuration comes from the environment:
//
//	PORT         port to listen on (default 8080)
//	BUNDLE_ID    expected bundle identifier
//	ENVIRONMENT  Sandbox or Production (default Sandbox)
//	ROOT_CERTS   comma separated paths to PEM encoded root certificates
package main

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/zitadel/logging"

	httphelper "github.com/storesign/storesign/pkg/http"
	"github.com/storesign/storesign/pkg/store"
	"github.com/storesign/storesign/pkg/verify"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))

	verifier, err := newVerifierFromEnv(logger)
	if err != nil {
		logger.Error("failed to build verifier", "error", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))
	router.Post("/notifications", handleNotification(verifier, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
		BaseContext: func(net.Listener) context.Context {
			return logging.ToContext(ctx, logger)
		},
	}
	logger.Info("listening", "addr", server.Addr)
	httphelper.StartServer(ctx, server)
	<-ctx.Done()
}

func newVerifierFromEnv(logger *slog.Logger) (*verify.Verifier, error) {
	bundleID := os.Getenv("BUNDLE_ID")
	if bundleID == "" {
		return nil, errors.New("BUNDLE_ID not set")
	}
	environment := store.Environment(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = store.EnvironmentSandbox
	}
	roots, err := loadRoots(strings.Split(os.Getenv("ROOT_CERTS"), ","))
	if err != nil {
		return nil, err
	}
	return verify.New(roots, environment, bundleID, nil, false, verify.WithLogger(logger))
}

func loadRoots(paths []string) ([][]byte, error) {
	var roots [][]byte
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
			if block.Type == "CERTIFICATE" {
				roots = append(roots, block.Bytes)
			}
		}
	}
	if len(roots) == 0 {
		return nil, errors.New("no root certificates loaded")
	}
	return roots, nil
}

type notificationBody struct {
	SignedPayload string `json:"signedPayload"`
}

func handleNotification(verifier *verify.Verifier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body notificationBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SignedPayload == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		notification, err := verifier.VerifyAndDecodeNotification(r.Context(), body.SignedPayload)
		if err != nil {
			logger.WarnContext(r.Context(), "rejected notification", "error", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		attrs := []any{
			"type", notification.NotificationType,
			"subtype", notification.Subtype,
			"uuid", notification.NotificationUUID,
		}
		if data := notification.Data; data != nil && data.TransactionInfo != nil {
			attrs = append(attrs,
				"transaction_id", data.TransactionInfo.TransactionID,
				"product_id", data.TransactionInfo.ProductID,
			)
		}
		logger.InfoContext(r.Context(), "notification", attrs...)
		w.WriteHeader(http.StatusOK)
	}
}
