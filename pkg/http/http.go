package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/storesign/storesign/pkg/store"
)

var DefaultHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// HttpRequest executes the request and decodes the JSON response body into
// response. Non-2xx responses are returned as a *store.APIError when the body
// carries one; a nil response discards the body.
func HttpRequest(client *http.Client, req *http.Request, response any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unable to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &store.APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil && len(body) > 0 {
			return fmt.Errorf("http status not ok: %s %s", resp.Status, body)
		}
		return apiErr
	}

	if response == nil {
		return nil
	}
	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w %s", err, body)
	}
	return nil
}

// StartServer runs the server and shuts it down gracefully when the context
// is canceled.
func StartServer(ctx context.Context, server *http.Server) {
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Fatalf("Shutdown(): %v", err)
		}
	}()
}
