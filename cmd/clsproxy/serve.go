package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/conduit-lang/clsproxy/internal/demo"
	"github.com/conduit-lang/clsproxy/pkg/middleware"
	"github.com/conduit-lang/clsproxy/pkg/proxy"
	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo accounts over HTTP",
		Long: `Start an HTTP server where every request runs in its own namespace frame.
Account members invoked by a handler observe the request's frame and request ID;
deposits are journaled inside a transaction scoped to that frame.

Endpoints:
  POST /accounts                 {"id": "...", "owner": "...", "balance": 0}
  GET  /accounts/{id}
  POST /accounts/{id}/deposits   {"amount": 10}
  GET  /accounts/{id}/trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			env, err := newEnvironment(cfg, logger, true)
			if err != nil {
				return err
			}
			defer env.Close()

			srv := &http.Server{
				Addr:              cfg.Server.Addr(),
				Handler:           newRouter(env),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			successColor := color.New(color.FgGreen, color.Bold)
			if opts.noColor {
				successColor.DisableColor()
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Listening on http://%s (namespace %q)\n", srv.Addr, cfg.Namespace)
			logger.Info("server started", zap.String("addr", srv.Addr))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")

	return cmd
}

type accountServer struct {
	env *environment

	mu       sync.Mutex
	accounts map[string]*proxy.Instance
}

type createAccountRequest struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Balance int    `json:"balance"`
}

type depositRequest struct {
	Amount int `json:"amount"`
}

type accountResponse struct {
	ID      any `json:"id"`
	Owner   any `json:"owner"`
	Balance any `json:"balance"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// newRouter builds the HTTP handler; every request enters its own frame
func newRouter(env *environment) http.Handler {
	s := &accountServer{env: env, accounts: make(map[string]*proxy.Instance)}

	mwCfg := middleware.DefaultConfig()
	mwCfg.Logger = env.logger

	r := chi.NewRouter()
	r.Use(middleware.NamespaceWithConfig(env.ns, mwCfg))

	r.Post("/accounts", s.create)
	r.Route("/accounts/{id}", func(r chi.Router) {
		r.Get("/", s.show)
		r.Post("/deposits", s.deposit)
		r.Get("/trace", s.trace)
	})
	return r
}

func (s *accountServer) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if req.ID == "" {
		s.renderError(w, r, http.StatusBadRequest, errors.New("id is required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.ID]; exists {
		s.renderError(w, r, http.StatusConflict, fmt.Errorf("account %q already exists", req.ID))
		return
	}
	acct, err := s.env.account.New(r.Context(), req.ID, req.Owner, req.Balance)
	if err != nil {
		s.renderError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	s.accounts[req.ID] = acct
	s.renderAccount(w, r, http.StatusCreated, acct)
}

func (s *accountServer) show(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.renderAccount(w, r, http.StatusOK, acct)
}

func (s *accountServer) deposit(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}

	// Deposits read then write the balance
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.env.tx.WithTransaction(r.Context(), func(ctx context.Context) error {
		_, err := acct.Call(ctx, demo.KeyDeposit, req.Amount)
		return err
	})
	switch {
	case errors.Is(err, demo.ErrInvalidAmount):
		s.renderError(w, r, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.renderAccount(w, r, http.StatusOK, acct)
}

func (s *accountServer) trace(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookup(w, r)
	if !ok {
		return
	}
	v, err := acct.Call(r.Context(), demo.KeyTrace)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	renderJSON(w, http.StatusOK, v)
}

func (s *accountServer) lookup(w http.ResponseWriter, r *http.Request) (*proxy.Instance, bool) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	acct, ok := s.accounts[id]
	s.mu.Unlock()

	if !ok {
		s.renderError(w, r, http.StatusNotFound, fmt.Errorf("account %q not found", id))
	}
	return acct, ok
}

func (s *accountServer) renderAccount(w http.ResponseWriter, r *http.Request, status int, acct *proxy.Instance) {
	ctx := r.Context()
	var resp accountResponse
	var err error
	if resp.ID, err = acct.Get(ctx, demo.KeyID); err == nil {
		if resp.Owner, err = acct.Get(ctx, demo.KeyOwner); err == nil {
			resp.Balance, err = acct.Get(ctx, demo.KeyBalance)
		}
	}
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	renderJSON(w, status, resp)
}

func (s *accountServer) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.env.logger.Error("request failed", zap.Error(err), zap.String("path", r.URL.Path))
	}
	renderJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: middleware.RequestID(r.Context(), s.env.ns),
	})
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
