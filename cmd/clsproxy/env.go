package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conduit-lang/clsproxy/internal/cli/config"
	"github.com/conduit-lang/clsproxy/internal/demo"
	"github.com/conduit-lang/clsproxy/pkg/cls"
	"github.com/conduit-lang/clsproxy/pkg/proxy"
	"github.com/conduit-lang/clsproxy/pkg/txscope"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// environment wires the demo classes to a namespace and, optionally, a database
type environment struct {
	cfg     *config.Config
	logger  *zap.Logger
	ns      *cls.Namespace
	classes demo.Classes
	account *proxy.WrappedClass
	tx      *txscope.Manager
	db      *sql.DB
}

func newEnvironment(cfg *config.Config, logger *zap.Logger, withDB bool) (*environment, error) {
	reg := cls.NewRegistry(logger)
	ns, err := reg.GetOrCreate(cfg.Namespace)
	if err != nil {
		return nil, err
	}

	env := &environment{cfg: cfg, logger: logger, ns: ns}

	if withDB {
		db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if _, err := db.ExecContext(context.Background(), demo.Schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		env.db = db
		env.tx = txscope.NewManager(db, ns)
	}

	env.classes = demo.NewClasses(ns, env.tx)

	pcfg, err := cfg.ProxyConfig(logger)
	if err != nil {
		env.Close()
		return nil, err
	}
	pcfg.Provider = proxy.RegistryProvider(reg)

	env.account, err = proxy.WrapWithConfig(env.classes.Account, pcfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

// Close releases the database, if one was opened
func (e *environment) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

// countEntries returns the number of journaled deposits
func (e *environment) countEntries(ctx context.Context) (int, error) {
	var n int
	err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}
