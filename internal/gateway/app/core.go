package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"springforge/internal/catalog"
	"springforge/internal/events"
	"springforge/internal/gateway/config"
	"springforge/internal/generator"
	"springforge/internal/llm"
	"springforge/internal/records"
	"springforge/internal/scaffold"
	"springforge/internal/templatestore"
	"springforge/internal/workspace"
)

// Core is the generation stack shared by the API server and the CLI.
type Core struct {
	Service   *scaffold.Service
	Templates *templatestore.Store
	Events    *events.Broker

	llm     llm.Client
	records records.Store
}

func NewCore(ctx context.Context, cfg *config.Config) (*Core, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	templates, err := templatestore.New(cfg.TemplateDir, templatestore.DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open template store: %w", err)
	}
	ws, err := workspace.NewManager(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	client, err := llm.New(ctx, llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Endpoint: cfg.LLM.Endpoint,
		Timeout:  cfg.LLM.Timeout,
		RPS:      cfg.LLM.RPS,
		Burst:    cfg.LLM.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}
	log.Printf("llm: provider=%s client=%s", cfg.LLM.Provider, client.Name())

	stores, err := initStores(ctx, cfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	primary := generator.NewLLMPrimary(client)
	broker := events.NewBroker(events.DefaultBuffer)
	svc, err := scaffold.NewService(scaffold.Deps{
		Catalog:   cat,
		Resolver:  generator.NewResolver(primary, generator.NewFallback(templates, primary)),
		Workspace: ws,
		Publisher: stores.publisher,
		Records:   stores.records,
		Events:    broker,
		Workers:   cfg.Workers,
	})
	if err != nil {
		_ = client.Close()
		_ = stores.records.Close()
		return nil, err
	}
	return &Core{
		Service:   svc,
		Templates: templates,
		Events:    broker,
		llm:       client,
		records:   stores.records,
	}, nil
}

func (c *Core) Close() error {
	return errors.Join(c.llm.Close(), c.records.Close())
}
