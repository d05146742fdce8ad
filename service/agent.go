package service

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/docrag/agent"
	"github.com/viant/docrag/llm"
	"github.com/viant/docrag/tabular"
)

// OpenTabular opens the configured database and loads the mapped CSV files
func (s *Service) OpenTabular(ctx context.Context) (*tabular.Store, error) {
	cfg := s.config.Tabular
	db, err := tabular.Open(ctx, cfg.DSN, tabular.WithLogf(s.logf))
	if err != nil {
		return nil, err
	}
	if cfg.Folder == "" || len(cfg.Tables) == 0 {
		return db, nil
	}
	loaded, err := db.LoadFolder(ctx, afs.New(), cfg.Folder, cfg.Tables)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}
	s.logf("docrag: tabular ready tables=%v", loaded)
	return db, nil
}

// NewAgent builds a question router over the document retriever, db and the configured LLM; db may be nil
func (s *Service) NewAgent(db *tabular.Store, completer llm.Completer) *agent.Agent {
	if completer == nil {
		cfg := s.config.LLM
		completer = llm.New(cfg.APIKey, cfg.Model, llm.WithBaseURL(cfg.BaseURL))
	}
	opts := []agent.Option{agent.WithSearcher(s.retriever), agent.WithLogf(s.logf)}
	if db != nil {
		opts = append(opts, agent.WithDatabase(db))
	}
	return agent.New(completer, opts...)
}

// SelfTest generates questions from the loaded tables and indexed documents and checks how they route; db may be nil
func (s *Service) SelfTest(ctx context.Context, db *tabular.Store, completer llm.Completer, live bool) (*agent.Report, error) {
	var schema *tabular.Schema
	if db != nil {
		var err error
		if schema, err = db.Schema(ctx); err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
	}
	cases := agent.GenerateCases(schema, s.Documents())
	return s.NewAgent(db, completer).SelfTest(ctx, cases, live), nil
}
