// Package app wires the signal layer on top of a repository set.
package app

import (
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinesignal/internal/catalog"
	"github.com/Clark-Hu/cinesignal/internal/enrich"
	"github.com/Clark-Hu/cinesignal/internal/feed"
	"github.com/Clark-Hu/cinesignal/internal/ranking"
	"github.com/Clark-Hu/cinesignal/internal/reaction"
	"github.com/Clark-Hu/cinesignal/internal/recommend"
	"github.com/Clark-Hu/cinesignal/internal/repository"
	"github.com/Clark-Hu/cinesignal/internal/signal"
)

// Options tune the wiring.
type Options struct {
	PopularDefaultCount int
	Logger              zerolog.Logger
}

// Services is the assembled layer.
type Services struct {
	Repo      *repository.Repository
	Sink      feed.Sink
	Signals   *signal.Store
	Reactions *reaction.Engine
	Ranker    *ranking.Ranker
	Recommend *recommend.Engine
	Assembler *enrich.Assembler
	Catalog   *catalog.Catalog
	Logger    zerolog.Logger
}

// New builds every component over repo. A nil sink disables feed emission.
func New(repo *repository.Repository, sink feed.Sink, opts Options) *Services {
	if sink == nil {
		sink = feed.Discard{}
	}
	logger := opts.Logger

	signals := signal.New(repo.Likes, sink, logger)
	ranker := ranking.New(repo.Films, repo.Likes, ranking.Options{DefaultCount: opts.PopularDefaultCount, Logger: logger})
	rec := recommend.New(repo.Likes, logger)
	assembler := enrich.New(enrich.Sources{
		Genres:    repo.Films,
		Directors: repo.Films,
		Likes:     signals,
		Reviews:   repo.Reviews,
	}, logger)

	return &Services{
		Repo:      repo,
		Sink:      sink,
		Signals:   signals,
		Reactions: reaction.New(repo.Reactions, sink, logger),
		Ranker:    ranker,
		Recommend: rec,
		Assembler: assembler,
		Catalog:   catalog.New(repo.Films, ranker, rec, assembler),
		Logger:    logger,
	}
}
