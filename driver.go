package varigen

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"github.com/carbocation/pfx"
	"golang.org/x/sync/errgroup"
)

// Options tune engine execution without affecting its output.
type Options struct {
	// Workers bounds how many chromosomes generate concurrently.
	// Zero means one worker per CPU.
	Workers int
}

// Engine drives the whole simulation: it derives streams from the master
// seed, runs the variant model pipeline per chromosome, and forwards each
// finished chromosome's variants to the sink. Chromosomes are independent
// and run concurrently; the output is identical for any worker count.
type Engine struct {
	cfg  *Config
	src  SequenceSource
	sink Sink
	opts Options

	pipe *pipeline
}

// NewEngine validates the statistical models and wires the pipeline.
// Model-parameter problems surface here, before any generation starts.
func NewEngine(cfg *Config, src SequenceSource, sink Sink, opts Options) (*Engine, error) {
	site, err := NewSiteFrequencyModel(cfg.SiteModel)
	if err != nil {
		return nil, err
	}
	pop, err := NewPopulationModel(cfg.Population.SampleSize)
	if err != nil {
		return nil, err
	}
	for _, m := range cfg.VariantModels {
		if err := m.validate(); err != nil {
			return nil, err
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	return &Engine{
		cfg:  cfg,
		src:  src,
		sink: sink,
		opts: opts,
		pipe: &pipeline{
			deriver: NewDeriver(cfg.MasterSeed, cfg.Chromosomes, len(cfg.VariantModels)),
			site:    site,
			pop:     pop,
			models:  cfg.VariantModels,
			src:     src,
		},
	}, nil
}

// Run generates every configured chromosome and writes the results to the
// sink. A failed chromosome aborts the run with its error; chromosomes
// already committed stay intact. Cancellation is cooperative: chromosomes
// already generating finish (or fail), no new ones start.
func (e *Engine) Run(ctx context.Context) error {
	chroms := make([]ChromosomeMetadata, 0, len(e.cfg.Chromosomes))
	for _, name := range e.cfg.Chromosomes {
		length, err := e.src.Length(name)
		if err != nil {
			return pfx.Err(err)
		}
		chroms = append(chroms, ChromosomeMetadata{Name: name, Length: length})
	}
	if err := e.sink.PutGenome(chroms); err != nil {
		return pfx.Err(err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for _, chrom := range e.cfg.Chromosomes {
		chrom := chrom
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			variants, err := e.pipe.Run(chrom)
			if err != nil {
				return pfx.Err(fmt.Errorf("chromosome %s: %w", chrom, err))
			}
			if err := e.sink.PutChromosome(chrom, variants); err != nil {
				return pfx.Err(fmt.Errorf("chromosome %s: %w", chrom, err))
			}

			log.Printf("chromosome %s: %d variants", chrom, len(variants))
			return nil
		})
	}

	return g.Wait()
}
