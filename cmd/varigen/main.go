package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/carbocation/pfx"
	"github.com/spf13/cobra"

	"github.com/insilico/varigen"
)

const exampleParams = `# varigen parameter file
files:
  reference_file: hg38.fa.gz   # multi-FASTA reference, plain or gzip
  dbfile: out/variants.db      # output SQLite database

rng:
  master_seed: 1               # positive integer; fixes the whole run

population_model:
  standard:
    sample_size: 10            # simulated diploid samples

site_model:
  double_exp:                  # site frequency spectrum
    a1: 1.0
    k1: 20.0
    a2: 0.1
    k2: 3.0
    p0: 0.001
    p1: 0.2
    bin_cnt: 30

chromosomes: ["1", "2"]        # applied in this order

variant_models:                # earlier models win placement priority
  - snp:
      p: 0.001
  - uniformdel:
      p: 0.0001
      min_len: 2
      max_len: 20
  - uniformins:
      p: 0.0001
      min_len: 2
      max_len: 20
`

func main() {
	root := &cobra.Command{
		Use:           "varigen",
		Short:         "Simulated genome variant generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(generateCmd(), paramsCmd(), summaryCmd(), indelCmd())

	if err := root.Execute(); err != nil {
		log.Fatalln(err)
	}
}

func generateCmd() *cobra.Command {
	var (
		refOverride string
		dbOverride  string
		dryRun      bool
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "generate <params.yaml>",
		Short: "Generate a population of simulated variants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := varigen.LoadConfig(args[0])
			if err != nil {
				return err
			}
			if refOverride != "" {
				cfg.Files.ReferenceFile = refOverride
			}
			if dbOverride != "" {
				cfg.Files.DBFile = dbOverride
			}

			if dryRun {
				return printSpectrum(cfg)
			}

			if cfg.Files.ReferenceFile == "" || cfg.Files.DBFile == "" {
				return pfx.Err(fmt.Errorf("reference_file and dbfile must be set (or passed with --ref / --db)"))
			}

			rt, err := varigen.RuntimeFromEnv()
			if err != nil {
				return err
			}
			if workers > 0 {
				rt.Workers = workers
			}

			src := varigen.NewFastaSource(cfg.Files.ReferenceFile, cfg.Chromosomes)
			sink, err := varigen.CreateDBSink(cfg.Files.DBFile, cfg.MasterSeed, cfg.Population.SampleSize)
			if err != nil {
				return err
			}
			defer sink.Close()

			engine, err := varigen.NewEngine(cfg, src, sink, varigen.Options{Workers: rt.Workers})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			t0 := time.Now()
			if err := engine.Run(ctx); err != nil {
				return err
			}
			log.Printf("run %s finished in %s (sqlite driver: %s)", sink.RunID(), time.Since(t0), varigen.WhichSQLiteDriver())
			return nil
		},
	}

	cmd.Flags().StringVar(&refOverride, "ref", "", "reference file, overrides the parameter file entry")
	cmd.Flags().StringVar(&dbOverride, "db", "", "output database, overrides the parameter file entry")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the site frequency spectrum and exit")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent chromosome workers (default: one per CPU)")
	return cmd
}

func printSpectrum(cfg *varigen.Config) error {
	site, err := varigen.NewSiteFrequencyModel(cfg.SiteModel)
	if err != nil {
		return err
	}
	centers, mass := site.Spectrum()
	fmt.Println("Site frequency spectrum")
	fmt.Println("FREQ\tP")
	for i := range centers {
		fmt.Printf("%.5f\t%.6f\n", centers[i], mass[i])
	}
	return nil
}

func paramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print an example parameter file",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(exampleParams)
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <dbfile>",
		Short: "Print per-chromosome variant counts for a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := varigen.OpenDBSink(args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			meta, err := db.Metadata()
			if err != nil {
				return err
			}
			fmt.Printf("run %s  seed %d  samples %d\n", meta.RunID, meta.MasterSeed, meta.SampleSize)

			rows, err := db.Summary()
			if err != nil {
				return err
			}
			fmt.Println("CHROM\tLENGTH\tVARIANTS")
			for _, r := range rows {
				fmt.Printf("%s\t%d\t%d\n", r.Chromosome, r.Length, r.Variants)
			}
			return nil
		},
	}
}

func indelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indel <dbfile> <chromosome>",
		Short: "Print the indel length distribution for one chromosome",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := varigen.OpenDBSink(args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			hist, err := db.IndelLengths(args[1])
			if err != nil {
				return err
			}

			lengths := make([]int, 0, len(hist))
			for l := range hist {
				lengths = append(lengths, l)
			}
			sort.Ints(lengths)

			fmt.Println("  LEN | COUNT")
			for _, l := range lengths {
				fmt.Printf("%5d | %d\n", l, hist[l])
			}
			return nil
		},
	}
	return cmd
}
