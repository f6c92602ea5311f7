package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/rs/zerolog"

	"github.com/phil-mansfield/galtree/config"
	"github.com/phil-mansfield/galtree/cosmo"
	"github.com/phil-mansfield/galtree/diag"
	"github.com/phil-mansfield/galtree/engine"
	"github.com/phil-mansfield/galtree/halo"
	"github.com/phil-mansfield/galtree/logging"
	"github.com/phil-mansfield/galtree/output"
	"github.com/phil-mansfield/galtree/physics"
)

type FileGroup struct {
	log, prof *os.File
	writer    *output.SQLiteWriter
}

func (fg *FileGroup) Close() {
	if fg.writer != nil {
		if err := fg.writer.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.log != nil {
		if err := fg.log.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		if err := fg.prof.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		logFile, profFile string
		exampleConfig     bool
	)

	flag.StringVar(&logFile, "Log", "", "Log file. Overrides 'LogFile'.")
	flag.StringVar(&profFile, "PProf", "",
		"CPU profile output file. Overrides 'ProfileFile'.")
	flag.BoolVar(&exampleConfig, "ExampleConfig", false,
		"Prints an example configuration file to stdout.")
	flag.Parse()

	if exampleConfig {
		fmt.Println(config.ExampleRunFile)
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		log.Fatal("Usage: galtree [flags] run.config")
	}

	con, err := config.ReadRunConfig(args[0])
	if err != nil {
		log.Fatal(err.Error())
	}
	if logFile != "" {
		con.LogFile = logFile
	}
	if profFile != "" {
		con.ProfileFile = profFile
	}

	fg, logger := setupIO(con)
	defer fg.Close()

	if err := run(con, fg, logger); err != nil {
		logger.Error().Err(err).Msg("Run failed")
		fg.Close()
		os.Exit(1)
	}
}

// setupIO opens every file the run writes to and builds its logger.
func setupIO(con *config.RunConfig) (*FileGroup, zerolog.Logger) {
	var err error
	fg := new(FileGroup)

	var out io.Writer = os.Stderr
	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		out = fg.log
	}

	cfg, _ := logging.ConfigFromString(con.LogLevel)
	if con.ValidLogFile() {
		cfg.NoColor = true
	}
	logger := logging.New(out, "galtree", cfg)

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			log.Fatal(err.Error())
		}
	}

	if con.ValidOutputFile() {
		fg.writer, err = output.NewSQLiteWriter(con.OutputFile)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg, logger
}

func run(con *config.RunConfig, fg *FileGroup, logger zerolog.Logger) error {
	scales, err := cosmo.ReadSnaplist(con.SnaplistFile)
	if err != nil {
		return err
	}
	ltTime, err := cosmo.LookbackTimes(con.Cosmology(), scales)
	if err != nil {
		return err
	}
	zs := make([]float64, len(scales))
	for i := range scales {
		zs[i] = cosmo.Redshift(scales[i])
	}

	ctx := engine.NewContext(physics.New(con.Physics()), ltTime)
	ctx.Redshift = zs
	ctx.Log = logger
	ctx.CheckCounts = con.CheckCounts

	var w engine.Writer = output.Discard{}
	if fg.writer != nil {
		w = fg.writer
		logger.Info().Str("run_id", fg.writer.RunID()).
			Str("file", con.OutputFile).Msg("Writing galaxies")
	}

	rep, err := engine.Run(ctx, halo.NewTextLoader(con.CatalogDir), w, con.Engine())
	if err != nil {
		return err
	}

	hist := diag.NewHistory(rep.Final())
	kills, mergers, created := hist.Totals()
	logger.Info().Int("realizations", len(rep.Results)).
		Int("killed", kills).Int("merged", mergers).Int("new", created).
		Msg("Run complete")

	if con.ValidMetricsFile() {
		if err := diag.WriteMetrics(con.MetricsFile, ctx.Counters.Registry); err != nil {
			return err
		}
	}
	if con.ValidPlotFile() {
		if err := diag.PlotHistory(con.PlotFile, hist); err != nil {
			return err
		}
		plt.Execute()
	}
	return nil
}
