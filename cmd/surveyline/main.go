package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"surveyline/internal/api"
	"surveyline/pkg/config"
	"surveyline/pkg/db"
	"surveyline/pkg/drawing"
	"surveyline/pkg/export"
	"surveyline/pkg/logging"
	"surveyline/pkg/metrics"
	"surveyline/pkg/model"
	"surveyline/pkg/pipeline"
	"surveyline/pkg/probe"
	"surveyline/pkg/store"
	"surveyline/pkg/survey"
	"surveyline/pkg/version"
	"surveyline/pkg/watcher"
)

const defaultConfigPath = "configs/surveyline.yaml"

type options struct {
	configPath string
	initConfig bool
	input      string
	output     string
	format     string
	mode       string
	serve      bool
	store      bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("surveyline", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: surveyline [options]\n\n")
		fmt.Fprintf(stderr, "surveyline segments ground survey points into drawable lines and\n")
		fmt.Fprintf(stderr, "projects them onto a longitudinal elevation profile.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  surveyline -i road.txt                  # road.dxf with points, ground line and profile\n")
		fmt.Fprintf(stderr, "  surveyline -i road.txt -f shp -m connect # road_points.shp + road_lines.shp\n")
		fmt.Fprintf(stderr, "  surveyline --serve                      # HTTP API\n")
	}

	o := &options{}
	fs.StringVarP(&o.configPath, "config", "c", defaultConfigPath, "Path to the YAML config file")
	fs.BoolVar(&o.initConfig, "init-config", false, "Generate default config file and exit")
	fs.StringVarP(&o.input, "input", "i", "", "Survey point file (nr Y X Z code per line) or a point shapefile")
	fs.StringVarP(&o.output, "output", "o", "", "Output path (default: input path with the format's extension)")
	fs.StringVarP(&o.format, "format", "f", "dxf", "Output format: "+strings.Join(export.Formats(), ", "))
	fs.StringVarP(&o.mode, "mode", "m", string(pipeline.ModeProfile), "Drawing mode: points, connect, profile")
	fs.BoolVarP(&o.serve, "serve", "s", false, "Run the HTTP API")
	fs.BoolVar(&o.store, "store", false, "Also save the processed survey to the database")
	fs.BoolVarP(&o.version, "version", "V", false, "Print version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if o.version {
		fmt.Printf("surveyline version %s\n", version.Version)
		return
	}

	if o.initConfig {
		if err := config.GenerateDefault(o.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", o.configPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o *options, stdout io.Writer) error {
	appCfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("surveyline started", "version", version.Version)

	if o.serve {
		return serve(ctx, appCfg)
	}
	if o.input == "" {
		return errors.New("no input file given (use --input or --serve)")
	}
	return convert(ctx, appCfg, o, stdout)
}

// convert is the one-shot mode: read, process, draw, export.
func convert(ctx context.Context, appCfg *config.Config, o *options, stdout io.Writer) error {
	mode, err := pipeline.ParseMode(o.mode)
	if err != nil {
		return err
	}
	w, err := export.ForFormat(o.format)
	if err != nil {
		return err
	}

	points, err := readInput(o.input, appCfg)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(o.input), filepath.Ext(o.input))
	proc := pipeline.NewProcessor(appCfg, slog.Default(), metrics.Default())
	sv, err := proc.Process(ctx, name, points)
	if err != nil {
		return err
	}

	d, err := pipeline.BuildDrawing(sv, mode, drawing.NewStyle(appCfg.Drawing), appCfg.Profile)
	if err != nil {
		return err
	}

	out := o.output
	if out == "" {
		out = defaultOutput(o.input, w)
	}
	if err := w.WriteFile(out, d); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	if o.store {
		if err := saveSurvey(ctx, appCfg, sv); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "%s: %d points, %d runs, %d breaks, profile length %.2f -> %s\n",
		name, len(sv.Points), len(sv.Runs), len(sv.Skips), sv.Summary.Length, out)
	return nil
}

// readInput picks the reader by extension: shapefiles are read from the
// points layer, everything else as a field-book text file.
func readInput(path string, appCfg *config.Config) (model.Points, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return survey.ReadShapefile(path, appCfg.Drawing.Layers.Points)
	}
	return survey.ReadFile(path)
}

func defaultOutput(input string, w export.Writer) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if enc, ok := w.(export.Encoder); ok {
		return base + enc.Extension()
	}
	return base + ".shp"
}

func saveSurvey(ctx context.Context, appCfg *config.Config, sv *model.Survey) error {
	st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveSurvey(ctx, sv); err != nil {
		return fmt.Errorf("failed to save survey: %w", err)
	}
	slog.Info("Survey stored", "id", sv.ID, "db", appCfg.DB.Path)
	return nil
}

func initDB(appCfg *config.Config) (*store.SQLiteStore, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if ret := time.Duration(appCfg.DB.Retention); ret > 0 {
		n, err := dbConn.PruneSurveys(ret)
		if err != nil {
			slog.Warn("Failed to prune old surveys", "error", err)
		} else if n > 0 {
			slog.Info("Pruned old surveys", "count", n, "retention", ret)
		}
	}
	return store.NewSQLiteStore(dbConn), nil
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, appCfg *config.Config) error {
	st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	checks := []probe.Probe{probe.Ping("database", st)}
	for _, dir := range appCfg.Inbox.Paths {
		checks = append(checks, probe.WritableDir("inbox "+dir, dir, false))
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, checks)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	m := metrics.Default()
	proc := pipeline.NewProcessor(appCfg, slog.Default(), m)

	if len(appCfg.Inbox.Paths) > 0 {
		w := watcher.NewService(appCfg.Inbox.Paths, appCfg.Inbox.Extensions)
		watchCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			w.Run(watchCtx, time.Duration(appCfg.Inbox.Interval), func(ctx context.Context, path string) error {
				return ingest(ctx, appCfg, proc, st, path)
			})
		}()
		// The store is closed on return; let an in-flight ingest finish first.
		defer func() {
			cancel()
			<-done
		}()
		slog.Info("Watching inbox", "paths", appCfg.Inbox.Paths, "interval", time.Duration(appCfg.Inbox.Interval))
	}

	srv := api.NewServer(appCfg.Server, api.NewSurveyHandler(st, proc, appCfg), metrics.GetRegistry(), m)
	return runServerLifecycle(ctx, srv)
}

// ingest processes and stores one survey file dropped into the inbox.
func ingest(ctx context.Context, appCfg *config.Config, proc *pipeline.Processor, st store.SurveyStore, path string) error {
	points, err := readInput(path, appCfg)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sv, err := proc.Process(ctx, name, points)
	if err != nil {
		return err
	}
	return st.SaveSurvey(ctx, sv)
}

func runServerLifecycle(ctx context.Context, srv *http.Server) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
