package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/chrissnell/ctsmpost/internal/app"
	"github.com/chrissnell/ctsmpost/internal/log"
	"github.com/chrissnell/ctsmpost/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to a YAML configuration file. Without one, defaults and CTSMPOST_* environment variables apply")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	caseName := flag.String("case", "", "Case to extract crop calendars for")
	importCSV := flag.String("import", "", "CSV file of phase samples to load into -case before extraction")
	timeUnits := flag.String("time-units", "", "Units of the CSV time column, e.g. 'days since 2000-01-01'. Leave empty when the file has year and doy columns")
	calendarName := flag.String("calendar", "noleap", "Calendar of the CSV time column")
	serve := flag.Bool("serve", false, "Serve stored calendars over HTTP until interrupted")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ctsmpost %s\n", version)
		os.Exit(0)
	}

	provider := config.NewYAMLProvider(configPath(*cfgFile))
	cfg, err := provider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading configuration. Run with -h for help: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	if err := log.Init(*debug || cfg.Debug, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application := app.New(provider, log.GetSugaredLogger())
	err = application.Run(context.Background(), app.Task{
		ImportCSV: *importCSV,
		TimeUnits: *timeUnits,
		Calendar:  *calendarName,
		Case:      *caseName,
		Serve:     *serve,
	})
	if err != nil {
		log.Errorf("Application error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func configPath(cfgFile string) string {
	if cfgFile == "" {
		return ""
	}
	filename, err := filepath.Abs(cfgFile)
	if err != nil {
		return cfgFile
	}
	return filename
}
