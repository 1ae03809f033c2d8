// Command max24h prints the largest 24 hour precipitation or snowfall total
// for a station and date range, or the full period summary with -summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/storage/climatedb"
	"github.com/chrissnell/remoteclimate/internal/summary"
	"github.com/chrissnell/remoteclimate/pkg/climate"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration")
	dsn := flag.String("dsn", "", "Climate database connection string (overrides -config)")
	station := flag.Int("station", 0, "Station id")
	element := flag.String("element", "precip", "Hourly element: precip or snow")
	begin := flag.String("begin", "", "First day of the range (YYYY-MM-DD)")
	end := flag.String("end", "", "Last day of the range (YYYY-MM-DD, default: end of -begin's month)")
	full := flag.Bool("summary", false, "Print the full period summary instead")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	if err := log.Init(*debug, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *station == 0 || *begin == "" {
		fmt.Fprintln(os.Stderr, "Error: -station and -begin are required")
		flag.Usage()
		os.Exit(2)
	}

	b, err := climate.ParseDate(*begin)
	if err != nil {
		log.Fatalf("invalid -begin: %v", err)
	}
	e := b.LastOfMonth()
	if *end != "" {
		if e, err = climate.ParseDate(*end); err != nil {
			log.Fatalf("invalid -end: %v", err)
		}
	}

	cfg, err := loadConfig(*cfgFile, *dsn)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := climatedb.New(ctx, cfg.Storage.Postgres, nil)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	svc := summary.NewService(db, db, cfg.Climate, nil)

	var out any
	if *full {
		out, err = svc.PeriodSummary(ctx, *station, b, e)
	} else {
		out, err = svc.Max24Hour(ctx, *station, database.HourlyElement(*element), b, e)
	}
	if err != nil {
		db.Close()
		log.Fatalf("%v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Errorf("error writing output: %v", err)
	}
}

func loadConfig(cfgFile, dsn string) (*config.ConfigData, error) {
	if dsn != "" {
		cfg := &config.ConfigData{Storage: config.StorageData{Postgres: &config.PostgresData{ConnectionString: dsn}}}
		cfg.ApplyDefaults()
		return cfg, nil
	}

	filename, _ := filepath.Abs(cfgFile)
	provider := config.NewYAMLProvider(filename)
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
