package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/chrissnell/remoteclimate/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	yamlConfig.ApplyDefaults()
	sqliteConfig.ApplyDefaults()

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	ok := true
	fmt.Printf("Stations - YAML: %d, SQLite: %d\n", len(yamlConfig.Stations), len(sqliteConfig.Stations))
	byID := make(map[int]config.StationData, len(sqliteConfig.Stations))
	for _, s := range sqliteConfig.Stations {
		byID[s.ID] = s
	}
	for _, y := range yamlConfig.Stations {
		s, found := byID[y.ID]
		switch {
		case !found:
			fmt.Printf("✗ Station %d missing from SQLite\n", y.ID)
			ok = false
		case s != y:
			fmt.Printf("✗ Station %d differs\n    YAML:   %+v\n    SQLite: %+v\n", y.ID, y, s)
			ok = false
		default:
			fmt.Printf("✓ Station %d (%s) matches\n", y.ID, y.Code)
		}
	}
	if len(yamlConfig.Stations) != len(sqliteConfig.Stations) {
		fmt.Println("✗ Station count mismatch")
		ok = false
	}

	ok = compareSection("Storage", yamlConfig.Storage, sqliteConfig.Storage) && ok
	ok = compareSection("Events", yamlConfig.Events, sqliteConfig.Events) && ok
	ok = compareSection("REST", yamlConfig.REST, sqliteConfig.REST) && ok
	ok = compareSection("Climate", yamlConfig.Climate, sqliteConfig.Climate) && ok
	ok = compareSection("Log", yamlConfig.Log, sqliteConfig.Log) && ok

	if !ok {
		fmt.Println("\nConfigurations differ")
		os.Exit(1)
	}
	fmt.Println("\nTest completed!")
}

func compareSection(name string, yaml, sqlite any) bool {
	if reflect.DeepEqual(yaml, sqlite) {
		fmt.Printf("✓ %s matches\n", name)
		return true
	}
	fmt.Printf("✗ %s differs\n    YAML:   %+v\n    SQLite: %+v\n", name, yaml, sqlite)
	return false
}
