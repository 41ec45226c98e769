package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/seedkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-d string   directory holding cloud containers
//	-b string   cloud backend: folder | s3
//	-db string  path of the SQLite state database
//	-i int      account status check interval (seconds)
//	-s int      upload sync interval (seconds)
//	-l string   log level
//
// Only these flags are parsed (see flagx.FilterArgs). The intervals are applied
// only when given, so sub-second values from a config file survive.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-b", "-db", "-i", "-s", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ContainerRoot, "d", cfg.ContainerRoot, "directory holding cloud containers")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "cloud backend (folder or s3)")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "path of the state database")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	statusInterval := fs.Int("i", int(cfg.StatusCheckInterval.Seconds()), "account status check interval (in seconds)")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.StatusCheckInterval = time.Duration(*statusInterval) * time.Second
		case "s":
			cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
		}
	})
}
