package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/derktes/lirc2broadlink/server/server"
)

type flagSet struct {
	config *string
	addr   *string
	debug  *bool
}

func (fs *flagSet) parseFlags() {
	fs.config = flag.String("config", "server.yaml", "Specifies the YAML configuration file")
	fs.addr = flag.String("addr", "", "Overrides the listen address, e.g. :8080")
	fs.debug = flag.Bool("debug", false, "Enables debug logging")
	flag.Parse()
}

func buildLogger(debug bool) *zap.Logger {
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		logConfig.Level.SetLevel(zap.DebugLevel)
	}
	return zap.Must(logConfig.Build())
}

func main() {
	var fs flagSet
	fs.parseFlags()

	cfg, err := server.LoadConfig(*fs.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *fs.addr != "" {
		cfg.Addr = *fs.addr
	}
	if *fs.debug {
		cfg.Debug = true
	}

	log := buildLogger(cfg.Debug)
	defer log.Sync()

	if err := server.Start(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
