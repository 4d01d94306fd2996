package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/derktes/lirc2broadlink/collector/collector"
)

type flagSet struct {
	serialPort *string
	baudRate   *int
	serverHost *string
	serverPort *int
	cid        *string
	print      *bool
	repeat     *int
	debug      *bool
}

func (fs *flagSet) parseRequiredFlags() collector.Config {
	fs.serialPort = flag.String("serial", "", "Specifies the serial port in the form /dev/xxx")
	fs.baudRate = flag.Int("baud", 9600, "Specifies the baud rate of the serial port")
	fs.serverHost = flag.String("server", "localhost", "Specifies host name or IP address or server")
	fs.serverPort = flag.Int("port", 8080, "Specifies the port number of the server")
	fs.cid = flag.String("collectorId", "", "Specifies the id of this instance of collector")
	fs.print = flag.Bool("print", false, "Print Broadlink packets instead of publishing frames")
	fs.repeat = flag.Int("repeat", 0, "Repeat count written into printed packets")
	fs.debug = flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()
	return collector.Config{
		SerialPort:  *fs.serialPort,
		BaudRate:    *fs.baudRate,
		ServerHost:  *fs.serverHost,
		ServerPort:  *fs.serverPort,
		CollectorID: *fs.cid,
		Print:       *fs.print,
		Repeat:      *fs.repeat,
	}
}

func buildLogger(debug bool) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	// packets go to stdout in print mode
	logConfig.OutputPaths = []string{"stderr"}
	if !debug {
		logConfig.Level.SetLevel(zap.InfoLevel)
	}
	return zap.Must(logConfig.Build())
}

func main() {
	var fs flagSet
	cfg := fs.parseRequiredFlags()

	log := buildLogger(*fs.debug)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log.Info("press Ctrl-C to exit program")

	if err := collector.Start(ctx, cfg, log); err != nil {
		flag.Usage()
		log.Fatal("collector stopped", zap.Error(err))
	}
}
