package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/derktes/lirc2broadlink/broadlink"
	"github.com/derktes/lirc2broadlink/hass/hass"
	"github.com/derktes/lirc2broadlink/lirc"
)

type flagSet struct {
	url    *string
	file   *string
	entity *string
	out    *string
	remote *string
	debug  *bool
}

func (fs *flagSet) parseRequiredFlags() error {
	fs.url = flag.String("url", "", "Specifies the URL of a lircd.conf file")
	fs.file = flag.String("file", "", "Specifies a local lircd.conf file instead of -url")
	fs.entity = flag.String("entity", "", "Specifies the Home Assistant remote entity, with or without the remote. prefix")
	fs.out = flag.String("out", "", "Specifies the .yaml file to write, stdout if empty")
	fs.remote = flag.String("remote", "", "Specifies which remote to convert when the file defines several")
	fs.debug = flag.Bool("debug", false, "Enables debug logging")
	flag.Parse()
	if len(*fs.entity) < 1 {
		flag.Usage()
		return errors.New("Entity not specified")
	}
	if (*fs.url == "") == (*fs.file == "") {
		flag.Usage()
		return errors.New("Exactly one of -url and -file must be specified")
	}
	return nil
}

func main() {
	var fs flagSet
	if err := fs.parseRequiredFlags(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := buildLogger(*fs.debug)
	defer log.Sync()

	if err := run(log, &fs); err != nil {
		log.Fatal("conversion failed", zap.Error(err))
	}
}

func run(log *zap.Logger, fs *flagSet) error {
	text, err := readDefinition(*fs.url, *fs.file)
	if err != nil {
		return err
	}

	parser := lirc.NewParser(log.Named("lirc"))
	remotes, err := parser.Parse(text)
	if err != nil {
		return err
	}
	rc, err := pickRemote(remotes, *fs.remote)
	if err != nil {
		return err
	}
	log.Debug("parsed remote",
		zap.String("remote", rc.Name),
		zap.Int("buttons", len(rc.Codes)),
		zap.Int("skipped_lines", parser.Warnings()),
	)

	mapping, err := broadlink.EncodeRemote(rc)
	if mapping == nil {
		return err
	}
	if err != nil {
		// the buttons that did convert are still written
		log.Warn("some buttons were not converted", zap.Error(err))
	}

	if *fs.out == "" {
		return hass.Write(os.Stdout, mapping, *fs.entity)
	}
	if err := hass.WriteFile(*fs.out, mapping, *fs.entity); err != nil {
		return err
	}
	log.Info("scripts written", zap.String("file", *fs.out), zap.Int("scripts", len(mapping)))
	return nil
}

func readDefinition(url, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		return string(data), err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return lirc.Fetch(ctx, nil, url)
}

func pickRemote(remotes map[string]lirc.RemoteConfig, name string) (lirc.RemoteConfig, error) {
	if name != "" {
		rc, ok := remotes[name]
		if !ok {
			return rc, fmt.Errorf("remote %q not found", name)
		}
		return rc, nil
	}
	switch len(remotes) {
	case 0:
		return lirc.RemoteConfig{}, errors.New("no remote found")
	case 1:
		for _, rc := range remotes {
			return rc, nil
		}
	}
	names := make([]string, 0, len(remotes))
	for n := range remotes {
		names = append(names, n)
	}
	sort.Strings(names)
	return lirc.RemoteConfig{}, fmt.Errorf("several remotes defined, choose one with -remote: %s", strings.Join(names, ", "))
}

func buildLogger(debug bool) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.OutputPaths = []string{"stderr"}
	if !debug {
		logConfig.Level.SetLevel(zap.InfoLevel)
	}
	return zap.Must(logConfig.Build())
}
