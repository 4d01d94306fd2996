package collector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tarm/serial"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/derktes/lirc2broadlink/broadlink"
)

const maxPendingPublishes = 4

// Config holds the collector settings.
type Config struct {
	SerialPort  string
	BaudRate    int
	ServerHost  string
	ServerPort  int
	CollectorID string
	// Print writes each frame as a Broadlink base64 packet to stdout
	// instead of publishing it.
	Print  bool
	Repeat int
}

func (c Config) validate() error {
	if len(c.SerialPort) < 1 {
		return errors.New("Serial port not specified")
	}
	if !c.Print && len(c.CollectorID) < 1 {
		return errors.New("Collector ID not specified")
	}
	if c.Repeat < 0 || c.Repeat > 255 {
		return broadlink.ErrRepeatCountOverflow
	}
	return nil
}

type collector struct {
	cfg    Config
	log    *zap.Logger
	client *publishClient
	out    io.Writer
}

func newCollector(cfg Config, log *zap.Logger, out io.Writer) (*collector, error) {
	c := &collector{cfg: cfg, log: log, out: out}
	if !cfg.Print {
		client, err := newPublishClient(cfg.ServerHost, cfg.ServerPort, log)
		if err != nil {
			return nil, err
		}
		c.client = client
		log.Info("frames will be published", zap.String("url", client.serverURL))
	}
	return c, nil
}

// consume reads one JSON frame per line until r is exhausted. Publishing
// happens in the background; consume waits for it before returning.
func (c *collector) consume(ctx context.Context, r io.Reader) error {
	var g errgroup.Group
	g.SetLimit(maxPendingPublishes)

	lineScanner := bufio.NewScanner(r)
	for lineScanner.Scan() {
		frameJSON := lineScanner.Bytes()
		c.log.Debug("received frame", zap.ByteString("frame", frameJSON))

		var tf taggedFrame
		if err := json.Unmarshal(frameJSON, &tf); err != nil {
			c.log.Warn("skipping malformed frame", zap.Error(err))
			continue
		}
		tf.CollectorID = c.cfg.CollectorID

		if c.cfg.Print {
			if err := c.print(tf.Frame); err != nil {
				c.log.Warn("could not encode frame", zap.Error(err))
			}
			continue
		}

		taggedFrameJSON, err := json.Marshal(tf)
		if err != nil {
			c.log.Error("error marshaling", zap.Error(err))
			continue
		}
		g.Go(func() error {
			if err := c.client.publishTaggedFrameJSON(ctx, taggedFrameJSON); err != nil {
				c.log.Warn("publish failed", zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return lineScanner.Err()
}

func (c *collector) print(f frameData) error {
	train, err := f.train()
	if err != nil {
		return err
	}
	pkt, err := broadlink.Encode(train, c.cfg.Repeat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, pkt.Base64())
	return err
}

// Start opens the serial port and forwards frames until ctx is cancelled
// or the port is closed.
func Start(ctx context.Context, cfg Config, log *zap.Logger) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if _, err := os.Stat(cfg.SerialPort); err != nil {
		return fmt.Errorf("checking serial port: %w", err)
	}
	port, err := serial.OpenPort(&serial.Config{Name: cfg.SerialPort, Baud: cfg.BaudRate})
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}
	log.Info("opened serial port", zap.String("port", cfg.SerialPort), zap.Int("baud", cfg.BaudRate))

	c, err := newCollector(cfg, log, os.Stdout)
	if err != nil {
		port.Close()
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			log.Info("closing serial port")
			port.Close()
		case <-done:
		}
	}()

	err = c.consume(ctx, port)
	if ctx.Err() != nil {
		return nil
	}
	port.Close()
	return err
}
