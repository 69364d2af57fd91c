// Command bbb-buttond monitors a debounced GPIO button and publishes
// confirmed press and release events to MQTT, with an HTTP status surface.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/chun/bbb-button/internal/button"
	"github.com/chun/bbb-button/internal/device"
	"github.com/chun/bbb-button/internal/gpio"
	"github.com/chun/bbb-button/internal/mailbox"
	"github.com/chun/bbb-button/internal/mqtt"
	"github.com/chun/bbb-button/internal/stats"
	"github.com/chun/bbb-button/internal/web"
)

func main() {
	chip := flag.String("chip", gpio.DefaultChip, "GPIO chip device name")
	line := flag.Int("line", gpio.DefaultLine, "GPIO line offset for the button")
	quiet := flag.Duration("quiet", button.DefaultQuiet, "quiet interval a level must hold before it is accepted")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	printState := flag.Bool("print-state", false, "print current button state and exit")
	flag.Parse()

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, *chip, *line, *quiet, *broker, *heartbeat, *httpAddr, *printState); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

func run(logger *zap.Logger, chip string, lineNum int, quiet time.Duration, broker string, heartbeat time.Duration, httpAddr string, printState bool) error {
	line, err := gpio.NewRealLine(chip, lineNum)
	if err != nil {
		return fmt.Errorf("request gpio line: %w", err)
	}

	// Print state mode
	if printState {
		level, err := line.Value()
		line.Close()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		// Active-low wiring: a low level means the button is held.
		fmt.Println(stateString(!level))
		return nil
	}

	publisher := mqtt.NewRealPublisher(broker, logger.Named("mqtt"))

	counters := &stats.Counters{}
	box := mailbox.New()
	bus := newMQTTBus(publisher, counters, time.Now)

	deb, err := button.New(line, box, bus, counters, quiet, logger.Named("debounce"))
	if err != nil {
		line.Close()
		publisher.Close()
		return fmt.Errorf("init debouncer: %w", err)
	}
	line.SetHandler(deb.OnRawTransition)

	tracker := stats.NewTracker(time.Now(), stats.Config{
		Chip:        chip,
		Line:        lineNum,
		QuietMs:     quiet.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
	}, counters, deb.Pressed, box.Drops)
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: stats.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		logger.Warn("failed to publish startup event", zap.Error(err))
	} else {
		logger.Info("published startup event")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		group.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			return srv.Shutdown(context.Background())
		})
		logger.Info("http status server listening", zap.String("addr", httpAddr))
	}

	// Drain the event mailbox so confirmed events land in the daemon log
	// even with no external consumer attached.
	dev := device.New(box, logger.Named("device"))
	group.Go(func() error {
		consumer := dev.Open()
		defer consumer.Close()
		buf := make([]byte, mailbox.MaxMessage)
		for {
			n, err := consumer.Read(groupCtx, buf)
			if errors.Is(err, mailbox.ErrInterrupted) || errors.Is(err, mailbox.ErrClosed) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read button device: %w", err)
			}
			logger.Info("event", zap.ByteString("message", bytes.TrimSuffix(buf[:n], []byte("\n"))))
		}
	})

	if heartbeat > 0 {
		group.Go(func() error {
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					tracker.SetMQTTConnected(publisher.IsConnected())
					snap := tracker.Snapshot()
					event := mqtt.SystemEvent{
						Timestamp:  snap.Now,
						Event:      "HEARTBEAT",
						RawPayload: stats.FormatStatusEvent(snap, "HEARTBEAT", ""),
					}
					if err := publisher.PublishSystem(event); err != nil {
						logger.Warn("heartbeat publish failed", zap.Error(err))
					}
				}
			}
		})
	}

	logger.Info("started",
		zap.String("chip", chip),
		zap.Int("line", lineNum),
		zap.Duration("quiet", quiet),
		zap.String("broker", broker),
		zap.Duration("heartbeat", heartbeat),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	reason := signalName(sig)
	logger.Info("shutting down", zap.String("signal", reason))

	// Stop event intake first so the final snapshot sees quiescent counters.
	if err := line.Close(); err != nil {
		logger.Warn("release gpio line", zap.Error(err))
	}
	deb.Close()

	tracker.SetMQTTConnected(publisher.IsConnected())
	snap = tracker.Snapshot()
	shutdown := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: stats.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := publisher.PublishSystem(shutdown); err != nil {
		logger.Warn("failed to publish shutdown event", zap.Error(err))
	} else {
		logger.Info("published shutdown event")
	}

	box.Close()
	cancel()
	err = group.Wait()
	publisher.Close()
	return err
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func stateString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
