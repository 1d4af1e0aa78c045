package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"printerd/internal/bridge"
	"printerd/internal/common/fsutil"
	"printerd/internal/config"
	"printerd/internal/device"
	"printerd/internal/httpapi"
	"printerd/internal/hub"
	"printerd/internal/state"
	"printerd/pkg/types"
)

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envOr("PRINTERD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	dev := flag.String("device", envOr("PRINTERD_DEVICE", "/dev/ttyACM0"), "Serial port path or tcp://host:port endpoint")
	baud := flag.Int("baud", envOrInt("PRINTERD_BAUD", device.DefaultBaud), "Serial baud rate")
	cfgPath := flag.String("config", envOr("PRINTERD_CONFIG", ""), "Optional config file (.yaml/.json/.toml); flags override it")
	logLevel := flag.String("log-level", envOr("PRINTERD_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	greeting := flag.String("greeting", envOr("PRINTERD_GREETING", "M300 S2000 P50,M155 S2,M73"),
		"Comma-separated commands sent on every device connect")
	slots := flag.Int("slots", envOrInt("PRINTERD_SLOTS", hub.DefaultSlots), "Maximum concurrent websocket subscribers")
	queueSize := flag.Int("queue-size", envOrInt("PRINTERD_QUEUE_SIZE", hub.DefaultQueueSize), "Per-subscriber message queue size")
	maxLineBytes := flag.Int("max-line-bytes", envOrInt("PRINTERD_MAX_LINE_BYTES", 0), "Console line length cap (0 = built-in default)")
	historyLines := flag.Int("history-lines", envOrInt("PRINTERD_HISTORY_LINES", 0), "Raw console lines retained for replay (0 = built-in default)")
	archivePath := flag.String("archive", envOr("PRINTERD_ARCHIVE", ""), "Rotating raw-console archive file (empty disables)")
	archiveSizeMB := flag.Int("archive-size-mb", envOrInt("PRINTERD_ARCHIVE_SIZE_MB", 10), "Archive rotation size in MB")
	archiveBackups := flag.Int("archive-backups", envOrInt("PRINTERD_ARCHIVE_BACKUPS", 3), "Rotated archive files kept")
	archiveAgeDays := flag.Int("archive-age-days", envOrInt("PRINTERD_ARCHIVE_AGE_DAYS", 28), "Days rotated archives are kept")
	flag.Parse()

	// A config file fills in whatever the command line left alone.
	if *cfgPath != "" {
		p, err := fsutil.ExpandHome(*cfgPath)
		if err != nil {
			log.Fatalf("config path: %v", err)
		}
		fileCfg, err := config.Load(p)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		overlay(map[string]func(){
			"addr":             func() { setStr(addr, fileCfg.Addr) },
			"device":           func() { setStr(dev, fileCfg.Device) },
			"baud":             func() { setInt(baud, fileCfg.Baud) },
			"log-level":        func() { setStr(logLevel, fileCfg.LogLevel) },
			"greeting":         func() { setStr(greeting, strings.Join(fileCfg.Greeting, ",")) },
			"slots":            func() { setInt(slots, fileCfg.Slots) },
			"queue-size":       func() { setInt(queueSize, fileCfg.QueueSize) },
			"max-line-bytes":   func() { setInt(maxLineBytes, fileCfg.MaxLineBytes) },
			"history-lines":    func() { setInt(historyLines, fileCfg.HistoryLines) },
			"archive":          func() { setStr(archivePath, fileCfg.ArchivePath) },
			"archive-size-mb":  func() { setInt(archiveSizeMB, fileCfg.ArchiveSizeMB) },
			"archive-backups":  func() { setInt(archiveBackups, fileCfg.ArchiveBackups) },
			"archive-age-days": func() { setInt(archiveAgeDays, fileCfg.ArchiveAgeDays) },
		})
	}

	logger := newLogger(*logLevel)
	bridge.SetLogger(logger)
	hub.SetLogger(logger)
	device.SetLogger(logger)
	httpapi.SetLogger(logger)

	timing := config.DefaultTiming()

	// Root context cancels every long-lived goroutine on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	httpapi.SetBaseContext(rootCtx)

	// The hub's catch-up closure reads the bridge, which itself broadcasts
	// through the hub; br is assigned before the HTTP server starts taking
	// subscribers.
	var br *bridge.Bridge
	fan := hub.New(hub.Config{
		Slots:     *slots,
		QueueSize: *queueSize,
		Interval:  timing.DeliveryInterval,
	}, func() []types.Message { return bridge.CatchUpMessages(br.State()) })

	var archive *lumberjack.Logger
	if *archivePath != "" {
		p, err := fsutil.ExpandHome(*archivePath)
		if err != nil {
			log.Fatalf("archive path: %v", err)
		}
		archive = &lumberjack.Logger{
			Filename:   p,
			MaxSize:    *archiveSizeMB,
			MaxBackups: *archiveBackups,
			MaxAge:     *archiveAgeDays,
			Compress:   true,
		}
		defer archive.Close()
	}

	br = bridge.New(bridge.Config{
		MaxLineBytes: *maxLineBytes,
		HistoryLines: *historyLines,
		Greeting:     splitCSV(*greeting),
		Archive:      archiveWriter(archive),
	}, state.New(), fan)

	src := device.New(device.Config{
		Device:         *dev,
		Baud:           *baud,
		ReconnectDelay: timing.ReconnectDelay,
	}, br)

	broker := httpapi.NewBroker(httpapi.BrokerConfig{
		WriteWait:  timing.WriteWait,
		PongWait:   timing.PongWait,
		PingPeriod: timing.PingPeriod,
	}, fan, br)

	srv := &http.Server{Addr: *addr, Handler: httpapi.NewMux(br, broker)}

	go fan.Run(rootCtx, broker)
	go func() {
		if err := src.Run(rootCtx); err != nil && rootCtx.Err() == nil {
			logger.Error().Err(err).Msg("device source stopped")
		}
	}()

	go func() {
		logger.Info().Str("addr", *addr).Str("device", *dev).Msg("printerd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	rootCancel()
	ctx, cancel := context.WithTimeout(context.Background(), timing.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// overlay runs the file-config setter for every flag the command line did
// not set explicitly.
func overlay(setters map[string]func()) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for name, apply := range setters {
		if !set[name] {
			apply()
		}
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// archiveWriter keeps the bridge's nil check meaningful: a nil *Logger in a
// non-nil io.Writer interface would still be written to.
func archiveWriter(l *lumberjack.Logger) io.Writer {
	if l == nil {
		return nil
	}
	return l
}

// newLogger builds the process logger writing human-readable console output.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// splitCSV splits a comma-separated flag value, trimming whitespace and
// dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
