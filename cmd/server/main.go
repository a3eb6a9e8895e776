package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amanullahtanweer/speaker-align/internal/config"
	"github.com/amanullahtanweer/speaker-align/internal/processor"
	"github.com/amanullahtanweer/speaker-align/internal/server"
	"github.com/amanullahtanweer/speaker-align/internal/store"
	"github.com/amanullahtanweer/speaker-align/internal/transcriber"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

// AudioSocket always carries 8kHz signed linear audio
const slinSampleRate = 8000

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	flag.String("host", "0.0.0.0", "Listen address")
	flag.Int("port", 8080, "Listen port")
	flag.String("provider", "vosk", "Transcription provider: vosk, assemblyai")
	flag.String("diarizer", "none", "Diarization provider: http, command, none")
	flag.String("recordings-dir", "recordings", "Directory for recorded call audio")
	flag.Bool("redis", false, "Store results in Redis")
	flag.Parse()

	if _, err := os.Stat(configFile); err != nil {
		log.Warnf("Config file %s not found, using defaults and environment", configFile)
		configFile = ""
	}

	cfg, err := config.Load(configFile, flag.CommandLine)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	var st processor.Store
	if cfg.Redis.Enabled {
		rs := store.New(store.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rs.Ping(ctx); err != nil {
			log.Warnf("Redis unavailable, results will only be written to %s: %v", cfg.Output.Dir, err)
		} else {
			st = rs
		}
		cancel()
		defer rs.Close()
	}

	proc, err := processor.FromConfig(cfg, st)
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}

	tcfg := cfg.TranscriberConfig()
	tcfg.SampleRate = slinSampleRate
	srv, err := server.New(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Provider:        cfg.Transcription.Provider,
		SampleRate:      slinSampleRate,
		RecordingsDir:   cfg.Server.RecordingsDir,
		TranscriptsDir:  cfg.Output.Dir,
		SaveTranscripts: cfg.Server.SaveTranscripts,
	}, func() (transcriber.Transcriber, error) {
		return transcriber.New(tcfg)
	}, proc)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := srv.Listen(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	go func() {
		if err := srv.Serve(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down server...")
	srv.Stop()
}
