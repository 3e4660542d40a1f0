package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/lixenwraith/reel-cortex/audio"
	"github.com/lixenwraith/reel-cortex/config"
	"github.com/lixenwraith/reel-cortex/core"
	"github.com/lixenwraith/reel-cortex/engine"
	"github.com/lixenwraith/reel-cortex/game"
	"github.com/lixenwraith/reel-cortex/hint"
	"github.com/lixenwraith/reel-cortex/logging"
	"github.com/lixenwraith/reel-cortex/metrics"
	"github.com/lixenwraith/reel-cortex/render"
	"github.com/lixenwraith/reel-cortex/spin"
	"github.com/lixenwraith/reel-cortex/status"
)

var (
	configFlag = flag.String("config", config.DefaultPath, "Path to the TOML config file")
	debugFlag  = flag.Bool("debug", false, "Enable debug logging to the log directory")
	seedFlag   = flag.Uint64("seed", 0, "Seed landing indices for a replayable session (0 uses crypto/rand)")
)

func main() {
	// Panic recovery: ensure terminal is reset even if the game crashes
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reel-cortex: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal")
	}

	// The default path is optional, an explicit one is not
	cfg, err := config.Load(*configFlag, *configFlag != config.DefaultPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.New(cfg.Log, *debugFlag)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	core.RegisterCrashScreen(screen)
	// Normal exit terminal cleanup
	defer screen.Fini()
	screen.HideCursor()

	reg := status.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Addr, m, reg, log.Named("metrics"))
		if _, err := srv.Start(); err != nil {
			log.Warn("metrics server unavailable", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Stop(ctx)
			}()
		}
	}

	// Audio is optional, the game runs silent when the device is unavailable
	sound := audio.NewSoundManager(&cfg.Audio, log.Named("audio"))
	if err := sound.Initialize(); err != nil {
		log.Warn("audio initialization failed, continuing without audio", zap.Error(err))
	}
	defer sound.Cleanup()

	loop := engine.NewFrameLoop(cfg.FrameInterval(), nil, 256)
	loop.SetLogger(log.Named("loop"))
	sched := engine.NewTimerScheduler(loop.Post)
	defer sched.Close()

	var rng spin.RandomSource
	if *seedFlag != 0 {
		rng = spin.NewSeededRandom(*seedFlag)
	}

	app, err := game.New(game.Options{
		Config:    cfg,
		Scheduler: sched,
		Post:      loop.Post,
		Resolver:  buildResolver(cfg, log.Named("hint")),
		Drawer:    render.NewRenderer(screen),
		Sound:     sound,
		Metrics:   m,
		Status:    reg,
		Logger:    log,
		Random:    rng,
		Quit:      loop.Stop,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	// Input polling runs off the loop; events are applied on it
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if !loop.Post(func() { app.HandleEvent(ev) }) {
				return
			}
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Start()
	err = loop.Run(ctx, app.Frame)
	log.Info("loop exited", zap.Uint64("frames", loop.Frames()), zap.Error(err))
	if errors.Is(err, engine.ErrLoopStopped) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildResolver layers cache and deadline fallback over the generative client
// Without a key or with hints disabled only the local table is used
func buildResolver(cfg *config.Config, log *zap.Logger) hint.Resolver {
	local := hint.NewLocalResolver(nil)
	if !cfg.Hint.Enabled || cfg.Hint.APIKey == "" {
		log.Info("generative hints off, using local insights")
		return local
	}

	var inner hint.Resolver = hint.NewGenerativeClient(cfg.Hint.Endpoint, cfg.Hint.Model, cfg.Hint.APIKey, nil, log)
	if cfg.Hint.CacheSize > 0 {
		inner = hint.NewCachingResolver(inner, cfg.Hint.CacheSize, cfg.HintCacheTTL())
	}
	return hint.NewFallbackResolver(inner, local, cfg.HintTimeout(), log)
}
