package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"periph.io/x/host/v3"

	"buttonexec/internal/config"
	"buttonexec/pkg/executor"
	"buttonexec/pkg/gpiopin"
	"buttonexec/pkg/logx"
	"buttonexec/pkg/timer"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	logSvc, log := logx.New(cfg.Logging.Logx())
	defer logSvc.Close()
	mgr.SetLogger(log)

	if err := run(ctx, mgr, cfg, logSvc, log); err != nil {
		log.Error("fatal", logx.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, mgr *config.Manager, cfg *config.Config, logSvc *logx.Service, log logx.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio host init: %w", err)
	}

	pull, err := gpiopin.ParsePull(cfg.Button.Pull)
	if err != nil {
		return err
	}
	pin, err := gpiopin.Open(cfg.Button.Pin, pull)
	if err != nil {
		return err
	}
	pressed, err := cfg.Button.Level()
	if err != nil {
		return err
	}
	debounce, err := cfg.Button.DebounceInterval()
	if err != nil {
		return err
	}

	fac := timer.New(timer.WithLogger(log.With(logx.String("component", "timer"))))

	// The demo payload: while executing, log a heartbeat every 250ms and a
	// slower status line at 1Hz. Registrations do not survive a stop, so
	// OnStart re-registers them on every press.
	var exec *executor.Executor
	onStart := func() {
		if _, err := exec.CallbackEveryMillis(250*time.Millisecond, func() {
			log.Info("heartbeat")
		}); err != nil {
			log.Warn("heartbeat registration failed", logx.Err(err))
		}
		if _, err := exec.CallbackEveryHertz(1, func() {
			log.Info("status", logx.Int("active_callbacks", exec.ActiveCallbacks()))
		}); err != nil {
			log.Warn("status registration failed", logx.Err(err))
		}
	}

	exec, err = executor.New(executor.Config{
		Pin:              pin,
		PressedLevel:     pressed,
		DebounceInterval: debounce,
		OnSetup:          func() { log.Info("sketch setup", logx.String("pin", pin.Name())) },
		OnStart:          onStart,
		OnStop:           func() { log.Info("sketch stopped") },
		Log:              log.With(logx.String("component", "executor")),
	}, fac)
	if err != nil {
		return err
	}
	if err := exec.Setup(); err != nil {
		return err
	}

	// Watch the config file; only logging changes apply live. Button and
	// poll changes need a restart, since executor config is immutable.
	sub := mgr.Subscribe(1)
	defer mgr.Unsubscribe(sub)
	go func() {
		if err := mgr.Watch(ctx); err != nil {
			log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	// Busy-poll, paced so a hot loop does not pin a core. The cap must stay
	// well above 1/debounce or sampling fidelity suffers.
	lim := rate.NewLimiter(rate.Limit(cfg.Poll.Rate()), 1)
	log.Info("polling", logx.Int("max_rate", cfg.Poll.Rate()), logx.Duration("debounce", debounce))

	for {
		select {
		case <-ctx.Done():
			exec.AbortExecution()
			return nil
		case next := <-sub:
			logSvc.Apply(next.Logging.Logx())
			if next.Button != cfg.Button || next.Poll != cfg.Poll {
				log.Warn("button/poll config changed; restart to apply")
			}
		default:
		}

		if err := lim.Wait(ctx); err != nil {
			exec.AbortExecution()
			return nil
		}
		if err := exec.Poll(); err != nil {
			return err
		}
	}
}
