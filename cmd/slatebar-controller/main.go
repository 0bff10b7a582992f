package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/clients"
	"github.com/slatebar/slatebar/pkg/colors"
	"github.com/slatebar/slatebar/pkg/config"
	"github.com/slatebar/slatebar/pkg/daemon"
	"github.com/slatebar/slatebar/pkg/interact"
	"github.com/slatebar/slatebar/pkg/modules"
	"github.com/slatebar/slatebar/pkg/panelhost"
	"github.com/slatebar/slatebar/pkg/paths"
	"github.com/slatebar/slatebar/pkg/retry"
	"github.com/slatebar/slatebar/pkg/tui"
)

var (
	configPath = flag.String("config", "", "config file (default: the per-user config dir)")
	socketFlag = flag.String("socket", "", "override the controller socket path")
	debugMode  = flag.Bool("debug", false, "enable debug logging")
)

var debugLog *log.Logger

func main() {
	flag.Parse()
	log.SetPrefix("[controller] ")

	debugLog = log.New(io.Discard, "", 0)
	if *debugMode {
		debugLog = log.New(os.Stderr, "[controller] ", log.LstdFlags|log.Lmicroseconds)
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = paths.ConfigPath()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	if _, err := paths.EnsureRuntimeDir(); err != nil {
		return err
	}
	socket := *socketFlag
	if socket == "" {
		socket = cfg.Socket
	}
	if socket == "" {
		socket = paths.SocketPath()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload := retry.NewSignal()
	router := interact.NewRouter()
	sup := bar.NewSupervisor(router, reload)
	sup.Spacing = cfg.Spacing

	if cfg.SpawnPanels {
		host := &panelhost.Host{
			Command:        cfg.PanelCommand,
			Socket:         socket,
			RestartTimeout: cfg.RetryTimeout.Std(),
			Reload:         reload,
		}
		sup.MonitorTask = host.Run
	}

	go sup.Run(ctx)

	desktop := clients.NewHyprClient()
	deps := modules.Deps{
		Desktop:      desktop,
		Audio:        clients.NewWpctlClient(),
		Power:        clients.NewUPowerClient(),
		RetryTimeout: cfg.RetryTimeout.Std(),
	}
	if err := registerModules(sup, cfg, deps); err != nil {
		return err
	}

	go discoverMonitors(ctx, sup, desktop, reload, cfg.RetryTimeout.Std())
	go watchConfig(ctx, cfgPath, reload)

	srv := daemon.NewServer(socket, paths.PidPath(), sup)
	srv.BarStyle = barStyle(cfg.Style)
	if *debugMode {
		srv.SetDebugLogger(debugLog)
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Stop()
	log.Printf("listening on %s", socket)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			debugLog.Printf("SIGHUP: firing reload")
			reload.Fire()
			continue
		}
		log.Printf("%s: shutting down", sig)
		return nil
	}
	return nil
}

// barStyle turns the configured colors into the panels' base style,
// nudging the foreground until it reads against the background.
func barStyle(s config.Style) *tui.Style {
	if s.Fg == "" && s.Bg == "" {
		return nil
	}
	fg := s.Fg
	if colors.IsHex(fg) && colors.IsHex(s.Bg) {
		fg = colors.EnsureContrast(fg, s.Bg, 4.5)
	}
	return &tui.Style{Fg: fg, Bg: s.Bg}
}

// registerModules starts every configured module instance, left end first.
// Instance IDs stay unique when a module appears more than once.
func registerModules(sup *bar.Supervisor, cfg *config.Config, deps modules.Deps) error {
	seen := map[string]int{}
	register := func(placement bar.Placement, refs []config.ModuleRef) error {
		for _, ref := range refs {
			mod, err := modules.New(ref.Name, deps, ref.Options)
			if err != nil {
				return fmt.Errorf("module %q: %w", ref.Name, err)
			}
			id := ref.Name
			if n := seen[ref.Name]; n > 0 {
				id = fmt.Sprintf("%s#%d", ref.Name, n+1)
			}
			seen[ref.Name]++
			if err := sup.Register(id, placement, mod); err != nil {
				return err
			}
		}
		return nil
	}
	if err := register(bar.Left, cfg.Modules.Left); err != nil {
		return err
	}
	return register(bar.Right, cfg.Modules.Right)
}

// discoverMonitors connects to the compositor (retrying forever) and mirrors
// its monitor list into the supervisor.
func discoverMonitors(ctx context.Context, sup *bar.Supervisor, desktop clients.DesktopClient, reload *retry.Signal, timeout time.Duration) {
	reloadSub := reload.Subscribe()
	defer reloadSub.Close()
	_, err := retry.Do(ctx, "compositor", timeout, reloadSub,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, desktop.Connect(ctx)
		})
	if err != nil {
		return
	}

	sub := desktop.Monitors().Subscribe()
	defer sub.Close()
	for {
		mons, ok := sub.Wait(ctx)
		if !ok {
			return
		}
		infos := make([]bar.MonitorInfo, 0, len(mons))
		for _, m := range mons {
			infos = append(infos, bar.MonitorInfo{
				Name:   m.Name,
				Scale:  m.Scale,
				Width:  m.Width,
				Height: m.Height,
			})
		}
		sup.SetMonitors(infos)
	}
}

// watchConfig fires the reload signal whenever the config file changes.
// Editors replace files by rename, so the watch covers the directory and
// filters on the file name.
func watchConfig(ctx context.Context, cfgPath string, reload *retry.Signal) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		debugLog.Printf("config watch unavailable: %v", err)
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(cfgPath)
	if err := watcher.Add(dir); err != nil {
		debugLog.Printf("watch %s: %v", dir, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name != cfgPath {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debugLog.Printf("config changed (%s): firing reload", ev.Op)
			reload.Fire()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			debugLog.Printf("config watch: %v", err)
		}
	}
}
