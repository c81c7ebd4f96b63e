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

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"airdrums/audio"
	"airdrums/audio/speaker"
	"airdrums/config"
	"airdrums/debug"
	"airdrums/dispatch"
	"airdrums/lights"
	"airdrums/midi"
	"airdrums/synth"
	"airdrums/theme"
	"airdrums/tui"
	"airdrums/udp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "config file (default ~/.config/airdrums/config.json)")
		host       = flag.String("host", "", "listen host")
		port       = flag.Int("port", 0, "listen port")
		rate       = flag.Int("rate", 0, "sample rate")
		kit        = flag.String("kit", "", fmt.Sprintf("note mapping %v", synth.RouteNames()))
		lightsPort = flag.String("lights", "", "Launchpad output port to light on hits")
		debugLog   = flag.Bool("debug", false, "write debug log to ~/.config/airdrums/debug.log")
		headless   = flag.Bool("headless", false, "no drum kit display, run until interrupted")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Listen.Host = *host
		case "port":
			cfg.Listen.Port = *port
		case "rate":
			cfg.Audio.SampleRate = *rate
		case "kit":
			cfg.Kit = *kit
		case "lights":
			cfg.Lights = *lightsPort
		case "debug":
			cfg.Debug = *debugLog
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
	}
	debug.Log("main", "config %+v", *cfg)

	route, err := synth.LookupRoute(cfg.Kit)
	if err != nil {
		return err
	}

	start := time.Now()
	bank, err := synth.NewBank(cfg.Audio.SampleRate, synth.WithRoute(route))
	if err != nil {
		return err
	}
	debug.Log("main", "bank rendered at %dHz in %s", bank.SampleRate(), time.Since(start))

	out, err := speaker.New(cfg.Audio.SampleRate, cfg.Audio.MaxVoices)
	if err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	engine := audio.NewEngine(bank, out, audio.WithFade(time.Duration(cfg.Audio.FadeMs)*time.Millisecond))
	defer engine.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go engine.Run(ctx)

	th := theme.New(theme.Plasma())
	feed := tui.NewFeed(tui.DefaultFeedSize)
	d := dispatch.New(engine)
	if !*headless {
		d.Observe(feed)
	}
	lightsDone := make(chan struct{})
	if cfg.Lights == "" {
		close(lightsDone)
	} else {
		lp, err := openLights(cfg.Lights, route, th)
		if err != nil {
			// the pads are optional, keep playing without them
			fmt.Fprintf(os.Stderr, "lights: %v\n", err)
			debug.Log("main", "lights: %v", err)
			close(lightsDone)
		} else {
			d.Observe(lp)
			go func() {
				lp.Run(ctx)
				close(lightsDone)
			}()
		}
	}

	server := udp.NewServer(cfg.Addr(), func(data []byte) { d.HandlePacket(data) })
	if err := server.Listen(); err != nil {
		return err
	}
	status := fmt.Sprintf("Listening on %s", server.Addr())

	serverDone := make(chan error, 1)
	go func() {
		err := server.Run(ctx)
		if err != nil {
			cancel()
		}
		serverDone <- err
	}()

	if *headless {
		fmt.Println(status)
		fmt.Printf("kit %s, %dHz, ctrl+c to stop\n", route.Name, bank.SampleRate())
		<-ctx.Done()
	} else {
		var opts []tea.ProgramOption
		if cfg.UI.AltScreen {
			opts = append(opts, tea.WithAltScreen())
		}
		m := tui.NewModel(feed, th, route, status)
		p := tea.NewProgram(m, opts...)

		go func() {
			<-ctx.Done()
			p.Quit()
		}()

		if _, err := p.Run(); err != nil {
			return err
		}
	}

	cancel()
	select {
	case err := <-serverDone:
		if err != nil {
			return err
		}
	case <-time.After(time.Second):
		debug.Log("main", "server did not stop in time")
	}
	select {
	case <-lightsDone:
	case <-time.After(time.Second):
		debug.Log("main", "lights did not clear in time")
	}

	triggers, dropped := engine.Stats()
	debug.Log("main", "shutdown: %d triggers, %d dropped", triggers, dropped)
	return nil
}

func openLights(name string, route *synth.Route, th *theme.Theme) (*lights.Launchpad, error) {
	ports, err := midi.OutPorts(3 * time.Second)
	if err != nil {
		return nil, err
	}
	out, err := midi.FindOutPort(ports, name)
	if err != nil {
		return nil, err
	}
	return lights.Open(out, route, th)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if err := cfg.SaveTo(path); err != nil {
			debug.Log("main", "write default config: %v", err)
		}
	}
	return cfg, nil
}
