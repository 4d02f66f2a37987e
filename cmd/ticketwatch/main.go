package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mini-rodalies-3d/ticketwatch/internal/config"
	"github.com/mini-rodalies-3d/ticketwatch/internal/db"
	"github.com/mini-rodalies-3d/ticketwatch/internal/display"
	"github.com/mini-rodalies-3d/ticketwatch/internal/monitor"
	"github.com/mini-rodalies-3d/ticketwatch/internal/notify"
	"github.com/mini-rodalies-3d/ticketwatch/internal/provider"
	"github.com/mini-rodalies-3d/ticketwatch/internal/station"
	"github.com/mini-rodalies-3d/ticketwatch/internal/status"
	"github.com/mini-rodalies-3d/ticketwatch/internal/ticket"
)

// cliFlags holds the command-line options
type cliFlags struct {
	configPath  string
	proxy       string
	from        string
	to          string
	date        string
	trains      string
	seats       string
	interval    int
	intervalSet bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "config.yaml", "query configuration file")
	flag.StringVar(&f.proxy, "proxy", "", "HTTP(S) proxy URL, e.g. http://127.0.0.1:7890")
	flag.StringVar(&f.from, "from", "", "departure station, e.g. 北京")
	flag.StringVar(&f.to, "to", "", "arrival station, e.g. 上海")
	flag.StringVar(&f.date, "date", "", "travel date (YYYY-MM-DD)")
	flag.StringVar(&f.trains, "trains", "", "comma-separated train codes to watch (default: all)")
	flag.StringVar(&f.seats, "seats", "", "comma-separated seat classes to watch (default: common classes)")
	flag.IntVar(&f.interval, "interval", config.DefaultInterval, "seconds between queries")
	flag.Parse()

	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == "interval" {
			f.intervalSet = true
		}
	})
	return f
}

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cli := parseFlags()
	log.Println("Starting 12306 ticket monitor...")

	cfg := config.Load()
	if cli.proxy != "" {
		cfg.ProxyURL = cli.proxy
	}
	log.Printf("Config loaded: provider=%s, endpoints=%v, station_cache=%s", cfg.ProviderBaseURL, cfg.APIEndpoints, cfg.StationCachePath)

	prompter := config.NewPrompter(os.Stdin, os.Stdout)

	// ═══════════════════════════════════════════════════════
	// PHASE 1: Query parameters
	// ═══════════════════════════════════════════════════════
	params, err := loadQuery(prompter, cli)
	if err != nil {
		log.Fatalf("Failed to get query parameters: %v", err)
	}
	seatClasses, err := ticket.ParseSeatClasses(params.SeatTypes)
	if err != nil {
		log.Fatalf("Invalid seat types: %v", err)
	}
	spec := ticket.QuerySpec{
		FromStation: params.FromStation,
		ToStation:   params.ToStation,
		Date:        params.TrainDate,
		TrainCodes:  params.TrainCodes,
		SeatClasses: seatClasses,
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 2: Provider access
	// ═══════════════════════════════════════════════════════
	client, err := provider.NewClient(provider.Options{
		Timeout:            cfg.HTTPTimeout,
		ProxyURL:           cfg.ProxyURL,
		InsecureSkipVerify: cfg.InsecureTLS,
		Retries:            cfg.HTTPRetries,
	})
	if err != nil {
		log.Fatalf("Failed to create provider client: %v", err)
	}

	stations := station.NewDirectory(client, station.Options{
		TableURL:  cfg.StationTableURL,
		Referer:   cfg.ProviderBaseURL + "/otn/leftTicket/init",
		CachePath: cfg.StationCachePath,
		MaxAge:    time.Duration(cfg.StationCacheMaxAgeDays) * 24 * time.Hour,
	})

	queryOpts := ticket.Options{
		BaseURL:   cfg.ProviderBaseURL,
		Endpoints: cfg.APIEndpoints,
	}
	if cfg.RequestJitter {
		queryOpts.FirstJitter = provider.FirstRequestJitter
		queryOpts.FollowUpJitter = provider.FollowUpJitter
	}
	querier := ticket.NewQuerier(client, stations, queryOpts)

	// ═══════════════════════════════════════════════════════
	// PHASE 3: Poll history (optional)
	// ═══════════════════════════════════════════════════════
	monitorOpts := monitor.Options{
		Interval:     time.Duration(params.Interval) * time.Second,
		AlertRepeats: cfg.AlertRepeats,
		AlertGap:     cfg.AlertGap,
		Retention:    cfg.HistoryRetention,
	}
	var historyReader status.HistoryReader
	if cfg.HistoryDatabase != "" {
		database, err := openHistory(cfg.HistoryDatabase)
		if err != nil {
			log.Printf("Warning: poll history disabled: %v", err)
		} else {
			defer database.Close()
			monitorOpts.History = database
			historyReader = database
		}
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 4: Monitor loop
	// ═══════════════════════════════════════════════════════
	m := monitor.New(spec, querier, notify.New(os.Stdout), prompter, display.NewTableRenderer(os.Stdout), monitorOpts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.StatusAddr != "" {
		router := status.NewRouter(status.NewHandler(m, historyReader))
		go func() {
			if err := status.Serve(ctx, cfg.StatusAddr, router); err != nil {
				log.Printf("Warning: status API stopped: %v", err)
			}
		}()
	}

	fmt.Println("\n开始监控车票...")
	config.Describe(os.Stdout, *params)
	fmt.Println("按 Ctrl+C 停止监控")

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	// ═══════════════════════════════════════════════════════
	// PHASE 5: Graceful Shutdown
	// ═══════════════════════════════════════════════════════
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-sig:
		log.Println("Shutting down...")
		cancel()
		// The loop may be blocked on the operator prompt
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}

	log.Println("Goodbye!")
}

// loadQuery takes the query from flags when from/to/date are all given,
// otherwise from the config file (if the operator accepts it) or interactive prompts.
func loadQuery(p *config.Prompter, cli cliFlags) (*config.QueryParams, error) {
	if cli.from != "" && cli.to != "" && cli.date != "" {
		params := &config.QueryParams{
			FromStation: cli.from,
			ToStation:   cli.to,
			TrainDate:   cli.date,
			TrainCodes:  config.SplitList(cli.trains),
			SeatTypes:   config.SplitList(cli.seats),
			Interval:    cli.interval,
		}
		if err := params.Validate(); err != nil {
			return nil, err
		}
		return params, nil
	}

	fileParams, err := config.LoadQueryFile(cli.configPath)
	switch {
	case err == nil:
		fmt.Printf("\n从配置文件 %s 加载的查询参数:\n", cli.configPath)
		config.Describe(os.Stdout, *fileParams)
		use, err := p.Confirm("是否使用这些参数?")
		if err != nil {
			return nil, err
		}
		if use {
			if cli.intervalSet {
				fileParams.Interval = cli.interval
			}
			return fileParams, fileParams.Validate()
		}
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("No config file at %s, asking for query parameters", cli.configPath)
	default:
		log.Printf("Warning: ignoring config file: %v", err)
	}

	params, err := p.AskQuery()
	if err != nil {
		return nil, err
	}
	if cli.intervalSet {
		params.Interval = cli.interval
	}

	save, err := p.Confirm("是否保存这些参数到配置文件?")
	if err != nil {
		log.Printf("Warning: could not read answer, not saving: %v", err)
	} else if save {
		if err := config.SaveQueryFile(cli.configPath, *params); err != nil {
			log.Printf("Warning: failed to save config: %v", err)
		} else {
			log.Printf("Query parameters saved to %s", cli.configPath)
		}
	}
	return params, params.Validate()
}

func openHistory(path string) (*db.DB, error) {
	database, err := db.Connect(path)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(context.Background()); err != nil {
		database.Close()
		return nil, err
	}
	log.Println("History: database initialized")
	return database, nil
}
