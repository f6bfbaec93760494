package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/redis/go-redis/v9"

	"github.com/ohdm/chronotile"
	"github.com/ohdm/chronotile/config"
	"github.com/ohdm/chronotile/database/postgis"
	"github.com/ohdm/chronotile/import_"
	"github.com/ohdm/chronotile/log"
	"github.com/ohdm/chronotile/prerender"
	"github.com/ohdm/chronotile/render"
	"github.com/ohdm/chronotile/server"
	"github.com/ohdm/chronotile/stats"
	"github.com/ohdm/chronotile/task"
	"github.com/ohdm/chronotile/tilecache"
)

func printCmds() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [args]\n\n", os.Args[0])
	fmt.Println("Available commands:")
	fmt.Println("\timport")
	fmt.Println("\tserve")
	fmt.Println("\tprerender")
	fmt.Println("\tclear-cache")
	fmt.Println("\tversion")
}

func main() {
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	if len(os.Args) <= 1 {
		printCmds()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		flags := flag.NewFlagSet("import", flag.ExitOnError)
		configFile := flags.String("config", "", "config file")
		flags.Parse(os.Args[2:])
		if flags.NArg() != 1 {
			log.Fatalf("usage: %s import [-config FILE] HISTORY_DUMP", os.Args[0])
		}
		conf := loadConfig(*configFile)
		if err := import_.Run(conf, flags.Arg(0)); err != nil {
			log.Fatalf("import: %+v", err)
		}
	case "serve":
		flags := flag.NewFlagSet("serve", flag.ExitOnError)
		configFile := flags.String("config", "", "config file")
		flags.Parse(os.Args[2:])
		serve(loadConfig(*configFile))
	case "prerender":
		flags := flag.NewFlagSet("prerender", flag.ExitOnError)
		configFile := flags.String("config", "", "config file")
		flags.Parse(os.Args[2:])
		runPrerender(loadConfig(*configFile))
	case "clear-cache":
		flags := flag.NewFlagSet("clear-cache", flag.ExitOnError)
		configFile := flags.String("config", "", "config file")
		flags.Parse(os.Args[2:])
		conf := loadConfig(*configFile)
		blobs := tilecache.NewRedisBlobStore(redisClient(conf))
		if err := blobs.Flush(context.Background()); err != nil {
			log.Fatalf("clear-cache: %v", err)
		}
		log.Printf("tile cache cleared")
	case "version":
		fmt.Println(chronotile.Version)
		os.Exit(0)
	default:
		printCmds()
		log.Fatalf("invalid command: %q", os.Args[1])
	}
}

func loadConfig(filename string) *config.Config {
	conf, err := config.Load(filename)
	if err != nil {
		log.Fatal(err)
	}
	return conf
}

func redisClient(conf *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func newCoordinator(conf *config.Config) (*tilecache.Coordinator, *task.Runner) {
	client := redisClient(conf)
	styles, err := render.NewStyleProvider(conf.StyleTemplate, client, conf.StyleTTL)
	if err != nil {
		log.Fatal(err)
	}
	runner := task.NewRunner(conf.RenderWorkers, conf.RenderQueue, conf.RenderTimeout)
	coord := tilecache.NewCoordinator(tilecache.Config{
		WaitTimeout: conf.WaitTimeout,
		TTLZoom:     conf.TileTTLZoom,
		TTL:         conf.TileTTL,
	}, tilecache.NewRedisBlobStore(client), runner, render.NewMapnik(conf.MapnikURL, styles))
	return coord, runner
}

func serve(conf *config.Config) {
	stats.StartHTTP(conf.MetricsBind)
	coord, runner := newCoordinator(conf)
	defer runner.Stop()

	app := server.New(coord)
	log.Printf("serving tiles on %s", conf.HTTPBind)
	if err := app.Listen(conf.HTTPBind); err != nil {
		log.Fatal(err)
	}
}

func runPrerender(conf *config.Config) {
	pg, err := postgis.Open(postgis.Config{
		ConnectionParams: conf.Connection,
		Schema:           conf.Schema,
		Srid:             conf.Srid,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	coord, runner := newCoordinator(conf)
	defer runner.Stop()

	if err := prerender.Sweep(context.Background(), pg, coord, conf.PrerenderZoom); err != nil {
		log.Fatalf("prerender: %v", err)
	}
}
