package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/abyssdigger/tlgr"
	"github.com/urfave/cli/v2"
)

var (
	fileName    string
	format      string
	workers     int
	messages    int
	perThread   bool
	minLevel    int
	bufferLevel int
)

func main() {
	app := cli.NewApp()
	app.Name = "tlgrdemo"
	app.Usage = "writes messages from concurrent workers through a tlgr logger"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Value:       "tlgrdemo.log",
			Usage:       "the primary log file",
			Destination: &fileName,
		},
		&cli.StringFlag{
			Name:        "format",
			Value:       tlgr.DEFAULT_TEMPLATE,
			Usage:       "the line template",
			Destination: &format,
		},
		&cli.IntFlag{
			Name:        "workers",
			Value:       4,
			Usage:       "number of logging goroutines",
			Destination: &workers,
		},
		&cli.IntFlag{
			Name:        "messages",
			Value:       20,
			Usage:       "messages logged by every worker",
			Destination: &messages,
		},
		&cli.BoolFlag{
			Name:        "per-thread",
			Usage:       "give every worker its own file in " + tlgr.DEFAULT_LOG_DIR,
			Destination: &perThread,
		},
		&cli.IntFlag{
			Name:        "level",
			Value:       int(tlgr.DEFAULT_MIN_LEVEL),
			Usage:       "runtime threshold, 1 (ERROR) to 5 (TRACE)",
			Destination: &minLevel,
		},
		&cli.IntFlag{
			Name:        "buffer-level",
			Value:       tlgr.DEFAULT_BUFFER_LEVEL,
			Usage:       "how many of the least important levels are buffered, 0 to 4",
			Destination: &bufferLevel,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if workers < 1 || messages < 0 {
		return cli.Exit("workers must be positive and messages non-negative", 1)
	}
	cfg := tlgr.DefaultConfig(fileName, format)
	cfg.PerThreadFiles = perThread
	cfg.MinLevel = tlgr.LogLevel(minLevel)
	cfg.BufferLevel = bufferLevel
	logger, err := tlgr.InitWithParams(cfg)
	if err != nil {
		return err
	}
	defer logger.Shutdown()
	tlgr.SetDefault(logger)

	logger.Separator(tlgr.LVL_INFO, true)
	tlgr.Logf(tlgr.LVL_INFO, "starting %d workers, %d messages each", workers, messages)

	var wg sync.WaitGroup
	for n := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work(logger.NewClient("worker"+strconv.Itoa(n)), messages)
		}()
	}
	wg.Wait()

	logger.Separator(tlgr.LVL_INFO, false)
	tlgr.Logf(tlgr.LVL_INFO, "all workers done")
	return nil
}

func work(client *tlgr.LogClient, count int) {
	client.FuncStart("")
	defer client.FuncEnd("")
	defer client.Measure("work")()
	for i := range count {
		level := tlgr.LogLevel(1 + i%int(tlgr.LVL_TRACE))
		client.Logf(level, "message #%d from thread %s", i+1, client.Thread())
	}
	fmt.Fprintf(client.Lvl(tlgr.LVL_INFO), "%d messages written", count)
}
