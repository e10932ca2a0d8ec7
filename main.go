package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"raffle-panel/config"
	"raffle-panel/database"
	"raffle-panel/logger"
	"raffle-panel/web"
	"raffle-panel/web/global"
	"raffle-panel/web/service"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/op/go-logging"
)

func runWebServer() {
	fmt.Printf("%s %s (%s policy)\n", config.GetName(), config.GetVersion(), config.GetPolicy())

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		fmt.Println("unknown log level:", config.GetLogLevel())
		os.Exit(1)
	}

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		logger.Error("initialize database failed:", err)
		os.Exit(1)
	}

	raffleService := service.NewRaffleService(config.GetPolicy())
	if err := raffleService.Init(); err != nil {
		logger.Error("initialize raffle state failed:", err)
		os.Exit(1)
	}

	server := web.NewServer(raffleService)
	global.SetWebServer(server)
	if err := server.Start(); err != nil {
		logger.Error("start web server failed:", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		logger.Warning("stop web server:", err)
	}
}

func seedDatabase(file string) {
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		fmt.Println("initialize database failed:", err)
		os.Exit(1)
	}

	if file == "" {
		if err := database.ResetAll(); err != nil {
			fmt.Println("reset database failed:", err)
			os.Exit(1)
		}
		fmt.Println("database reset, ready for a new raffle")
		return
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		fmt.Println("read seed file failed:", err)
		os.Exit(1)
	}
	data := &database.SeedData{}
	if err := json.Unmarshal(raw, data); err != nil {
		fmt.Println("parse seed file failed:", err)
		os.Exit(1)
	}
	if err := database.Seed(data); err != nil {
		fmt.Println("seed database failed:", err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d items and %d participants\n", len(data.Items), len(data.Participants))
}

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		runWebServer()
		return
	}

	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "show version")

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	var seedFile string
	seedCmd.StringVar(&seedFile, "file", "", "JSON file with items and participants")

	switch os.Args[1] {
	case "run":
		runWebServer()
	case "seed":
		seedCmd.Parse(os.Args[2:])
		seedDatabase(seedFile)
	case "reset":
		seedDatabase("")
	default:
		flag.Parse()
		if showVersion {
			fmt.Println(config.GetVersion())
			return
		}
		fmt.Println("usage:", os.Args[0], "[run|seed -file <path>|reset]")
	}
}
