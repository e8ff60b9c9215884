// Command vault is the command-line client for the vault API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"videothingy/vault/internal/client"
)

// Config is read from the environment; flags override it.
type Config struct {
	API       string `env:"VAULT_API" env-default:"http://localhost:5000/api"`
	StatePath string `env:"VAULT_STATE" env-default:"~/.config/vault/state.json"`
}

const usage = `usage: vault [flags] <command> [args]

commands:
  folders [-scroll N]              list folders and their videos
  mkdir <name>                     create a folder
  upload <folder> <files...>       upload files into a folder, 4 at a time
  videos <folder>                  list the videos of a folder
  stream [-watch] <videoId>        print a playback URL; -watch keeps it fresh
  captions <videoId>               print the caption track URL
  caption-status <videoId>         report whether captions are ready
  generate-captions <videoId>      transcribe a video (blocks until done)
  rm-video <videoId>               delete a video
  rm-folder <name>                 delete a folder and all of its videos
  watched <videoId>                mark a video as watched
  theme <light|dark>               set the display theme

flags:
`

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "vault: %v\n", err)
		os.Exit(2)
	}

	flag.StringVar(&cfg.API, "api", cfg.API, "base URL of the vault API")
	flag.StringVar(&cfg.StatePath, "state", cfg.StatePath, "path of the local state file")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	state, err := client.NewStateStore(cfg.StatePath)
	if err != nil {
		fail(err)
	}
	if err := state.Load(); err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{
		api:    client.NewAPI(cfg.API, nil),
		state:  state,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
	if err := c.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		fail(err)
	}
}

func fail(err error) {
	errorColor.Fprintf(os.Stderr, "vault: %v\n", err)
	os.Exit(1)
}
