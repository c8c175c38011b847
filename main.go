package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/ratiobudget/ratiobudget/internal/config"
	log "github.com/sirupsen/logrus"
)

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// Globals holds options shared by every command
type Globals struct {
	Config string `help:"Path to the YAML configuration file." default:"${config_path}" type:"path"`
}

var cli struct {
	Globals `embed:""`

	Serve  serveCmd  `cmd:"" default:"1" help:"Serve the JSON API (default)."`
	Backup backupCmd `cmd:"" help:"Export or import a JSON backup of all data."`
	Report reportCmd `cmd:"" help:"Write the spreadsheet report."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("ratiobudget"),
		kong.Description("Personal budgeting with the 55-40-5 rule."),
		kong.Vars{"config_path": config.PathFromEnv()},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
