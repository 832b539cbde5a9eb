package main

import (
	"context"
	"log"
	"os"

	"github.com/mvoronin/forumwire/internal/buildinfo"
	"github.com/mvoronin/forumwire/internal/client/cli"
	"github.com/mvoronin/forumwire/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
