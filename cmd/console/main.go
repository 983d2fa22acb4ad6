package main

import (
	"context"
	"os"

	_ "github.com/jimmicro/version"
	"github.com/jimyag/cloudconsole/internal/console/command"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := command.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("console failed")
		os.Exit(1)
	}
}
