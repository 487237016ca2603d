package cmd

import (
	"github.com/urfave/cli"

	"github.com/df07/go-wavefront-raytracer/pkg/log"
)

var logger = log.New("cmd")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Debug)
	}
}
