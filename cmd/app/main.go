package main

import (
	"github.com/vpetrakov/learnhub/core/internal/app"
	"github.com/vpetrakov/learnhub/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
