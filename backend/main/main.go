package main

import (
	"nightsafe/backend/config"
	"nightsafe/backend/server"

	"github.com/apex/log"
)

func main() {
	log.Info("Hello!")
	server.StartService(config.Load())
	log.Info("Bye!")
}
