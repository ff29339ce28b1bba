// In-memory EventHive API for local runs of the client.
package main

import (
	"flag"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/ds124wfegd/eventhive/internal/appServer"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	configPath := flag.String("config", "", "path to a config file (default ./config/config.yaml)")
	flag.Parse()

	viperInstance, err := config.LoadConfigFrom(*configPath)
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	appServer.NewServer(cfg)
}
