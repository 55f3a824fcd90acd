package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Errorf("importer failed: %v", err)
		os.Exit(1)
	}
}
