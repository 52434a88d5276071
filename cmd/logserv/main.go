package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"logserv/internal/aggregator"
	"logserv/internal/config"
	"logserv/internal/handler"
	"logserv/internal/logging"
)

func main() {
	result, err := config.Parse(os.Args[1:], os.Getenv, os.Getwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			config.Usage(os.Stderr)
			os.Exit(1)
		}
		os.Exit(2)
	}
	if result.ShowHelp {
		config.Usage(os.Stdout)
		return
	}
	cfg := result.Config

	logging.Start(logging.Mode{Debug: cfg.Debug})
	log := logging.L()

	var h http.Handler
	if cfg.Aggregator() {
		log.Infof("starting in aggregator mode, peers=%v", cfg.Hosts)
		h = &aggregator.Aggregator{Peers: cfg.Hosts, Root: cfg.Root}
	} else {
		log.Infof("starting in local mode, root=%s", cfg.Root)
		h = &handler.Local{Root: cfg.Root}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Infof("listening on %s", addr)
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Errorf("terminating: %v", err)
		os.Exit(3)
	}
}
