package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/sourcebots/sbot.go/pkg/config"
	"github.com/sourcebots/sbot.go/pkg/lifecycle"
)

var skipWaitStart bool

func init() {
	flag.BoolVar(&skipWaitStart, "skip-wait-start", skipWaitStart, "Do not block at the start gate.")
}

func main() {
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		glog.Exit(err)
	}
	robot, err := lifecycle.New(context.Background(), lifecycle.Options{
		Config:        cfg,
		SkipWaitStart: skipWaitStart,
	})
	if err != nil {
		glog.Exit(err)
	}
	robot.HandleSignals()

	glog.Info("robot running")
	// the match timer or a signal ends the process
	select {}
}
