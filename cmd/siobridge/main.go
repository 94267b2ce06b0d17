package main

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/siobridge/pkg/bridge"
	"github.com/robotalks/siobridge/pkg/env"
	"github.com/robotalks/siobridge/pkg/framework"
	"github.com/robotalks/siobridge/pkg/hal/gpio"
)

func init() {
	bridge.SetupFlags()
	gpio.SetupFlags()
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	bconf := bridge.NewConfig()
	surface, err := gpio.NewConfig().NewSurface(bconf.Unit())
	if err != nil {
		log.Fatalln(err)
	}
	b, err := bconf.NewBridge(surface)
	if err != nil {
		log.Fatalln(err)
	}
	defer surface.Close()

	e := env.NewConfig().SetTiming(bconf).MustNewEnv()
	e.Attach(b)

	runner := framework.NewRunner().HandleSignals()
	e.AddToRunner(runner)
	runner.Go(b)
	if err := runner.Wait(); err != nil {
		glog.Errorf("stopped: %v", err)
	}
	if err := surface.Err(); err != nil {
		glog.Errorf("gpio: %v", err)
	}
}
