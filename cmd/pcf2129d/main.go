// Command pcf2129d runs a PCF2129 real-time clock and reports its once per
// second watchdog ticks.
//
// Usage: pcf2129d [OPTIONS]
//
// Every tick the time registers are read, then published over MQTT, drawn on
// an optional SSD1306 display and shown by blinking an optional LED on a
// PCF8574 expander. The last tick is served over HTTP:
//
//	$> curl localhost:8129/status
//	{"state":"running","interrupted":false,"ticks":42,"last":{...}}
package main // import "github.com/ajanata/rtcdrivers/cmd/pcf2129d"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajanata/rtcdrivers/internal/config"
)

var msg = log.New(os.Stdout, "pcf2129d: ", 0)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("pcf2129d", flag.ExitOnError)

		fname   = fset.String("c", "", "path to YAML configuration file")
		addr    = fset.String("addr", "", "[ip]:port to serve status on (overrides http.addr)")
		verbose = fset.Bool("v", false, "log every tick")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: pcf2129d [OPTIONS]

ex:
 $> pcf2129d -c /etc/pcf2129d.yaml -v

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	cfg := config.Default()
	if *fname != "" {
		cfg, err = config.Load(*fname)
		if err != nil {
			msg.Fatalf("could not load configuration: %+v", err)
		}
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	err = cfg.Validate()
	if err != nil {
		msg.Fatalf("invalid configuration: %+v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, *verbose)
	if err != nil {
		msg.Fatalf("%+v", err)
	}
}
