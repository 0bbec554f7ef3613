// Command pcf2129-ctl drives a PCF2129 real-time clock by hand.
//
// Usage: pcf2129-ctl [OPTIONS] [COMMAND [ARGS...]]
//
// Without a command an interactive console is started:
//
//	$> pcf2129-ctl -c /etc/pcf2129d.yaml
//	pcf2129> set 2024-02-29T12:34:56Z
//	pcf2129> start
//	pcf2129> now
//	2024-02-29 12:34:57 (weekday 4)
//	2024-02-29T12:34:57Z
//
// Type help for the list of commands.
package main // import "github.com/ajanata/rtcdrivers/cmd/pcf2129-ctl"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/peterh/liner"

	"github.com/ajanata/rtcdrivers/internal/config"
	"github.com/ajanata/rtcdrivers/internal/hw"
	"github.com/ajanata/rtcdrivers/pcf2129"
)

const prompt = "pcf2129> "

func main() {
	log.SetPrefix("pcf2129-ctl: ")
	log.SetFlags(0)

	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("pcf2129-ctl", flag.ExitOnError)

		fname = fset.String("c", "", "path to YAML configuration file")
		hist  = fset.String("history", historyFile(), "path to the console history file")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: pcf2129-ctl [OPTIONS] [COMMAND [ARGS...]]

ex:
 $> pcf2129-ctl -c /etc/pcf2129d.yaml now
 $> pcf2129-ctl -c /etc/pcf2129d.yaml

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	cfg := config.Default()
	if *fname != "" {
		cfg, err = config.Load(*fname)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
	}
	err = cfg.Validate()
	if err != nil {
		log.Fatalf("invalid configuration: %+v", err)
	}

	board, err := hw.Open(cfg)
	if err != nil {
		log.Fatalf("could not open hardware: %+v", err)
	}
	defer board.Close()

	dev := pcf2129.New(board.Bus, board.IntPin())
	dev.Address = uint8(cfg.Device.Address)
	con := newConsole(dev, os.Stdout)

	if fset.NArg() > 0 {
		line := make([]string, fset.NArg())
		for i, arg := range fset.Args() {
			line[i] = quote(arg)
		}
		err = con.exec(strings.Join(line, " "))
		if err != nil && !errors.Is(err, errQuit) {
			board.Close()
			log.Fatalf("%+v", err)
		}
		return
	}

	err = interact(con, *hist)
	if err != nil {
		board.Close()
		log.Fatalf("%+v", err)
	}
}

// quote protects an argument given on the command line from shlex.
func quote(arg string) string {
	words, err := shlex.Split(arg)
	if err == nil && len(words) == 1 && words[0] == arg {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}

func interact(con *console, hist string) error {
	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	if f, err := os.Open(hist); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if hist == "" {
			return
		}
		f, err := os.Create(hist)
		if err != nil {
			log.Printf("could not save history: %+v", err)
			return
		}
		defer f.Close()
		_, _ = term.WriteHistory(f)
	}()

	for {
		line, err := term.Prompt(prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("could not read command: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		term.AppendHistory(line)

		err = con.exec(line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		}
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pcf2129-ctl.history")
}
