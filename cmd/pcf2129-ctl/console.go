package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/shlex"

	"github.com/ajanata/rtcdrivers/clockface"
	"github.com/ajanata/rtcdrivers/pcf2129"
)

var errQuit = errors.New("quit")

type command struct {
	args  string
	help  string
	nargs int
	run   func(con *console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"configure":   {"", "configure the chip, leaving the clock stopped", 0, (*console).configure},
		"start":       {"", "run the oscillator", 0, (*console).start},
		"stop":        {"", "stop the oscillator", 0, (*console).stop},
		"state":       {"", "print the oscillator state", 0, (*console).state},
		"resume":      {"", "acknowledge the interrupt", 0, (*console).resume},
		"interrupted": {"", "report whether an interrupt is pending", 0, (*console).interrupted},
		"read":        {"REG", "read a register, by name or address", 1, (*console).read},
		"write":       {"REG VALUE", "write a register", 2, (*console).write},
		"regs":        {"", "dump every register", 0, (*console).regs},
		"now":         {"", "read the time registers", 0, (*console).now},
		"set":         {"TIME|now", "set the time registers from an RFC 3339 time", 1, (*console).set},
		"face":        {"", "draw the clock face", 0, (*console).face},
		"log":         {"", "append the time to the scrolling tick log", 0, (*console).log},
		"help":        {"", "list commands", 0, (*console).help},
		"quit":        {"", "leave the console", 0, func(*console, []string) error { return errQuit }},
	}
	for _, name := range []string{"second", "minute", "hour", "day", "weekday", "month", "year"} {
		commands[name] = command{"", "read the " + name + " field", 0, fieldCommand(name)}
	}
}

// console runs commands against one device.
type console struct {
	dev   *pcf2129.Device
	out   io.Writer
	clock func() time.Time

	screen *clockface.Canvas // tick log, created by the first log command
	term   io.Writer
}

func newConsole(dev *pcf2129.Device, out io.Writer) *console {
	return &console{dev: dev, out: out, clock: time.Now}
}

// exec parses and runs one command line. It returns errQuit when the
// console should end.
func (con *console) exec(line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("could not parse %q: %w", line, err)
	}
	if len(words) == 0 || strings.HasPrefix(words[0], "#") {
		return nil
	}
	name, args := strings.ToLower(words[0]), words[1:]
	if name == "exit" {
		name = "quit"
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", words[0])
	}
	if len(args) != cmd.nargs {
		return fmt.Errorf("usage: %s %s", name, cmd.args)
	}
	return cmd.run(con, args)
}

func (con *console) configure([]string) error { return con.dev.Configure() }
func (con *console) start([]string) error     { return con.dev.Start() }
func (con *console) stop([]string) error      { return con.dev.Stop() }
func (con *console) resume([]string) error    { return con.dev.ResumeInterrupt() }

func (con *console) state([]string) error {
	fmt.Fprintln(con.out, con.dev.State())
	return nil
}

func (con *console) interrupted([]string) error {
	fmt.Fprintln(con.out, con.dev.IsInterrupted())
	return nil
}

func parseRegister(s string) (pcf2129.Register, error) {
	if reg, ok := pcf2129.LookupRegister(strings.ToUpper(s)); ok {
		return reg, nil
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || !pcf2129.Register(v).Valid() {
		return 0, fmt.Errorf("no register %q", s)
	}
	return pcf2129.Register(v), nil
}

func (con *console) read(args []string) error {
	reg, err := parseRegister(args[0])
	if err != nil {
		return err
	}
	v, err := con.dev.ReadRegister(reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(con.out, "%v = 0x%02x\n", reg, v)
	return nil
}

func (con *console) write(args []string) error {
	reg, err := parseRegister(args[0])
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}
	return con.dev.WriteRegister(reg, uint8(v))
}

func (con *console) regs([]string) error {
	tw := tabwriter.NewWriter(con.out, 0, 4, 1, ' ', 0)
	for _, reg := range pcf2129.Registers() {
		v, err := con.dev.ReadRegister(reg)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "0x%02x\t%v\t0x%02x\n", uint8(reg), reg, v)
	}
	return tw.Flush()
}

func fieldCommand(name string) func(*console, []string) error {
	return func(con *console, _ []string) error {
		var read func() (uint8, error)
		switch name {
		case "second":
			read = con.dev.Second
		case "minute":
			read = con.dev.Minute
		case "hour":
			read = con.dev.Hour
		case "day":
			read = con.dev.Day
		case "weekday":
			read = con.dev.Weekday
		case "month":
			read = con.dev.Month
		case "year":
			read = con.dev.Year
		}
		v, err := read()
		if err != nil {
			return err
		}
		fmt.Fprintf(con.out, "%s = 0x%02x\n", name, v)
		return nil
	}
}

func (con *console) now([]string) error {
	dt, err := con.dev.ReadDateTime()
	if err != nil {
		return err
	}
	fmt.Fprintln(con.out, dt)
	if t, err := dt.Time(); err == nil {
		fmt.Fprintln(con.out, t.Format(time.RFC3339))
	}
	return nil
}

// set writes the time registers with the oscillator stopped, then restores
// the previous oscillator state.
func (con *console) set(args []string) error {
	t := con.clock()
	if args[0] != "now" {
		var err error
		t, err = time.Parse(time.RFC3339, args[0])
		if err != nil {
			return fmt.Errorf("invalid time %q: %w", args[0], err)
		}
	}
	dt := pcf2129.DateTimeOf(t)

	running := con.dev.State() == pcf2129.StateRunning
	err := con.dev.Stop()
	if err != nil {
		return err
	}
	for _, f := range []struct {
		reg pcf2129.Register
		v   uint8
	}{
		{pcf2129.Seconds, dt.Second},
		{pcf2129.Minutes, dt.Minute},
		{pcf2129.Hours, dt.Hour},
		{pcf2129.Days, dt.Day},
		{pcf2129.Weekdays, dt.Weekday},
		{pcf2129.Months, dt.Month},
		{pcf2129.Years, dt.Year},
	} {
		err = con.dev.WriteRegister(f.reg, f.v)
		if err != nil {
			return err
		}
	}
	if running {
		return con.dev.Start()
	}
	return nil
}

func (con *console) face([]string) error {
	dt, err := con.dev.ReadDateTime()
	if err != nil {
		return err
	}
	canvas := clockface.NewCanvas(80, 24)
	err = clockface.NewFace(canvas).Draw(dt)
	if err != nil {
		return err
	}
	fmt.Fprint(con.out, canvas)
	return nil
}

func (con *console) log([]string) error {
	dt, err := con.dev.ReadDateTime()
	if err != nil {
		return err
	}
	if con.term == nil {
		con.screen = clockface.NewCanvas(128, 32)
		con.term = clockface.NewTerminal(con.screen)
	}
	_, err = fmt.Fprintf(con.term, "\n%v", dt)
	if err != nil {
		return err
	}
	fmt.Fprint(con.out, con.screen)
	return nil
}

func (con *console) help([]string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(con.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(tw, "%s %s\t%s\n", name, cmd.args, cmd.help)
	}
	return tw.Flush()
}
