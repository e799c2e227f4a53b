// Command wheelchair-sim runs the wheelchair controller against simulated
// hardware in an interactive shell.
package main

import (
	"flag"
	"log"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/sweeney/wheelchair/internal/controller"
)

const simKey = "$sim"

var commands = []*ishell.Cmd{
	{
		Name: "dist",
		Help: "CM [CM...]  script range readings, one per step",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			return s.setDistance(c.Args)
		}),
	},
	{
		Name: "joy",
		Help: "X Y  set joystick axes (0-1023, centre 512)",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			return s.setJoystick(c.Args)
		}),
	},
	{
		Name: "press",
		Help: "hold the joystick button",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			s.setPressed(true)
			return nil
		}),
	},
	{
		Name: "release",
		Help: "release the joystick button",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			s.setPressed(false)
			return nil
		}),
	},
	{
		Name: "pulse",
		Help: "SAMPLE [SAMPLE...]  script pulse sensor samples, one per step",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			return s.setPulse(c.Args)
		}),
	},
	{
		Name: "send",
		Help: "TEXT  queue command bytes on the serial link",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			return s.send(c.Args)
		}),
	},
	{
		Name: "overrun",
		Help: "flag a receiver overrun",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			s.overrun()
			return nil
		}),
	},
	{
		Name:    "step",
		Aliases: []string{"s"},
		Help:    "[N]  run N control iterations",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			lines, err := s.step(c.Args)
			if err != nil {
				return err
			}
			for _, l := range lines {
				c.Println(l)
			}
			return nil
		}),
	},
	{
		Name: "show",
		Help: "print the display, outputs and counters",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			c.Println(s.show())
			return nil
		}),
	},
	{
		Name: "serial",
		Help: "print and clear serial output",
		Func: withSim(func(s *sim, c *ishell.Context) error {
			c.Print(s.drainSerial())
			return nil
		}),
	},
}

func simFrom(c *ishell.Context) *sim {
	return c.Get(simKey).(*sim)
}

func withSim(fn func(s *sim, c *ishell.Context) error) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if err := fn(simFrom(c), c); err != nil {
			c.Err(err)
		}
	}
}

func main() {
	minDistance := flag.Uint("min-distance", 0, "Obstacle threshold in cm (0 = default)")
	displayCycle := flag.Uint("display-cycle-ticks", 0, "Ticks per display view (0 = default)")
	telemetryTicks := flag.Uint("telemetry-ticks", 0, "Ticks between telemetry frames (0 = default)")
	ticksPerStep := flag.Uint("ticks-per-step", 10, "Timer ticks advanced by each step")
	flag.Parse()

	if *minDistance > 0xFFFF || *displayCycle > 0xFFFF || *telemetryTicks > 0xFFFF || *ticksPerStep > 0xFFFF {
		log.Fatal("tick and distance flags must fit in 16 bits")
	}

	s, err := newSim(controller.Options{
		MinDistance:       uint16(*minDistance),
		DisplayCycleTicks: uint16(*displayCycle),
		TelemetryTicks:    uint16(*telemetryTicks),
	}, uint16(*ticksPerStep))
	if err != nil {
		log.Fatalf("boot: %v", err)
	}

	shell := ishell.New()
	shell.Set(simKey, s)
	shell.SetPrompt("wheelchair > ")
	for _, cmd := range commands {
		shell.AddCmd(cmd)
	}

	// Commands on the command line are run in order, separated by ";".
	if args := flag.Args(); len(args) > 0 {
		for _, line := range strings.Split(strings.Join(args, " "), ";") {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			if err := shell.Process(fields...); err != nil {
				log.Fatalln(err)
			}
		}
		return
	}
	shell.Println("wheelchair simulator, type 'help' for commands")
	shell.Run()
}
