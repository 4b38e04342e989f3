package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"timpwm/board"
	"timpwm/config"
	"timpwm/host/mcu"
	"timpwm/host/serial"
	"timpwm/pwm"
	"timpwm/regs"
	"timpwm/timer"
)

var (
	configPath = flag.String("config", "", "Board configuration file (default: built-in example)")
	device     = flag.String("device", "/dev/ttyACM0", "Serial device of the bridge firmware")
	baud       = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	sim        = flag.Bool("sim", false, "Drive simulated registers instead of a board")
	devmem     = flag.Bool("devmem", false, "Map the timers through /dev/mem (STM32MP1 Linux)")
	verbose    = flag.Bool("verbose", false, "Print driver debug output")
)

// session is the state shared by the shell commands.
type session struct {
	cfg    *config.Board
	board  *board.Board
	mapper regs.Mapper
	mem    *regs.MemoryMap // nil unless simulating
	mark   int
}

func main() {
	flag.Parse()

	fmt.Println("timpwm host - STM32 timer PWM shell")
	fmt.Println("===================================")
	fmt.Println()

	if *verbose {
		pwm.SetDebugWriter(func(s string) { fmt.Fprintln(os.Stderr, s) })
	}

	// Exit only after the deferred closes in shell have run.
	if err := shell(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func shell() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s := &session{cfg: cfg}
	switch {
	case *sim:
		s.mem = regs.NewMemoryMap()
		s.mapper = s.mem
		fmt.Println("Using simulated registers")

	case *devmem:
		dm, err := regs.OpenDevMem()
		if err != nil {
			return err
		}
		defer dm.Close()
		s.mapper = dm
		fmt.Println("Using /dev/mem")

	default:
		fam, err := timer.LookupFamily(cfg.Family)
		if err != nil {
			return err
		}
		conn := mcu.NewMCU()
		scfg := serial.DefaultConfig(*device)
		scfg.Baud = *baud
		fmt.Printf("Connecting to bridge on %s...\n", *device)
		if err := conn.ConnectWithConfig(scfg); err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.Ping(fam); err != nil {
			return err
		}
		if s.mapper, err = conn.Mapper(); err != nil {
			return err
		}
		fmt.Println("Connected")
	}

	s.board, err = board.New(cfg, s.mapper)
	if err != nil {
		return err
	}
	board.SetPWMDriver(s.board)
	s.list()

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		args, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" || args[0] == "q" {
			return nil
		}
		if err := s.run(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func loadConfig() (*config.Board, error) {
	if *configPath == "" {
		return config.Load([]byte(config.Example))
	}
	return config.LoadFile(*configPath)
}

var errUsage = errors.New("wrong arguments (type 'help')")

func (s *session) run(args []string) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "help", "?":
		printHelp()
		return nil
	case "list":
		s.list()
		return nil
	case "regs":
		return s.regs(args)
	case "log":
		return s.log()
	}

	if len(args) < 1 {
		return errUsage
	}
	out, err := s.board.Output(args[0])
	if err != nil {
		return err
	}
	args = args[1:]

	switch cmd {
	case "show":
		fmt.Println(out)
		for _, ch := range out.Channels {
			fmt.Printf("  %v duty %d\n", ch, out.Duty(ch))
		}

	case "duty":
		if len(args) != 2 {
			return errUsage
		}
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		d, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return err
		}
		if uint32(d) >= out.MaxDuty() {
			return fmt.Errorf("duty %d must be below %d", d, out.MaxDuty())
		}
		out.SetDuty(ch, uint32(d))

	case "pwm":
		if len(args) != 2 && len(args) != 3 {
			return errUsage
		}
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		duty, err := gpio.ParseDuty(args[1])
		if err != nil {
			return err
		}
		var f physic.Frequency
		if len(args) == 3 {
			if err := f.Set(args[2]); err != nil {
				return err
			}
		}
		return out.Pin(ch).PWM(duty, f)

	case "high", "low":
		if len(args) != 1 {
			return errUsage
		}
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		return out.Pin(ch).Out(gpio.Level(cmd == "high"))

	case "freq":
		if len(args) != 1 {
			return errUsage
		}
		var f physic.Frequency
		if err := f.Set(args[0]); err != nil {
			return err
		}
		if err := out.SetFreq(f); err != nil {
			return err
		}
		fmt.Println(out)

	case "align":
		if len(args) != 1 {
			return errUsage
		}
		mode, ok := pwm.ParseCenterAlignedMode(args[0])
		if !ok {
			return fmt.Errorf("unknown alignment %q", args[0])
		}
		out.SetAlignment(mode)
		fmt.Println(out)

	case "enable", "disable":
		if len(args) != 1 {
			return errUsage
		}
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		if cmd == "enable" {
			out.Enable(ch)
		} else {
			out.Disable(ch)
		}

	case "deadtime":
		if len(args) != 1 {
			return errUsage
		}
		ticks, err := strconv.ParseUint(args[0], 0, 16)
		if err != nil {
			return err
		}
		return out.SetDeadTime(uint16(ticks))

	case "hal":
		if len(args) != 2 {
			return errUsage
		}
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return err
		}
		pin, err := s.board.PinID(out.Name, ch)
		if err != nil {
			return err
		}
		return board.MustPWM().SetDutyCycle(pin, board.PWMValue(v))

	default:
		return fmt.Errorf("unknown command %q (type 'help' for available commands)", cmd)
	}
	return nil
}

func (s *session) list() {
	fmt.Printf("Family %s, %d outputs:\n", s.cfg.Family, len(s.board.Outputs()))
	for _, o := range s.board.Outputs() {
		fmt.Printf("  %v\n", o)
	}
	fmt.Println()
}

func (s *session) regs(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	fam := s.board.Family()
	in, ok := fam.Instance(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", timer.ErrUnknownTimer, args[0])
	}
	vals, err := mcu.Dump(s.mapper, fam, in)
	if err != nil {
		return err
	}
	for _, v := range vals {
		fmt.Println(v)
	}
	return nil
}

// log prints the simulated register writes since the previous call.
func (s *session) log() error {
	if s.mem == nil {
		return errors.New("log needs -sim")
	}
	for _, a := range s.mem.Log.Since(s.mark) {
		fmt.Println(a)
	}
	s.mark = len(s.mem.Log.Writes)
	return nil
}

func parseChannel(s string) (pwm.Channel, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(s), "CH"))
	if err != nil || n < 1 || n > 4 {
		return 0, fmt.Errorf("bad channel %q", s)
	}
	return pwm.Channel(n), nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  list                        - List outputs")
	fmt.Println("  show <out>                  - Show an output and its duty values")
	fmt.Println("  duty <out> <ch> <n>         - Set the raw compare value")
	fmt.Println("  pwm <out> <ch> <d> [f]      - Set duty (50%, 0x800000) and frequency (25kHz)")
	fmt.Println("  high|low <out> <ch>         - Force the channel level")
	fmt.Println("  freq <out> <f>              - Set the output frequency")
	fmt.Println("  align <out> <mode>          - Set edge, center1, center2 or center3")
	fmt.Println("  enable|disable <out> <ch>   - Switch a channel")
	fmt.Println("  deadtime <out> <ticks>      - Set the dead time of a complementary output")
	fmt.Println("  hal <out> <ch> <0-255>      - Set duty through the PWM driver interface")
	fmt.Println("  regs <timer>                - Dump timer registers")
	fmt.Println("  log                         - Show simulated register writes")
	fmt.Println("  quit/exit/q                 - Exit the program")
	fmt.Println()
}
