// Command wheelchair runs the wheelchair control loop on a Linux single-board
// computer and mirrors its state to MQTT and an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/wheelchair/internal/adc"
	"github.com/sweeney/wheelchair/internal/config"
	"github.com/sweeney/wheelchair/internal/controller"
	"github.com/sweeney/wheelchair/internal/display"
	"github.com/sweeney/wheelchair/internal/gpio"
	"github.com/sweeney/wheelchair/internal/motion"
	"github.com/sweeney/wheelchair/internal/mqtt"
	"github.com/sweeney/wheelchair/internal/ranging"
	"github.com/sweeney/wheelchair/internal/serial"
	"github.com/sweeney/wheelchair/internal/status"
	"github.com/sweeney/wheelchair/internal/web"
)

// uint16Value is a flag.Value for 16-bit tick counts.
type uint16Value struct{ p *uint16 }

func (v uint16Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*v.p), 10)
}

func (v uint16Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return err
	}
	*v.p = uint16(n)
	return nil
}

func main() {
	cfg := config.Default()

	flag.StringVar(&cfg.Chip, "chip", cfg.Chip, "GPIO character device")
	flag.IntVar(&cfg.Pins.IN1, "pin-in1", cfg.Pins.IN1, "BCM pin for H-bridge IN1")
	flag.IntVar(&cfg.Pins.IN2, "pin-in2", cfg.Pins.IN2, "BCM pin for H-bridge IN2")
	flag.IntVar(&cfg.Pins.IN3, "pin-in3", cfg.Pins.IN3, "BCM pin for H-bridge IN3")
	flag.IntVar(&cfg.Pins.IN4, "pin-in4", cfg.Pins.IN4, "BCM pin for H-bridge IN4")
	flag.IntVar(&cfg.Pins.Alarm, "pin-alarm", cfg.Pins.Alarm, "BCM pin for the obstacle buzzer")
	flag.IntVar(&cfg.Pins.Indicator, "pin-indicator", cfg.Pins.Indicator, "BCM pin for the pulse LED")
	flag.IntVar(&cfg.Pins.Switch, "pin-switch", cfg.Pins.Switch, "BCM pin for the joystick button (active low)")
	flag.IntVar(&cfg.RangeTrigger, "pin-trigger", cfg.RangeTrigger, "BCM pin for the range sensor trigger")
	flag.IntVar(&cfg.RangeEcho, "pin-echo", cfg.RangeEcho, "BCM pin for the range sensor echo")
	flag.BoolVar(&cfg.LCDEnabled, "lcd", cfg.LCDEnabled, "Drive an HD44780 display (false logs frames instead)")
	flag.IntVar(&cfg.LCD.RS, "pin-lcd-rs", cfg.LCD.RS, "BCM pin for LCD RS")
	flag.IntVar(&cfg.LCD.EN, "pin-lcd-en", cfg.LCD.EN, "BCM pin for LCD EN")
	flag.IntVar(&cfg.LCD.D4, "pin-lcd-d4", cfg.LCD.D4, "BCM pin for LCD D4")
	flag.IntVar(&cfg.LCD.D5, "pin-lcd-d5", cfg.LCD.D5, "BCM pin for LCD D5")
	flag.IntVar(&cfg.LCD.D6, "pin-lcd-d6", cfg.LCD.D6, "BCM pin for LCD D6")
	flag.IntVar(&cfg.LCD.D7, "pin-lcd-d7", cfg.LCD.D7, "BCM pin for LCD D7")
	flag.StringVar(&cfg.IIODevice, "adc", cfg.IIODevice, "IIO sysfs device of the analog converter")
	flag.IntVar(&cfg.ADCBits, "adc-bits", cfg.ADCBits, "Native converter resolution in bits")
	flag.StringVar(&cfg.PWMChip, "pwm", cfg.PWMChip, "sysfs PWM controller")
	flag.IntVar(&cfg.PWMChannelA, "pwm-a", cfg.PWMChannelA, "PWM channel for motor A")
	flag.IntVar(&cfg.PWMChannelB, "pwm-b", cfg.PWMChannelB, "PWM channel for motor B")
	flag.DurationVar(&cfg.PWMPeriod, "pwm-period", cfg.PWMPeriod, "PWM carrier period")
	flag.StringVar(&cfg.SerialDevice, "serial", cfg.SerialDevice, "Command link serial device")
	flag.IntVar(&cfg.Serial.BaudRate, "baud", cfg.Serial.BaudRate, "Command link baud rate")
	flag.DurationVar(&cfg.Tick, "tick", cfg.Tick, "Length of one timer tick")
	flag.DurationVar(&cfg.Loop, "loop", cfg.Loop, "Control loop period")
	flag.Var(uint16Value{&cfg.DisplayCycleTicks}, "display-cycle", "Ticks each display view stays up")
	flag.Var(uint16Value{&cfg.TelemetryTicks}, "telemetry-interval", "Ticks between telemetry lines")
	flag.Var(uint16Value{&cfg.MinDistance}, "min-distance", "Obstacle distance in cm")
	flag.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address")
	flag.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current sensor readings and exit")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid configuration: %v", err)
	}
	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printState bool) error {
	board, err := gpio.NewRealBoard(cfg.Chip, cfg.Pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	rng, err := ranging.NewHCSR04(cfg.Chip, cfg.RangeTrigger, cfg.RangeEcho, ranging.DefaultTiming())
	if err != nil {
		return fmt.Errorf("init range sensor: %w", err)
	}
	defer rng.Close()

	sampler, err := adc.NewIIOSampler(cfg.IIODevice, cfg.ADCBits)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}

	if printState {
		return printReadings(os.Stdout, board, rng, sampler)
	}

	pwm, err := motion.NewSysfsPWM(cfg.PWMChip, cfg.PWMChannelA, cfg.PWMChannelB, cfg.PWMPeriod)
	if err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}
	defer pwm.Close()

	uart, err := serial.OpenUART(cfg.SerialDevice, cfg.Serial)
	if err != nil {
		return fmt.Errorf("init serial: %w", err)
	}
	link := serial.NewTransport(uart)
	defer link.Close()

	var disp display.TextDisplay = display.NewLogDisplay()
	if cfg.LCDEnabled {
		lcd, err := display.NewHD44780(cfg.Chip, cfg.LCD)
		if err != nil {
			return fmt.Errorf("init lcd: %w", err)
		}
		defer lcd.Close()
		disp = lcd
	}

	ctrl := controller.New(controller.Hardware{
		Board:   board,
		Range:   rng,
		ADC:     sampler,
		Link:    link,
		Display: disp,
		PWM:     pwm,
	}, controller.Options{
		MinDistance:       cfg.MinDistance,
		DisplayCycleTicks: cfg.DisplayCycleTicks,
		TelemetryTicks:    cfg.TelemetryTicks,
	})

	// Initialize MQTT behind a non-blocking queue
	broker := mqtt.NewRealPublisher(cfg.Broker, mqtt.ClientID("wheelchair"))
	publisher := mqtt.NewAsyncPublisher(broker, mqtt.DefaultQueueSize)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	session := uuid.NewString()
	tracker := status.NewTracker(time.Now(), session, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	if err := ctrl.Boot(); err != nil {
		return err
	}
	tracker.SetReady(true)
	tracker.Update(ctrl.State())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: session=%s loop=%v tick=%v broker=%s heartbeat=%v", session, cfg.Loop, cfg.Tick, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Loop)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, publisher, tracker, cfg, time.Now, ticker.C, sigCh)
}

func runLoop(ctrl *controller.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg config.Config, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime
	session := tracker.Snapshot().Session

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if err := ctrl.Shutdown(); err != nil {
				log.Printf("shutdown outputs: %v", err)
			}
			tracker.Update(ctrl.State())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			res := ctrl.Step(cfg.TickAt(t.Sub(startTime)))

			if res.Telemetry != nil {
				tracker.SetLastTelemetry(strings.TrimSpace(res.Telemetry.Format()))
				err := publisher.PublishTelemetry(mqtt.TelemetryEvent{
					Timestamp: t,
					Session:   session,
					Frame:     *res.Telemetry,
				})
				if err != nil {
					log.Printf("publish error: %v", err)
					// Don't stop driving on publish failure
				}
			}

			tracker.Update(ctrl.State())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if cfg.Heartbeat > 0 && t.Sub(lastHeartbeat) >= cfg.Heartbeat {
				lastHeartbeat = t
				state := ctrl.State()
				log.Printf("heartbeat: uptime=%v iterations=%d trips=%d faults=%d",
					t.Sub(startTime), state.Iterations, state.Trips, state.Faults)

				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				snap := tracker.Snapshot()
				hbEvent := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		TickMs:            cfg.Tick.Milliseconds(),
		LoopMs:            cfg.Loop.Milliseconds(),
		HeartbeatMs:       cfg.Heartbeat.Milliseconds(),
		DisplayCycleTicks: cfg.DisplayCycleTicks,
		TelemetryTicks:    cfg.TelemetryTicks,
		MinDistance:       cfg.MinDistance,
		SerialDevice:      cfg.SerialDevice,
		Broker:            cfg.Broker,
		HTTPPort:          cfg.HTTPAddr,
	}
}

// printReadings samples every sensor once.
func printReadings(w io.Writer, board gpio.Board, rng ranging.Sensor, sampler adc.Sampler) error {
	dist, err := rng.Distance()
	if err != nil {
		return fmt.Errorf("read range: %w", err)
	}
	var samples [3]uint16
	for i, ch := range []uint8{adc.ChannelJoystickX, adc.ChannelJoystickY, adc.ChannelPulse} {
		if samples[i], err = sampler.ReadChannel(ch); err != nil {
			return fmt.Errorf("read adc channel %d: %w", ch, err)
		}
	}
	pressed, err := board.SwitchPressed()
	if err != nil {
		return fmt.Errorf("read switch: %w", err)
	}
	fmt.Fprintln(w, formatReadings(dist, samples[0], samples[1], samples[2], pressed))
	return nil
}

func formatReadings(dist, x, y, pulse uint16, pressed bool) string {
	return fmt.Sprintf("DIST: %dcm, X: %d, Y: %d, PULSE: %d, SWITCH: %s", dist, x, y, pulse, switchString(pressed))
}

func switchString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
