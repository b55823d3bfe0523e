package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/angle.receiver/internal/simulator"
	"github.com/banshee-data/angle.receiver/internal/version"
)

var (
	targetIP      = flag.String("target-ip", "127.0.0.1", "Receiver IP address")
	dataPort      = flag.Int("data-port", 5005, "Data port")
	discoveryPort = flag.Int("discovery-port", 5006, "Discovery port")
	rate          = flag.Float64("rate", simulator.DefaultRate, "Send rate in Hz")
	mode          = flag.String("mode", string(simulator.ModeRotate), "Simulation mode: rotate, sine, static or random")
	speed         = flag.Float64("speed", simulator.DefaultSpeed, "Rotation speed in degrees/sec (rotate mode)")
	seed          = flag.Uint64("seed", 0, "Seed for random mode (0 picks one from the clock)")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("angle-simulator"))
		return
	}

	m, err := simulator.ParseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}

	cfg := simulator.DefaultConfig()
	cfg.TargetIP = *targetIP
	cfg.DataPort = *dataPort
	cfg.DiscoveryPort = *discoveryPort
	cfg.Rate = *rate
	cfg.Mode = m
	cfg.Speed = *speed
	cfg.Seed = *seed
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	s, err := simulator.NewSender(cfg, nil, nil, func(st simulator.Status) {
		fmt.Printf("Angle: %6.2f° | Packets: %5d | Rate: %6.1f Hz\n", st.Angle, st.Packets, st.Rate)
	})
	if err != nil {
		log.Fatalf("failed to start simulator: %v", err)
	}
	defer s.Close()

	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.Run(ctx)

	sum := s.Summary()
	fmt.Print("\n\nStopped by user\n")
	fmt.Printf("\nTotal packets sent: %d\n", sum.Packets)
	fmt.Printf("Average rate: %.1f Hz\n", sum.Rate)
	fmt.Printf("Duration: %.1f seconds\n", sum.Elapsed.Seconds())
	if n := s.SendErrors(); n > 0 {
		fmt.Printf("Send errors: %d\n", n)
	}
}

func printBanner(cfg simulator.Config) {
	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Println("ENCODER SIMULATOR")
	fmt.Println(rule)
	fmt.Printf("Target IP:       %s\n", cfg.TargetIP)
	fmt.Printf("Data Port:       %d\n", cfg.DataPort)
	fmt.Printf("Discovery Port:  %d (to %s)\n", cfg.DiscoveryPort, cfg.DiscoveryTarget())
	fmt.Printf("Send Rate:       %.1f Hz\n", cfg.Rate)
	fmt.Printf("Mode:            %s\n", cfg.Mode)
	if cfg.Mode == simulator.ModeRotate {
		fmt.Printf("Rotation Speed:  %.1f deg/sec\n", cfg.Speed)
	}
	fmt.Println(rule)
	fmt.Print("\nPress Ctrl+C to stop\n\n")
}
