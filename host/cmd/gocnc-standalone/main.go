package main

import (
	"flag"
	"fmt"
	"os"

	"gocnc/core"
	hostserial "gocnc/host/serial"
	"gocnc/standalone"
	"gocnc/standalone/hostcmd"
)

var (
	configPath = flag.String("config", "", "Path to a JSON machine configuration (default: built-in Cartesian config)")
	device     = flag.String("device", "", "Serial device to stream G-code from (omit for interactive console on stdin)")
	baud       = flag.Int("baud", 250000, "Baud rate for -device")
)

func main() {
	flag.Parse()

	fmt.Println("gocnc standalone host")
	fmt.Println("======================")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}

	mgr, err := standalone.NewManagerWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating manager: %v\n", err)
		os.Exit(1)
	}

	gpio := core.NewSimulatedGPIO()
	if err := mgr.Initialize(gpio); err != nil {
		fmt.Fprintf(os.Stderr, "Error: initializing manager: %v\n", err)
		os.Exit(1)
	}

	if err := mgr.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: starting manager: %v\n", err)
		os.Exit(1)
	}

	if *device != "" {
		runLink(mgr)
		return
	}
	runConsole(mgr)
}

func loadConfig() (*standalone.MachineConfig, error) {
	if *configPath == "" {
		return standalone.DefaultCartesianConfig(), nil
	}
	data, err := os.ReadFile(*configPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", *configPath, err)
	}
	return standalone.LoadConfig(data)
}

func runLink(mgr *standalone.Manager) {
	serialCfg := hostserial.DefaultConfig(*device)
	serialCfg.Baud = *baud
	link, err := hostcmd.Open(serialCfg, mgr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening link on %s: %v\n", *device, err)
		os.Exit(1)
	}
	defer link.Close()

	fmt.Printf("Streaming G-code from %s...\n", *device)
	if err := link.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runConsole(mgr *standalone.Manager) {
	console := hostcmd.NewConsole(mgr, os.Stdout)
	fmt.Println("Interactive console (type 'help' for commands, 'quit' to exit):")
	if err := console.Run(os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
