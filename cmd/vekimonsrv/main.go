package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/jypelle/vekimon/internal/srv"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/device"
	"github.com/jypelle/vekimon/internal/srv/device/simulation"
	"github.com/jypelle/vekimon/internal/version"
	"github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const configSuffix = "vekimon"

func main() {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	// region Flags and Commands definition

	// Debug Mode
	debugMode := flag.Bool("d", false, "Enable debug mode")

	// Simulation Mode
	simulationMode := flag.Bool("s", false, "Enable simulation mode")

	// User config dir
	defaultConfigDir := "./." + configSuffix
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		defaultConfigDir = filepath.Join(userConfigDir, configSuffix)
	}
	configDir := flag.String("c", defaultConfigDir, "Location of vekimon config folder")

	// Usage
	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] [COMMAND]\n", mainCommand)
		fmt.Printf("\nA small status monitor for an oled display\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
		fmt.Printf("\nCommands:\n")
		fmt.Printf("  run       Run server\n")
		fmt.Printf("  version   Show the version number\n")
		fmt.Printf("\nRun '%s COMMAND --help' for more information on a command.\n", mainCommand)
	}

	// run command
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)

	runCmd.Usage = func() {
		fmt.Printf("\nUsage: %s run\n", mainCommand)
		fmt.Printf("\nRun the server\n")
	}

	// version command
	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	versionCmd.Usage = func() {
		fmt.Printf("\nUsage: %s version\n", mainCommand)
		fmt.Printf("\nShow the version information\n")
	}

	// endregion

	// region Flags and Commands Parsing
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	switch flag.Arg(0) {
	case "run":
		runCmd.Parse(flag.Args()[1:])
		if runCmd.NArg() > 0 {
			fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
			runCmd.Usage()
			os.Exit(1)
		}
	case "version":
		versionCmd.Parse(flag.Args()[1:])
		if versionCmd.NArg() > 0 {
			fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
			versionCmd.Usage()
			os.Exit(1)
		}
	default:
		fmt.Printf("\n%s is not a vekimon command\n", flag.Args()[0])
		flag.Usage()
		os.Exit(1)
	}
	// endregion

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Printf("Debug mode activated")
	}

	if versionCmd.Parsed() {
		fmt.Printf("Version %s\n", version.AppVersion)
		return
	}

	if runCmd.Parsed() {
		serverConfig, err := config.NewServerConfig(*configDir, *debugMode, *simulationMode)
		if err != nil {
			logrus.Fatalf("Unable to load config from %s: %v", *configDir, err)
		}

		openPanel := device.OpenOled
		if serverConfig.SimulationMode {
			openPanel = openSimulationPanel
		}

		// Create vekimon server
		serverApp, err := srv.NewServerApp(serverConfig, openPanel)
		if err != nil {
			logrus.Fatalf("Unable to create server: %v", err)
		}

		// Listen stop signal
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP, syscall.SIGUSR1)

		// Start vekimon server
		serverApp.Start(context.Background())

		sig := <-ch
		logrus.Infof("Received signal: %v", sig)
		if err := serverApp.Stop(sig == syscall.SIGUSR1); err != nil {
			logrus.Errorf("Server stopped with error: %v", err)
			os.Exit(1)
		}
	}
}

func openSimulationPanel(param config.DisplayParam) (device.Panel, error) {
	window, err := simulation.NewWindow(param.Width, param.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrInit, err)
	}
	return device.NewFramePanel(param.Width, param.Height, window), nil
}
