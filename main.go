// Command davi-card-agent shows a shareable business card and reads NFC
// tags when one of its card actions is activated. It runs in the system
// tray by default and serves the card to WebSocket views.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/systray"

	"github.com/dotside-studios/davi-card-agent/buildinfo"
	"github.com/dotside-studios/davi-card-agent/card"
	"github.com/dotside-studios/davi-card-agent/nfc"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	cfg, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *showVersion {
		fmt.Println(buildinfo.BuildInfo())
		return
	}

	agent := NewAgent(cfg, nfc.NewManager())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Run in CLI mode only if explicitly requested
	if cfg.CLI {
		runCLI(agent, sigChan)
		return
	}

	go func() {
		<-sigChan
		systray.Quit()
	}()
	NewSystrayApp(agent, card.SystemOpener{}).Run()
}

func runCLI(agent *Agent, sigChan <-chan os.Signal) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := agent.Start(ctx); err != nil {
		log.Fatalf("Failed to start agent: %v", err)
	}
	defer agent.Stop()

	profile := agent.Profile()
	if qr, err := card.QRText(profile.ShareURL); err == nil {
		fmt.Print(qr)
	}
	fmt.Println(profile.ShareURL)

	<-sigChan
	log.Println("Shutdown signal received, stopping agent...")
}
