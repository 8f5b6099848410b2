// Command netstackd hosts a user-space HTTP/1.0 file server on top of a
// from-scratch ARP/IPv4/ICMP/UDP/TCP stack bound directly to a network
// interface via a raw socket.
package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/hitsznet/netlab/httpserver"
	"github.com/hitsznet/netlab/netio"
	"github.com/hitsznet/netlab/netstack"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	ifaceName  string
	localIP    string
	listenPort uint16
	docRoot    string
	mtu        int
	pcapPath   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "netstackd",
	Short: "Serve files over HTTP/1.0 through a user-space TCP/IP stack",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bind to a network interface and start serving",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("netstackd %s (%s)\n", version, commit)
	},
}

func init() {
	serveCmd.Flags().StringVar(&ifaceName, "iface", "", "network interface to bind the raw socket to (required)")
	serveCmd.Flags().StringVar(&localIP, "ip", "", "local IPv4 address to answer to, e.g. 10.0.0.1 (required)")
	serveCmd.Flags().Uint16Var(&listenPort, "port", 80, "TCP port the file server listens on")
	serveCmd.Flags().StringVar(&docRoot, "doc-root", "", "directory served over HTTP (required)")
	serveCmd.Flags().IntVar(&mtu, "mtu", 1500, "largest IPv4 datagram sent unfragmented")
	serveCmd.Flags().StringVar(&pcapPath, "pcap", "", "if set, capture every frame sent or received to this pcap file")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = serveCmd.MarkFlagRequired("iface")
	_ = serveCmd.MarkFlagRequired("ip")
	_ = serveCmd.MarkFlagRequired("doc-root")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	log := newLogger(verbose)

	ip := net.ParseIP(localIP).To4()
	if ip == nil {
		return fmt.Errorf("netstackd: %q is not a valid IPv4 address", localIP)
	}
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return fmt.Errorf("netstackd: %w", err)
	}
	var mac [6]byte
	copy(mac[:], iface.HardwareAddr)
	var localIPArr [4]byte
	copy(localIPArr[:], ip)

	raw, err := netio.NewRawSocket(ifaceName)
	if err != nil {
		return fmt.Errorf("netstackd: %w", err)
	}
	defer raw.Close()

	var driver netio.Driver = raw
	if pcapPath != "" {
		f, err := os.Create(pcapPath)
		if err != nil {
			return fmt.Errorf("netstackd: %w", err)
		}
		defer f.Close()
		pcapDriver, err := netio.NewPCAPWriter(raw, f, time.Now)
		if err != nil {
			return fmt.Errorf("netstackd: %w", err)
		}
		driver = pcapDriver
		log.Info("capturing traffic", slog.String("path", pcapPath))
	}

	stack, err := netstack.New(netstack.Config{
		LocalIP:  localIPArr,
		LocalMAC: mac,
		MTU:      mtu,
		Clock:    clockwork.NewRealClock(),
		Driver:   driver,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("netstackd: %w", err)
	}
	if err := stack.Init(); err != nil {
		return fmt.Errorf("netstackd: %w", err)
	}

	srv, err := httpserver.New(stack, httpserver.Config{
		Port:    listenPort,
		DocRoot: docRoot,
		Log:     log,
	})
	if err != nil {
		return fmt.Errorf("netstackd: %w", err)
	}
	if err := srv.Open(); err != nil {
		return fmt.Errorf("netstackd: %w", err)
	}

	log.Info("netstackd listening",
		slog.String("iface", ifaceName),
		slog.String("ip", localIP),
		slog.Int("port", int(listenPort)),
		slog.String("doc_root", docRoot),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-stop:
			log.Info("shutting down")
			return nil
		default:
		}
		stack.Poll()
		srv.Run()
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
