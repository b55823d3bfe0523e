package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/angle.receiver/internal/angle"
	"github.com/banshee-data/angle.receiver/internal/api"
	"github.com/banshee-data/angle.receiver/internal/db"
	"github.com/banshee-data/angle.receiver/internal/module"
	"github.com/banshee-data/angle.receiver/internal/monitoring"
	"github.com/banshee-data/angle.receiver/internal/network"
	"github.com/banshee-data/angle.receiver/internal/receiver"
	"github.com/banshee-data/angle.receiver/internal/serialmux"
	"github.com/banshee-data/angle.receiver/internal/simulator"
	"github.com/banshee-data/angle.receiver/internal/version"
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("angle-receiver"))
		fmt.Println(module.Describe())
		return
	}

	if *listPorts {
		ports, err := serialmux.ListPorts()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if closer := monitoring.SetupFileLogging(monitoring.FileOptions{Path: *logFile, Compress: true}); closer != nil {
		defer closer.Close()
	}

	cfg, err := resolveConfig(*configFile, flagOverrides())
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var forwarder *network.PacketForwarder
	if *forwardAddr != "" {
		forwarder, err = network.NewPacketForwarder(*forwardAddr, cfg.StatsLogInterval)
		if err != nil {
			log.Fatalf("failed to create packet forwarder: %v", err)
		}
		defer forwarder.Close()
		forwarder.Start(ctx)
	}

	owner := receiver.NewTransform(angle.Rotator{})
	rx, err := receiver.New(cfg, receiver.Options{Owner: owner, Forwarder: forwarder})
	if err != nil {
		log.Fatalf("failed to create receiver: %v", err)
	}
	defer rx.Close()

	// The serial mux carries either the real USB port or, in dev mode, a
	// simulated encoder.
	var m serialmux.SerialMuxInterface
	serialName := *serialPort
	switch {
	case *devMode:
		mode, err := simulator.ParseMode(*devMotion)
		if err != nil {
			log.Fatalf("invalid -dev-mode: %v", err)
		}
		gen := simulator.NewGenerator(mode, simulator.DefaultSpeed, uint64(time.Now().UnixNano()))
		m = serialmux.NewMockSerialMux(func() string {
			return "angle:" + strconv.FormatFloat(gen.Next(devInterval), 'f', 3, 64)
		}, devInterval)
		serialName = "dev"
	case *serialPort != "":
		opts, err := serialmux.ParsePortOptions(*serialBaud, *serialFrame)
		if err != nil {
			log.Fatalf("invalid serial settings: %v", err)
		}
		m, err = serialmux.Open(*serialPort, opts)
		if err != nil {
			log.Fatalf("failed to open serial port: %v", err)
		}
		monitoring.Logf("Serial: reading %s at %s", *serialPort, opts)
	default:
		m = serialmux.NewDisabledSerialMux()
	}
	defer m.Close()

	var store *db.DB
	sessionID := ""
	if *dbFile != "" {
		store, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()

		sess, err := store.StartSession(db.Session{
			Source:        sessionSource(*devMode, *serialPort, *pcapFile),
			ListenAddr:    cfg.ListenIP,
			DataPort:      cfg.DataPort,
			DiscoveryPort: cfg.DiscoveryPort,
			StartedAt:     time.Now(),
		})
		if err != nil {
			log.Fatalf("failed to start session: %v", err)
		}
		sessionID = sess.ID
		log.Printf("recording session %s to %s", sessionID, *dbFile)
		defer func() {
			if err := store.EndSession(sessionID, time.Now()); err != nil {
				log.Printf("failed to end session: %v", err)
			}
		}()
	}

	var wg sync.WaitGroup

	// the recorder outlives the tick loop so the final disconnect is stored
	recCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()

	// the tick loop owns all derived state
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer stopRecorder()
		if err := rx.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("receiver loop stopped: %v", err)
		}
		log.Print("receiver loop terminated")
	}()

	if *pcapFile != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := os.Open(*pcapFile)
			if err != nil {
				log.Printf("failed to open pcap: %v", err)
				return
			}
			defer f.Close()
			res, err := network.ReplayPCAP(ctx, f, network.ReplayConfig{
				Port:            cfg.DataPort,
				SpeedMultiplier: *pcapSpeed,
			}, rx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("pcap replay failed: %v", err)
			}
			log.Printf("pcap replay finished: packets=%d accepted=%d dropped=%d", res.Packets, res.Accepted, res.Dropped)
		}()
	} else if err := rx.StartListening(); err != nil {
		log.Fatalf("failed to start listening: %v", err)
	}

	if *devMode || *serialPort != "" {
		// run the monitor routine to manage IO on the serial port
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor serial port: %v", err)
			}
			log.Print("monitor routine terminated")
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			stats := network.NewPacketStats()
			if err := serialmux.Feed(ctx, m, serialName, rx, stats, time.Now); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("serial feed stopped: %v", err)
			}
			stats.LogStats()
		}()
	}

	if store != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := db.NewRecorder(store, sessionID, recorderBatch, recorderFlush)
			if err := rec.Run(recCtx, rx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("recorder stopped: %v", err)
			}
			log.Printf("recorder terminated after %d samples", rec.Written())
		}()
	}

	// HTTP server goroutine
	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var samples api.SampleStore
			if store != nil {
				samples = store
			}
			server := api.NewServer(rx, samples, sessionID, m)

			mux := http.NewServeMux()
			mux.Handle("/", server.ServeMux())

			// admin debugging routes, accessible only on localhost or over Tailscale
			server.AttachAdminRoutes(mux)
			m.AttachAdminRoutes(mux)
			if store != nil {
				if err := store.AttachAdminRoutes(mux); err != nil {
					log.Printf("failed to attach database admin routes: %v", err)
				}
			}

			srv := &http.Server{
				Addr:    *listen,
				Handler: api.LoggingMiddleware(mux),
			}

			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			log.Printf("HTTP server listening on %s", displayAddr(*listen))

			<-ctx.Done()
			log.Println("shutting down HTTP server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
		}()
	}

	wg.Wait()
	log.Print("graceful shutdown complete")
}

// displayAddr turns ":8080" into "localhost:8080" for the startup log.
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host != "" {
		return addr
	}
	return net.JoinHostPort("localhost", port)
}
