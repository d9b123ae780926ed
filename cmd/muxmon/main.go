package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/muxlink"
	"github.com/banshee-data/muxlink/internal/config"
	"github.com/banshee-data/muxlink/internal/version"
)

var (
	devMode     = flag.Bool("dev", false, "Run in dev mode with a loopback line instead of real hardware")
	listen      = flag.String("listen", ":8080", "Listen address for the admin/debug server")
	port        = flag.String("port", "/dev/ttySC1", "Serial port to multiplex (ignored in dev mode)")
	configPath  = flag.String("config", "", "Path to JSON config file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("muxmon %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyMuxConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadMuxConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	m, err := muxlink.New(muxlink.Options{
		RingSize:    cfg.GetRingSize(),
		ScratchSize: cfg.GetScratchSize(),
		Channels:    cfg.GetChannels(),
		Endpoints:   cfg.GetEndpoints(),
		Verbose:     cfg.GetVerbose(),
	}, frameFactory{})
	if err != nil {
		log.Fatalf("failed to create mux: %v", err)
	}
	defer m.Close()

	var line muxlink.HardwarePort
	if *devMode {
		line = newLoopPort()
		log.Print("dev mode: using loopback line")
	} else {
		if *port == "" {
			log.Fatal("Serial port is required")
		}
		real, err := muxlink.OpenRealPort(*port, muxlink.PortOptions{
			BaudRate: cfg.GetBaudRate(),
			DataBits: cfg.GetDataBits(),
			StopBits: cfg.GetStopBits(),
			Parity:   cfg.GetParity(),
		})
		if err != nil {
			log.Fatalf("failed to open serial port: %v", err)
		}
		defer real.Close()
		line = real
		log.Printf("opened %s", real.Name())
	}

	// Two demo channels on the one line: a control channel and a data
	// channel, the usual split for a modem-style deployment.
	control := mustAttach(m, line, 1)
	data := mustAttach(m, line, 2)

	control.SetCallback(func() { drain("control", control) })
	data.SetCallback(func() { drain("data", data) })

	hmux := http.NewServeMux()
	m.AttachAdminRoutes(hmux)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: *listen, Handler: hmux}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("admin server listening on %s", *listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("admin server failed: %v", err)
		}
	}()

	if *devMode {
		// Heartbeats on the control channel exercise the full path: TX
		// ring, worker drain, framing, loopback, reassembly, RX ring.
		wg.Add(1)
		go func() {
			defer wg.Done()
			tick := time.NewTicker(5 * time.Second)
			defer tick.Stop()
			seq := 0
			for {
				select {
				case <-ctx.Done():
					return
				case <-tick.C:
					seq++
					msg := fmt.Sprintf("ping %d", seq)
					if n := control.Fill([]byte(msg)); n < len(msg) {
						log.Printf("control channel accepted %d/%d bytes", n, len(msg))
					}
				}
			}
		}()
	}

	<-ctx.Done()
	log.Print("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("admin server shutdown: %v", err)
	}
	m.Flush()
	wg.Wait()
}

func mustAttach(m *muxlink.Mux, line muxlink.HardwarePort, addr int) *muxlink.Channel {
	ch, err := m.Allocate()
	if err != nil {
		log.Fatalf("failed to allocate channel: %v", err)
	}
	err = ch.Attach(line, addr, func(ch *muxlink.Channel, addr int, connected bool) {
		log.Printf("channel %d (addr %d) connected=%t", ch.ID(), addr, connected)
	})
	if err != nil {
		log.Fatalf("failed to attach channel at addr %d: %v", addr, err)
	}
	return ch
}

// drain empties a channel's RX buffer and logs what arrived. Runs on the
// mux worker via SetCallback.
func drain(name string, ch *muxlink.Channel) {
	buf := make([]byte, 256)
	for {
		n := ch.Read(buf)
		if n == 0 {
			return
		}
		log.Printf("%s rx: %q", name, buf[:n])
	}
}

// loopPort is an in-process line for dev mode: every transmitted byte is
// reflected straight back into the receive FIFO, so frames sent on a
// channel arrive back on the same channel.
type loopPort struct {
	mu        sync.Mutex
	pending   []byte
	isr       func()
	rxEnabled bool
}

func newLoopPort() *loopPort { return &loopPort{} }

func (p *loopPort) PollWrite(b byte) error {
	p.mu.Lock()
	p.pending = append(p.pending, b)
	var isr func()
	if p.rxEnabled {
		isr = p.isr
	}
	p.mu.Unlock()
	if isr != nil {
		isr()
	}
	return nil
}

func (p *loopPort) FifoRead(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *loopPort) EnableRxIRQ() {
	p.mu.Lock()
	p.rxEnabled = true
	fire := len(p.pending) > 0 && p.isr != nil
	isr := p.isr
	p.mu.Unlock()
	if fire {
		isr()
	}
}

func (p *loopPort) DisableRxIRQ() {
	p.mu.Lock()
	p.rxEnabled = false
	p.mu.Unlock()
}

func (p *loopPort) DisableTxIRQ() {}

func (p *loopPort) SetISR(fn func()) {
	p.mu.Lock()
	p.isr = fn
	p.mu.Unlock()
}

func (p *loopPort) IRQUpdate() bool { return true }

func (p *loopPort) RxReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending) > 0
}
