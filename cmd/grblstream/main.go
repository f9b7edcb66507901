package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mastercactapus/grblstream/machine"
)

func main() {
	log.SetFlags(log.Lshortfile)

	def := DefaultConfig()
	cfgFile := flag.String("config", "", "YAML config file to load before applying flags.")
	transport := flag.String("transport", def.Transport, "How to reach the controller: 'serial' or 'spjs'.")
	port := flag.String("port", def.Port, "Port path (or name if using SPJS).")
	baud := flag.Int("baud", def.Baud, "Baud rate of the controller.")
	spjsURL := flag.String("spjs", def.SPJS, "Websocket URL of the SPJS server to use.")
	addr := flag.String("addr", def.Addr, "Address to bind the HTTP server to.")
	dir := flag.String("dir", def.Dir, "Data directory to use.")
	interval := flag.Duration("interval", def.StatusInterval, "Status polling interval.")
	capacity := flag.Int("rx", def.Capacity, "Size of the controller receive buffer in bytes.")
	startup := flag.String("startup", "", "Semicolon separated instructions to send after every reset.")
	holdOnError := flag.Bool("hold-on-error", def.HoldOnError, "Feed hold when the controller rejects a program line.")
	strict := flag.Bool("strict", def.Strict, "Reject programs that fail a full G-code parse.")
	flag.Parse()

	cfg := def
	if *cfgFile != "" {
		var err error
		cfg, err = Load(*cfgFile)
		if err != nil {
			log.Fatal(err)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = *transport
		case "port":
			cfg.Port = *port
		case "baud":
			cfg.Baud = *baud
		case "spjs":
			cfg.SPJS = *spjsURL
		case "addr":
			cfg.Addr = *addr
		case "dir":
			cfg.Dir = *dir
		case "interval":
			cfg.StatusInterval = *interval
		case "rx":
			cfg.Capacity = *capacity
		case "startup":
			cfg.Startup = nil
			for _, s := range strings.Split(*startup, ";") {
				if s = strings.TrimSpace(s); s != "" {
					cfg.Startup = append(cfg.Startup, s)
				}
			}
		case "hold-on-error":
			cfg.HoldOnError = *holdOnError
		case "strict":
			cfg.Strict = *strict
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config: ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
		log.Println("Shutting down.")
		cancel()
	}()

	loop := machine.NewLoop()
	go loop.Run(ctx)

	m := machine.NewMachine(loop, cfg.MachineConfig())
	api := newAPI(m, cfg.Dir, cfg.Strict)

	switch cfg.Transport {
	case transportSPJS:
		go runSPJS(ctx, m, cfg.SPJS, cfg.Port, cfg.Baud)
	default:
		go runSerial(ctx, m, cfg.Port, cfg.Baud)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
		api.ServeHTTP(w, req)
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		api.sse.Shutdown()
		srv.Close()
	}()

	log.Println("Listening on", cfg.Addr)
	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
