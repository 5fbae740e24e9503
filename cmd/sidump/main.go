package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/rokubit/go-sidump"
)

// Flags
var (
	ctx, cancel     = context.WithCancel(context.Background())
	cpuProfiling    = flag.Bool("cp", false, "if yes, cpu profiling is enabled")
	eitTypes        = flag.String("eit-types", "", "the EIT subtype allow-list (present, following, schedule)")
	eventIDs        = flag.String("event-ids", "", "the event id allow-list")
	inputPath       = flag.String("input", "", "the input transport stream path")
	memoryProfiling = flag.Bool("mp", false, "if yes, memory profiling is enabled")
	outputLogPath   = flag.String("output-log", "", "the output log path (default: stdout)")
	serviceIDs      = flag.String("service-ids", "", "the service id allow-list")
)

func main() {
	// Init
	flag.Parse()

	// Handle signals
	handleSignals()

	// Start profiling
	if *cpuProfiling {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	} else if *memoryProfiling {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	// Build the filter before touching any resource so that configuration
	// errors fail fast
	f, err := buildFilter()
	if err != nil {
		log.Fatal(fmt.Errorf("sidump: building filter failed: %w", err))
	}

	// Open the input
	if len(*inputPath) <= 0 {
		log.Fatal(errors.New("sidump: use --input to indicate an input path"))
	}
	r, err := os.Open(*inputPath)
	if err != nil {
		log.Fatal(fmt.Errorf("sidump: opening %s failed: %w", *inputPath, err))
	}
	defer r.Close()

	// Open the output log
	w, err := buildWriter()
	if err != nil {
		log.Fatal(fmt.Errorf("sidump: opening output log failed: %w", err))
	}
	if c, ok := w.(io.Closer); ok {
		defer c.Close()
	}

	// Create the demuxer and the presenter
	dmx := sidump.NewDemuxer(ctx, r)
	p := sidump.NewPresenter(w, f)

	// Dump tables until the input is exhausted
	for {
		t, err := dmx.NextTable()
		if err != nil {
			if errors.Is(err, sidump.ErrNoMoreTables) {
				break
			}
			log.Fatal(fmt.Errorf("sidump: fetching next table failed: %w", err))
		}
		if err = p.HandleTable(t); err != nil {
			log.Fatal(fmt.Errorf("sidump: presenting table failed: %w", err))
		}
	}
}

func handleSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch)
	go func() {
		for s := range ch {
			if s != syscall.SIGURG {
				log.Printf("Received signal %s\n", s)
			}
			switch s {
			case syscall.SIGABRT, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
				cancel()
				return
			}
		}
	}()
}

func buildFilter() (f sidump.Filter, err error) {
	if f.EITTypes, err = sidump.ParseEITTypes(*eitTypes); err != nil {
		return
	}
	if f.ServiceIDs, err = sidump.ParseIDList(*serviceIDs); err != nil {
		return
	}
	if f.EventIDs, err = sidump.ParseIDList(*eventIDs); err != nil {
		return
	}
	return
}

func buildWriter() (w io.Writer, err error) {
	if len(*outputLogPath) <= 0 {
		w = os.Stdout
		return
	}
	if w, err = os.Create(*outputLogPath); err != nil {
		err = fmt.Errorf("sidump: creating %s failed: %w", *outputLogPath, err)
		return
	}
	return
}
