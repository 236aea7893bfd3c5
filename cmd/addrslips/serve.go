package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/ironsheep/addrslips/internal/runner"
	"github.com/ironsheep/addrslips/internal/server"
	"github.com/ironsheep/addrslips/internal/store"
)

// runServe starts the MCP server on stdin/stdout. Logging stays on stderr.
func runServe(args []string, stderr io.Writer, lookup func(string) (string, bool)) error {
	var o detectOptions
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "YAML parameter file")
	fs.StringVar(&o.dbPath, "db", "", "SQLite project file for the project tools")
	fs.BoolVar(&o.skipOCR, "skip-ocr", false, "never run OCR")
	fs.IntVar(&o.workers, "workers", 0, "goroutines per stage (0 keeps the configured value)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(o, lookup)
	if err != nil {
		return err
	}
	r, err := runner.New(cfg, log.New(stderr, "", log.Ltime))
	if err != nil {
		return err
	}
	defer r.Close()

	opts := server.Options{Version: Version}
	if o.dbPath != "" {
		s, err := store.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		opts.Store = s
	}

	if os.Getenv("ADDRSLIPS_LOG_LEVEL") == "debug" {
		log.Printf("MCP server ready (OCR: %v, project: %q)", r.OCREnabled(), o.dbPath)
	}
	return server.New(r, opts).Run()
}
