package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/addrslips/internal/config"
	"github.com/ironsheep/addrslips/internal/detection/testimage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("ADDRSLIPS_LOG_LEVEL") == "debug" {
		log.Printf("addrslips v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "detect":
		if err := config.LoadDotEnv(); err != nil {
			log.Fatalf("Environment: %v", err)
		}
		if err := runDetect(os.Args[2:], os.Stdout, os.LookupEnv); err != nil {
			log.Fatalf("Detection failed: %v", err)
		}
	case "serve":
		if err := config.LoadDotEnv(); err != nil {
			log.Fatalf("Environment: %v", err)
		}
		if err := runServe(os.Args[2:], os.Stderr, os.LookupEnv); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case "testimage":
		if err := runTestImage(os.Args[2:]); err != nil {
			log.Fatalf("Test image failed: %v", err)
		}
	case "--version", "-v", "version":
		fmt.Printf("addrslips %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("addrslips - detect house-number circles on scanned maps")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  addrslips detect <image> [options]   Detect and read house numbers")
	fmt.Println("  addrslips serve [--db FILE]          Run as an MCP server on stdin/stdout")
	fmt.Println("  addrslips testimage [--street] <out> Write a synthetic test map")
	fmt.Println("  addrslips version                    Print version information")
	fmt.Println("  addrslips help                       Print this help message")
	fmt.Println()
	fmt.Println("Run 'addrslips detect -h' for detection options.")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  ADDRSLIPS_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println("  ADDRSLIPS_OCR_LANGUAGE       Tesseract language (default eng)")
	fmt.Println("  ADDRSLIPS_TESSDATA_PREFIX    Directory with *.traineddata files")
	fmt.Println("  ADDRSLIPS_WORKERS            Goroutines per pipeline stage")
	fmt.Println()
	fmt.Println("Variables may also be set in a .env file in the working directory.")
}

func runTestImage(args []string) error {
	scene := testimage.Standard()
	var out string
	for _, a := range args {
		switch a {
		case "--street", "-street":
			scene = testimage.Street()
		default:
			out = a
		}
	}
	if out == "" {
		return fmt.Errorf("missing output path")
	}
	if err := testimage.Save(scene, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%dx%d, %d markers)\n", out, scene.Width, scene.Height, len(scene.Markers))
	return nil
}
