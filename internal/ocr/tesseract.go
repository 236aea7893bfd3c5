package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// ErrClosed is returned by Recognize after Close.
var ErrClosed = errors.New("OCR engine closed")

// DigitWhitelist restricts recognition to what appears on house-number
// markers: digits plus suffix letters and separators.
const DigitWhitelist = "0123456789ABCDEFGHabcdefgh/-"

// Options configures a Tesseract engine.
type Options struct {
	// Language is the Tesseract language code, "eng" if empty.
	Language string

	// Whitelist limits the recognized characters. Empty allows all.
	Whitelist string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// SingleLine treats every image as one line of text. Otherwise
	// Tesseract segments the page automatically.
	SingleLine bool
}

// DefaultOptions returns the settings used for marker circles.
func DefaultOptions() Options {
	return Options{
		Language:   "eng",
		Whitelist:  DigitWhitelist,
		SingleLine: true,
	}
}

// Engine is a Tesseract-backed Recognizer.
//
// The native client is created on first use (or by Init) exactly once per
// Engine, even when many goroutines ask for it at the same time. gosseract
// clients are not goroutine safe, so recognition calls are serialized.
type Engine struct {
	opts Options

	once    sync.Once
	initErr error

	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine returns an engine that will initialize lazily.
func NewEngine(opts Options) *Engine {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &Engine{opts: opts}
}

// Init creates the Tesseract client if that has not happened yet and
// reports any initialization failure (wrapping ErrEngineInit). Calling it
// before a run surfaces a missing installation before any work is done.
func (e *Engine) Init() error {
	e.once.Do(func() {
		e.initErr = e.setup()
	})
	return e.initErr
}

func (e *Engine) setup() error {
	client := gosseract.NewClient()

	if e.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.opts.TessdataPrefix); err != nil {
			client.Close()
			return fmt.Errorf("%w: failed to set tessdata prefix: %v", ErrEngineInit, err)
		}
	}
	if err := client.SetLanguage(e.opts.Language); err != nil {
		client.Close()
		return fmt.Errorf("%w: failed to set language: %v", ErrEngineInit, err)
	}
	if e.opts.SingleLine {
		if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
			client.Close()
			return fmt.Errorf("%w: failed to set page segmentation mode: %v", ErrEngineInit, err)
		}
	}
	if e.opts.Whitelist != "" {
		if err := client.SetWhitelist(e.opts.Whitelist); err != nil {
			client.Close()
			return fmt.Errorf("%w: failed to set whitelist: %v", ErrEngineInit, err)
		}
	}

	// The native API only initializes when text is first requested, so
	// run it once on a blank image to surface missing language data now.
	blank, err := encodePNG(image.NewGray(image.Rect(0, 0, 8, 8)))
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: %v", ErrEngineInit, err)
	}
	if err := client.SetImageFromBytes(blank); err != nil {
		client.Close()
		return fmt.Errorf("%w: %v", ErrEngineInit, err)
	}
	if _, err := client.Text(); err != nil {
		client.Close()
		return fmt.Errorf("%w: %v", ErrEngineInit, err)
	}

	e.client = client
	return nil
}

// Recognize runs OCR on img.
//
// Text is assembled from word-level results (RIL_WORD) and the confidence
// is their mean. If word boxes are unavailable the full text is returned
// with zero confidence.
func (e *Engine) Recognize(img image.Image) (Result, error) {
	if err := e.Init(); err != nil {
		return Result{}, err
	}

	data, err := encodePNG(img)
	if err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil {
		return Result{}, ErrClosed
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return Result{}, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Return just text if boxes fail
		text, terr := e.client.Text()
		if terr != nil {
			return Result{}, fmt.Errorf("OCR failed: %w", terr)
		}
		return Result{Text: strings.TrimSpace(text)}, nil
	}

	words := make([]string, 0, len(boxes))
	var total float64
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		words = append(words, word)
		total += box.Confidence
	}
	if len(words) == 0 {
		return Result{}, nil
	}

	return Result{
		Text:       strings.Join(words, " "),
		Confidence: clamp01(total / float64(len(words)) / 100.0),
	}, nil
}

// Version reports the Tesseract library version.
func (e *Engine) Version() string {
	return gosseract.Version()
}

// Close releases the native client. The engine cannot be used afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
