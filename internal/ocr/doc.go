// Package ocr reads house numbers from prepared marker crops using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) behind
// the Recognizer interface so that the detection pipeline can run against
// a stub in tests.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Set Options.TessdataPrefix (or TESSDATA_PREFIX) if the language data
// lives outside Tesseract's default location.
//
// # Engine Lifecycle
//
// An Engine creates its native client lazily, once, the first time Init
// or Recognize is called. Initialization failures wrap ErrEngineInit and
// are remembered: every later call returns the same error. Recognition
// calls are serialized with a mutex, so one Engine may be shared by all
// pipeline workers.
//
// # Confidence
//
// Tesseract reports per-word confidence from 0 to 100. Result.Confidence
// is the mean over all recognized words, scaled to 0.0-1.0.
package ocr
