package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// ReplayToken is the bot token recorded in cassettes in place of the real one.
const ReplayToken = "123456:TEST_TOKEN"

// VCRRecording reports whether cassettes are being re-recorded against the
// live Bot API (VCR_MODE=record).
func VCRRecording() bool {
	return os.Getenv("VCR_MODE") == "record"
}

// VCRToken returns the bot token to build clients with: the real token from
// TELEGRAM_BOT_TOKEN while recording, ReplayToken otherwise.
func VCRToken() string {
	if VCRRecording() {
		return os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	return ReplayToken
}

// NewVCRRecorder creates a new VCR recorder for testing
func NewVCRRecorder(t *testing.T, cassetteName string) (*recorder.Recorder, func()) {
	t.Helper()

	mode := recorder.ModeReplaying
	if VCRRecording() {
		mode = recorder.ModeRecording
	}

	cassettePath := filepath.Join("testdata", "fixtures", cassetteName)

	r, err := recorder.NewAsMode(cassettePath, mode, nil)
	if err != nil {
		t.Fatalf("Failed to create VCR recorder: %v", err)
	}

	// Don't match on request body for simplicity
	r.SetMatcher(func(r *http.Request, i cassette.Request) bool {
		return r.Method == i.Method && r.URL.String() == i.URL
	})

	// Keep the real token out of recorded cassettes.
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); VCRRecording() && token != "" {
		r.AddFilter(func(i *cassette.Interaction) error {
			i.Request.URL = strings.ReplaceAll(i.Request.URL, token, ReplayToken)
			return nil
		})
	}

	// Cleanup function
	cleanup := func() {
		if err := r.Stop(); err != nil {
			t.Errorf("Failed to stop VCR recorder: %v", err)
		}
	}

	return r, cleanup
}

// VCRHTTPClient returns an HTTP client configured to use the VCR recorder
func VCRHTTPClient(r *recorder.Recorder) *http.Client {
	return &http.Client{
		Transport: r,
	}
}
