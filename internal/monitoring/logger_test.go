package monitoring

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("UDP Receiver: sensor connected from %s", "10.0.0.9:4210")
	if len(got) != 1 || got[0] != "UDP Receiver: sensor connected from 10.0.0.9:4210" {
		t.Errorf("captured %q", got)
	}

	SetLogger(nil)
	Logf("muted")
	if len(got) != 1 {
		t.Errorf("nil logger should mute output, captured %q", got)
	}
}

func TestLogf_DefaultWritesStandardLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()
	Logf = log.Printf

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	Logf("discovery sent to %s", "255.255.255.255:5006")
	if !strings.Contains(buf.String(), "discovery sent to 255.255.255.255:5006") {
		t.Errorf("standard logger got %q", buf.String())
	}
}

func TestSetupFileLogging_EmptyPath(t *testing.T) {
	if c := SetupFileLogging(FileOptions{}); c != nil {
		t.Fatalf("expected nil closer for empty path, got %T", c)
	}
}

func TestSetupFileLogging_WritesFile(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	path := filepath.Join(t.TempDir(), "receiver.log")
	c := SetupFileLogging(FileOptions{Path: path})
	if c == nil {
		t.Fatal("expected closer")
	}
	log.Printf("hello from the receiver")
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from the receiver") {
		t.Errorf("log file missing message, got %q", data)
	}
}
