package logger

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestGetLogs(t *testing.T) {
	Info("an info line")
	Warning("a warning line")

	logs := GetLogs(10, "info")
	if len(logs) < 2 {
		t.Fatalf("expected at least 2 entries, got %d", len(logs))
	}
	last := logs[len(logs)-1]
	if !strings.Contains(last, "a warning line") {
		t.Errorf("expected newest entry last, got %q", last)
	}

	logs = GetLogs(10, "warning")
	for _, line := range logs {
		if strings.Contains(line, "INFO") {
			t.Errorf("info entry leaked through warning filter: %q", line)
		}
	}
}

func TestConcurrentLogging(t *testing.T) {
	// Connection goroutines log while the logs endpoint reads the buffer.
	const goroutines = 8
	const lines = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < lines; i++ {
				Infof("client %d event %d", g, i)
			}
		}(g)
	}
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < lines; i++ {
				GetLogs(50, "info")
			}
		}()
	}
	wg.Wait()

	logs := GetLogs(goroutines*lines, "info")
	if len(logs) < goroutines*lines {
		t.Fatalf("expected at least %d entries, got %d", goroutines*lines, len(logs))
	}
}

func TestBufferCap(t *testing.T) {
	for i := 0; i < bufferSize+10; i++ {
		Debug(fmt.Sprintf("fill %d", i))
	}
	bufferMu.Lock()
	n := len(logBuffer)
	bufferMu.Unlock()
	if n > bufferSize {
		t.Errorf("buffer grew past its cap: %d > %d", n, bufferSize)
	}
}
