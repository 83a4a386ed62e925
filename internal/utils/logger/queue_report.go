package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// QueueReport collects the per-batch download queue listing the driver
// writes next to the build output for diagnostics.
type QueueReport struct {
	mu    sync.Mutex
	Title string
	Items []string
}

var GlobalQueueReport = &QueueReport{Title: "download_queue"}
var ReportPath = "builds"

// Append records one queue line, e.g. "openclash -> https://.../openclash_0.46.ipk".
func (r *QueueReport) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Items = append(r.Items, line)
}

// WriteQueueToFile flushes the collected listing to ReportPath as a text
// file named after the report title, e.g. builds/download_queue-amlogic.txt.
// The item list is reset after a successful write.
func (r *QueueReport) WriteQueueToFile(suffix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(ReportPath, 0755); err != nil {
		return fmt.Errorf("creating report path: %w", err)
	}

	title := r.Title
	if title == "" {
		title = "untitled"
	}
	safe := ""
	for _, c := range title + "-" + suffix {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' {
			safe += string(c)
		} else {
			safe += "_"
		}
	}

	fullPath := filepath.Join(ReportPath, fmt.Sprintf("%s.txt", safe))
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening report file: %w", err)
	}
	defer f.Close()

	for _, item := range r.Items {
		if _, err := fmt.Fprintln(f, item); err != nil {
			return fmt.Errorf("writing report line: %w", err)
		}
	}
	if _, err := fmt.Fprintln(f); err != nil {
		return fmt.Errorf("writing report separator: %w", err)
	}
	r.Items = r.Items[:0]
	return nil
}
