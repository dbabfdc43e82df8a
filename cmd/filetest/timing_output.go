package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"filetest/internal/observ"
	"filetest/internal/timing"
)

// timingExport is the document written by --timings-out.
type timingExport struct {
	Run    observ.Report `json:"run" msgpack:"run"`
	Passes timing.Report `json:"passes" msgpack:"passes"`
}

// writeTimingReport exports times and the run phases to path. A ".msgpack"
// or ".mp" extension selects MessagePack, anything else indented JSON.
func writeTimingReport(path string, times *timing.PassTimes, phases *observ.Timer) error {
	doc := timingExport{Passes: times.Report()}
	if phases != nil {
		doc.Run = phases.Report()
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		data, err = msgpack.Marshal(&doc)
	default:
		data, err = json.MarshalIndent(&doc, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	}
	if err != nil {
		return fmt.Errorf("encode timing report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write timing report: %w", err)
	}
	return nil
}
