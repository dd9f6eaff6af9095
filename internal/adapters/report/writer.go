package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/maculab/amdsim/internal/ports"
)

const (
	summaryFile     = "summary.toml"
	patientsFile    = "patients.json"
	reportFileMode  = 0o644
	reportDirMode   = 0o755
	tempFilePattern = ".report-*.tmp"
)

// Writer persists run results as a TOML summary plus, optionally, the
// full per-patient visit histories as JSON.
type Writer struct {
	dir             string
	includePatients bool
	now             func() time.Time
}

var _ ports.ResultWriter = (*Writer)(nil)

func NewWriter(dir string, includePatients bool) *Writer {
	return &Writer{dir: dir, includePatients: includePatients, now: time.Now}
}

func (w *Writer) Write(ctx context.Context, result ports.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, reportDirMode); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	summary, err := toml.Marshal(toSummarySchema(result, w.now()))
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := w.writeAtomic(summaryFile, summary); err != nil {
		return err
	}

	if !w.includePatients {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	patients, err := json.MarshalIndent(toPatientSchemas(result.Patients), "", "  ")
	if err != nil {
		return fmt.Errorf("encode patient histories: %w", err)
	}
	return w.writeAtomic(patientsFile, patients)
}

// SummaryPath returns where the summary lands for this writer.
func (w *Writer) SummaryPath() string {
	return filepath.Join(w.dir, summaryFile)
}

// PatientsPath returns where the patient histories land.
func (w *Writer) PatientsPath() string {
	return filepath.Join(w.dir, patientsFile)
}

// writeAtomic writes through a temp file and rename so a crashed run
// never leaves a half-written report behind.
func (w *Writer) writeAtomic(name string, data []byte) error {
	target := filepath.Join(w.dir, name)

	tempFile, err := os.CreateTemp(w.dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp report file: %w", err)
	}
	if err := tempFile.Chmod(reportFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp report file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp report file: %w", err)
	}
	if err := os.Rename(tempName, target); err != nil {
		return fmt.Errorf("replace report file: %w", err)
	}
	cleanup = false
	return nil
}
