package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"pastewarden.ai/internal/sim/host"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := w.createForHour(hour)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

// createForHour opens a new file for hour. Files are never reopened: a file
// left by a crashed process may end in a partial zstd frame.
func (w *JSONLZstdWriter) createForHour(hour string) (*os.File, error) {
	for seq := 0; seq < maxFilesPerHour; seq++ {
		f, err := os.OpenFile(w.pathFor(hour, seq), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: more than %d files for hour %s", w.prefix, maxFilesPerHour, hour)
}

const maxFilesPerHour = 1000

func (w *JSONLZstdWriter) pathFor(hour string, seq int) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s-%03d.jsonl.zst", w.prefix, hour, seq))
}

// DecisionLogger writes one compressed JSONL entry per fetch decision.
type DecisionLogger struct {
	w                 *JSONLZstdWriter
	includeCandidates bool
}

func NewDecisionLogger(dataDir string, includeCandidates bool) *DecisionLogger {
	return &DecisionLogger{
		w:                 NewJSONLZstdWriter(filepath.Join(dataDir, "decisions"), "decisions"),
		includeCandidates: includeCandidates,
	}
}

func (l *DecisionLogger) WriteDecision(d host.Decision) error {
	return l.w.Write(d.Record(l.includeCandidates))
}

func (l *DecisionLogger) Close() error { return l.w.Close() }

// ListDecisionFiles returns decisions-*.jsonl.zst files in dir, oldest first.
func ListDecisionFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "decisions-") || !strings.HasSuffix(name, ".jsonl.zst") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// ReadDecisions streams records from one log file. A truncated final line
// (crash mid-write) ends the stream without error.
func ReadDecisions(path string, fn func(host.Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	r := bufio.NewReaderSize(dec, 64*1024)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			var rec host.Record
			if jerr := json.Unmarshal(line, &rec); jerr != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), jerr)
			}
			if ferr := fn(rec); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
