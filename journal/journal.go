// Package journal keeps a compressed record of everything that happens in a
// session, one JSON line per event.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/undeconstructed/solarquest/game"

	"github.com/klauspost/compress/zstd"
)

// Entry is one line of a journal.
type Entry struct {
	Seq   int64      `json:"seq"`
	Time  time.Time  `json:"time"`
	Event game.Event `json:"event"`
}

// Writer appends to a journal file. Every write is flushed through to the
// file.
type Writer struct {
	path string

	mu  sync.Mutex
	seq int64
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create opens a new journal for a session in dir.
func Create(dir, session string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl.zst", session))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Write(ev game.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return os.ErrClosed
	}

	w.seq++
	b, err := json.Marshal(Entry{Seq: w.seq, Time: time.Now().UTC(), Event: ev})
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return nil
	}
	_ = w.w.Flush()
	err := w.enc.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.w, w.enc, w.f = nil, nil, nil
	return err
}

// Read loads a whole journal. Event values come back as plain JSON values.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var out []Entry
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("%s: entry %d: %w", filepath.Base(path), len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
