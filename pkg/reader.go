package leptons

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// EventSource hands out events in file order and returns io.EOF at the end.
type EventSource interface {
	Next() (*Event, error)
}

// JSONLReader reads one JSON encoded event per line. Files ending in .zst
// are zstd compressed.
type JSONLReader struct {
	Filename string
	file     *os.File
	zr       *zstd.Decoder
	dec      *json.Decoder
}

func OpenJSONL(filename string) (*JSONLReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	r := &JSONLReader{Filename: filename, file: file}
	var in io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(filename, ".zst") {
		r.zr, err = zstd.NewReader(in)
		if err != nil {
			file.Close()
			return nil, &ErrOpenFile{Filename: filename, Err: err}
		}
		in = r.zr
	}
	r.dec = json.NewDecoder(in)
	return r, nil
}

// NewJSONLReader reads events from an already open stream.
func NewJSONLReader(in io.Reader) *JSONLReader {
	return &JSONLReader{dec: json.NewDecoder(in)}
}

func (r *JSONLReader) Next() (*Event, error) {
	event := &Event{}
	if err := r.dec.Decode(event); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("error decoding event: %w", err)
	}
	return event, nil
}

func (r *JSONLReader) Close() error {
	if r.zr != nil {
		r.zr.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// JSONLWriter is the counterpart of JSONLReader.
type JSONLWriter struct {
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	enc  *json.Encoder
}

func CreateJSONL(filename string, level int) (*JSONLWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	w := &JSONLWriter{file: file, buf: bufio.NewWriter(file)}
	var out io.Writer = w.buf
	if strings.HasSuffix(filename, ".zst") {
		w.zw, err = zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			file.Close()
			return nil, &ErrOpenFile{Filename: filename, Err: err}
		}
		out = w.zw
	}
	w.enc = json.NewEncoder(out)
	return w, nil
}

func (w *JSONLWriter) Write(event *Event) error {
	return w.enc.Encode(event)
}

func (w *JSONLWriter) Close() error {
	var errs []error
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing zstd stream: %w", err))
		}
	}
	if err := w.buf.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("error flushing file: %w", err))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}

// limitedSource applies the skip and max_events settings. Events are
// counted from 0 including the skipped ones; reading stops at maxEvents.
type limitedSource struct {
	source    EventSource
	skip      int
	maxEvents int
	evtCount  int
	verbosity int
}

func Limit(source EventSource, skip int, maxEvents int, verbosity int) EventSource {
	return &limitedSource{source: source, skip: skip, maxEvents: maxEvents, evtCount: -1, verbosity: verbosity}
}

func (l *limitedSource) Next() (*Event, error) {
	for {
		event, err := l.source.Next()
		if err != nil {
			return nil, err
		}
		l.evtCount++
		if l.evtCount >= l.maxEvents {
			if l.verbosity > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return nil, io.EOF
		}
		if l.evtCount < l.skip {
			if l.verbosity > 0 {
				logger.Info(fmt.Sprintf("Skipping event %d with ID %d", l.evtCount, event.ID), "fileReader")
			}
			continue
		}
		if l.verbosity > 1 {
			logger.Info(fmt.Sprintf("Reading event %d with ID %d", l.evtCount, event.ID), "fileReader")
		}
		return event, nil
	}
}
