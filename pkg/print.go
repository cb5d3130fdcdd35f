package leptons

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type csvFile struct {
	file   *os.File
	buf    *bufio.Writer
	zw     *zstd.Encoder
	out    io.Writer
	merged bool
}

// CsvPrinter dumps pt, eta and phi of every derived collection, one file
// per collection named <prefix><collection>.csv (.csv.zst when compress is
// set). Merged collections get an extra type column, 1 for candidates
// taken from the non preferred side.
type CsvPrinter struct {
	prefix   string
	compress bool
	files    map[string]*csvFile
	order    []string
}

func NewCsvPrinter(prefix string, compress bool) *CsvPrinter {
	return &CsvPrinter{prefix: prefix, compress: compress, files: make(map[string]*csvFile)}
}

func (p *CsvPrinter) open(c *Collection) (*csvFile, error) {
	name := p.prefix + c.Name + ".csv"
	if p.compress {
		name += ".zst"
	}
	file, err := os.Create(name)
	if err != nil {
		return nil, &ErrOpenFile{Filename: name, Err: err}
	}
	f := &csvFile{file: file, buf: bufio.NewWriter(file)}
	f.out = f.buf
	if p.compress {
		f.zw, err = zstd.NewWriter(f.buf)
		if err != nil {
			file.Close()
			return nil, &ErrOpenFile{Filename: name, Err: err}
		}
		f.out = f.zw
	}
	_, f.merged = c.Ints["origin"]
	header := "event, index, pt, eta, phi"
	if f.merged {
		header += ", type"
	}
	if _, err := fmt.Fprintln(f.out, header); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *CsvPrinter) WriteEvent(out *Output) error {
	for _, c := range out.Collections {
		f, ok := p.files[c.Name]
		if !ok {
			var err error
			if f, err = p.open(c); err != nil {
				return err
			}
			p.files[c.Name] = f
			p.order = append(p.order, c.Name)
		}
		if err := writeCsvRows(f, out.EventID, c); err != nil {
			return fmt.Errorf("error writing %s: %w", c.Name, err)
		}
	}
	return nil
}

func writeCsvRows(f *csvFile, eventID uint64, c *Collection) error {
	pt, eta, phi := c.Floats["pt"], c.Floats["eta"], c.Floats["phi"]
	if len(pt) != c.Count || len(eta) != c.Count || len(phi) != c.Count {
		return &MissingAttributeError{Collection: c.Name, Attribute: "pt/eta/phi"}
	}
	origin := c.Ints["origin"]
	var line strings.Builder
	for i := 0; i < c.Count; i++ {
		line.Reset()
		fmt.Fprintf(&line, "%d, %d, %7.3f, %7.3f, %7.3f", eventID, i, pt[i], eta[i], phi[i])
		if f.merged {
			fmt.Fprintf(&line, ", %d", origin[i])
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(f.out, line.String()); err != nil {
			return err
		}
	}
	return nil
}

func (p *CsvPrinter) Close() error {
	var errs []error
	for _, name := range p.order {
		f := p.files[name]
		if f.zw != nil {
			if err := f.zw.Close(); err != nil {
				errs = append(errs, fmt.Errorf("error closing %s stream: %w", name, err))
			}
		}
		if err := f.buf.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("error flushing %s: %w", name, err))
		}
		if err := f.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
