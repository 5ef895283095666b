package varigen

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
)

// SequenceSource provides read-only, 0-based access to reference sequence.
// Implementations must be safe for concurrent reads: chromosome workers
// share one source.
type SequenceSource interface {
	Length(chromosome string) (int, error)
	BaseAt(chromosome string, offset int) (byte, error)
}

// FastaSource reads a multi-FASTA reference, plain or gzip-compressed. The
// file is parsed once, lazily, on first access; only chromosomes in the
// configured list are retained. Sequences are uppercased so that soft-masked
// reference bases behave the same as unmasked ones.
type FastaSource struct {
	path string
	want map[string]struct{} // nil means keep every record

	mu      sync.Mutex
	seqs    map[string][]byte
	loadErr error
}

// NewFastaSource prepares a source for path, restricted to the given
// chromosomes. Nothing is read until the first Length or BaseAt call.
func NewFastaSource(path string, chromosomes []string) *FastaSource {
	f := &FastaSource{path: path}
	if len(chromosomes) > 0 {
		f.want = make(map[string]struct{}, len(chromosomes))
		for _, c := range chromosomes {
			f.want[c] = struct{}{}
		}
	}
	return f
}

func (f *FastaSource) Length(chromosome string) (int, error) {
	seq, err := f.sequence(chromosome)
	if err != nil {
		return 0, err
	}
	return len(seq), nil
}

func (f *FastaSource) BaseAt(chromosome string, offset int) (byte, error) {
	seq, err := f.sequence(chromosome)
	if err != nil {
		return 0, err
	}
	if offset < 0 || offset >= len(seq) {
		return 0, pfx.Err(fmt.Errorf("%w: offset %d on chromosome %s (length %d)", ErrReferenceAccess, offset, chromosome, len(seq)))
	}
	return seq[offset], nil
}

func (f *FastaSource) sequence(chromosome string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seqs == nil && f.loadErr == nil {
		f.loadErr = f.load()
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}

	seq, ok := f.seqs[chromosome]
	if !ok {
		return nil, pfx.Err(fmt.Errorf("%w: chromosome %s not present in %s", ErrReferenceAccess, chromosome, f.path))
	}
	return seq, nil
}

func (f *FastaSource) load() error {
	file, err := os.Open(f.path)
	if err != nil {
		return pfx.Err(err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(f.path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return pfx.Err(err)
		}
		defer gz.Close()
		r = gz
	}

	seqs, err := parseFasta(r, f.want)
	if err != nil {
		return pfx.Err(err)
	}
	f.seqs = seqs
	return nil
}

// parseFasta reads FASTA records from r. Record names are the first
// whitespace-delimited token of the header line. If want is non-nil, records
// outside it are skipped without buffering.
func parseFasta(r io.Reader, want map[string]struct{}) (map[string][]byte, error) {
	seqs := make(map[string][]byte)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<24)

	var name string
	keep := false
	var cur bytes.Buffer

	flush := func() {
		if keep && name != "" {
			seqs[name] = bytes.ToUpper(cur.Bytes())
			cur = bytes.Buffer{}
		}
	}

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			fields := bytes.Fields(line[1:])
			if len(fields) == 0 {
				name, keep = "", false
				continue
			}
			name = string(fields[0])
			_, wanted := want[name]
			keep = want == nil || wanted
			continue
		}
		if keep {
			cur.Write(bytes.TrimSpace(line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()

	if len(seqs) == 0 {
		return nil, fmt.Errorf("no usable FASTA records found")
	}
	return seqs, nil
}
