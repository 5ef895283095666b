package varigen

import (
	"database/sql/driver"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/carbocation/pfx"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Sink consumes finalized variant records. A chromosome's variants arrive as
// one batch so the sink can commit them atomically; the engine never asks a
// sink to recall previously written records. Implementations must serialize
// concurrent writes from multiple chromosome workers.
type Sink interface {
	PutGenome(chromosomes []ChromosomeMetadata) error
	PutChromosome(chromosome string, variants []Variant) error
}

// ChromosomeMetadata describes one reference chromosome as stored in the
// output database.
type ChromosomeMetadata struct {
	Name   string `db:"name"`
	Length int    `db:"length"`
}

// RunMetadata is the single-row run table stamped when a database is
// created.
type RunMetadata struct {
	RunID      string `db:"run_id"`
	MasterSeed int64  `db:"master_seed"`
	SampleSize int    `db:"sample_size"`
	CreatedAt  Time   `db:"created_at"`
	Driver     string `db:"driver"`
}

// VariantRow mirrors one row of the variant table and can be scanned
// directly with sqlx.
type VariantRow struct {
	Chromosome      string  `db:"chromosome"`
	Position        int     `db:"position"`
	RefLength       int     `db:"ref_length"`
	Alt             string  `db:"alt"`
	AlleleFrequency float64 `db:"allele_frequency"`
	Zygosity        []byte  `db:"zygosity"` // one byte per sample
	ModelKind       string  `db:"model_kind"`
}

// ChromosomeSummary is one row of the per-chromosome count query.
type ChromosomeSummary struct {
	Chromosome string `db:"chromosome"`
	Length     int    `db:"length"`
	Variants   int    `db:"variants"`
}

const dbSchema = `
CREATE TABLE run (
	run_id      TEXT    NOT NULL,
	master_seed INTEGER NOT NULL,
	sample_size INTEGER NOT NULL,
	created_at  INTEGER NOT NULL,
	driver      TEXT    NOT NULL
);
CREATE TABLE chromosome (
	name   TEXT PRIMARY KEY,
	length INTEGER NOT NULL
);
CREATE TABLE variant (
	chromosome       TEXT    NOT NULL,
	position         INTEGER NOT NULL,
	ref_length       INTEGER NOT NULL,
	alt              TEXT    NOT NULL,
	allele_frequency REAL    NOT NULL,
	zygosity         BLOB    NOT NULL,
	model_kind       TEXT    NOT NULL
);
CREATE INDEX variant_chromosome_position ON variant (chromosome, position);
`

// DBSink writes the simulated variant database to SQLite through sqlx. A
// mutex funnels concurrent chromosome workers into single-writer order, and
// each chromosome is committed in its own transaction so its output is
// all-or-nothing.
type DBSink struct {
	db    *sqlx.DB
	runID string

	mu sync.Mutex
}

// CreateDBSink creates (or replaces) the output database at path and stamps
// the run metadata row.
func CreateDBSink(path string, masterSeed uint64, sampleSize int) (*DBSink, error) {
	if err := removeExisting(path); err != nil {
		return nil, pfx.Err(fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}

	db, err := openSQLite(path)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}

	s := &DBSink{db: db, runID: uuid.New().String()}
	if _, err := db.Exec(dbSchema); err != nil {
		db.Close()
		return nil, pfx.Err(fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}
	_, err = db.Exec(
		`INSERT INTO run (run_id, master_seed, sample_size, created_at, driver) VALUES (?, ?, ?, ?, ?)`,
		s.runID, int64(masterSeed), sampleSize, time.Now().Unix(), whichSQLiteDriver,
	)
	if err != nil {
		db.Close()
		return nil, pfx.Err(fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}

	return s, nil
}

// OpenDBSink opens an existing variant database for read-back (summaries,
// indel histograms).
func OpenDBSink(path string) (*DBSink, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	return &DBSink{db: db}, nil
}

func (s *DBSink) Close() error {
	return s.db.Close()
}

// RunID returns the identifier stamped at creation, empty for opened
// databases until Metadata is consulted.
func (s *DBSink) RunID() string { return s.runID }

func (s *DBSink) PutGenome(chromosomes []ChromosomeMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return pfx.Err(fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}
	for _, c := range chromosomes {
		if _, err := tx.Exec(`INSERT INTO chromosome (name, length) VALUES (?, ?)`, c.Name, c.Length); err != nil {
			tx.Rollback()
			return pfx.Err(fmt.Errorf("%w: chromosome %s: %v", ErrSinkWrite, c.Name, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return pfx.Err(fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}
	return nil
}

func (s *DBSink) PutChromosome(chromosome string, variants []Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return pfx.Err(fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}
	stmt, err := tx.Preparex(`INSERT INTO variant
		(chromosome, position, ref_length, alt, allele_frequency, zygosity, model_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return pfx.Err(fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}
	for i := range variants {
		v := &variants[i]
		if _, err := stmt.Exec(v.Chromosome, v.Position, v.RefLength, v.Alt,
			v.AlleleFrequency, packZygosity(v.Zygosity), string(v.ModelKind)); err != nil {
			tx.Rollback()
			return pfx.Err(fmt.Errorf("%w: chromosome %s position %d: %v", ErrSinkWrite, chromosome, v.Position, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return pfx.Err(fmt.Errorf("%w: chromosome %s: %v", ErrSinkWrite, chromosome, err))
	}
	return nil
}

// Metadata reads the run table.
func (s *DBSink) Metadata() (*RunMetadata, error) {
	meta := &RunMetadata{}
	if err := s.db.Get(meta, `SELECT * FROM run LIMIT 1`); err != nil {
		return nil, pfx.Err(err)
	}
	return meta, nil
}

// Summary returns per-chromosome variant counts.
func (s *DBSink) Summary() ([]ChromosomeSummary, error) {
	var out []ChromosomeSummary
	err := s.db.Select(&out, `
		SELECT c.name AS chromosome, c.length AS length, COUNT(v.position) AS variants
		FROM chromosome c LEFT JOIN variant v ON v.chromosome = c.name
		GROUP BY c.name ORDER BY c.name`)
	if err != nil {
		return nil, pfx.Err(err)
	}
	return out, nil
}

// Variants returns the stored records for one chromosome in position order.
func (s *DBSink) Variants(chromosome string) ([]VariantRow, error) {
	var out []VariantRow
	err := s.db.Select(&out,
		`SELECT * FROM variant WHERE chromosome = ? ORDER BY position ASC`, chromosome)
	if err != nil {
		return nil, pfx.Err(err)
	}
	return out, nil
}

// IndelLengths returns the indel length histogram for one chromosome:
// len(alt) - ref_length per record, zero (SNP) entries excluded.
func (s *DBSink) IndelLengths(chromosome string) (map[int]int, error) {
	var out []VariantRow
	err := s.db.Select(&out,
		`SELECT * FROM variant WHERE chromosome = ? AND model_kind != ?`, chromosome, string(ModelSNP))
	if err != nil {
		return nil, pfx.Err(err)
	}
	hist := make(map[int]int)
	for _, v := range out {
		hist[len(v.Alt)-v.RefLength]++
	}
	return hist, nil
}

func packZygosity(zv []Zygosity) []byte {
	b := make([]byte, len(zv))
	for i, z := range zv {
		b[i] = byte(z)
	}
	return b
}

// UnpackZygosity is the inverse of the stored blob encoding.
func UnpackZygosity(b []byte) []Zygosity {
	zv := make([]Zygosity, len(b))
	for i := range b {
		zv[i] = Zygosity(b[i])
	}
	return zv
}

// removeExisting clears a stale database file and makes sure the output
// directory exists, so a rerun always starts from an empty database.
func removeExisting(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil {
		log.Printf("removing old simulation database %s", path)
		return os.Remove(path)
	}
	return nil
}

// Time bridges sqlite's unixtime/text time representations to time.Time for
// sqlx scanning, and stores as unixtime.
type Time time.Time

func (t *Time) Scan(v interface{}) error {
	switch which := v.(type) {
	case int64:
		*t = Time(time.Unix(which, 0))
		return nil
	case int:
		*t = Time(time.Unix(int64(which), 0))
		return nil
	case []byte:
		vt, err := time.Parse("2006-01-02 15:04:05", string(which))
		if err != nil {
			return err
		}
		*t = Time(vt)
		return nil
	}

	return fmt.Errorf("no appropriate type could be found to decode %v", v)
}

func (t Time) Value() (driver.Value, error) {
	return time.Time(t).Unix(), nil
}

// WhichSQLiteDriver reports the sqlite driver selected at build time
// (cgo: sqlite3, otherwise the pure-Go modernc driver).
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}
