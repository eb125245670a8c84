// Package sqlite provides SQLite database writing for deconvolved mass
// spectra.
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/jeongkyowon/flashdeconv/pkg/core"
	"github.com/jeongkyowon/flashdeconv/pkg/deconv"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// headerDateFormat matches the ISO 8601 stamp the RunTable's
	// CreationDate column carries.
	headerDateFormat = "2006-01-02 15:04:05"
)

// Writer handles persisting deconvolved scans to a SQLite database file.
type Writer struct {
	db         *sql.DB
	massStmt   *sql.Stmt
	peakStmt   *sql.Stmt
	runID      int64
	nextMassID int64
	nextPeakID int64
}

// NewWriter opens (creating if necessary) outputPath and starts a new run.
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{db: db, nextMassID: 1, nextPeakID: 1}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.startRun(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId INTEGER PRIMARY KEY,
		CreationDate TEXT,
		Description TEXT
	);

	CREATE TABLE IF NOT EXISTS MassTable (
		MassId INTEGER PRIMARY KEY,
		RunId INTEGER REFERENCES RunTable(RunId),
		RetentionTime DOUBLE,
		MSLevel INTEGER,
		MonoMass DOUBLE,
		NominalMass INTEGER,
		Intensity DOUBLE,
		MinCharge INTEGER,
		MaxCharge INTEGER,
		ChargeDistScore INTEGER,
		IsotopeCosineScore DOUBLE,
		blobPeakMZ BLOB,
		blobPeakIntensity BLOB
	);

	CREATE TABLE IF NOT EXISTS PeakTable (
		PeakId INTEGER PRIMARY KEY,
		MassId INTEGER REFERENCES MassTable(MassId),
		MZ DOUBLE,
		Charge INTEGER,
		IsotopeIndex INTEGER,
		Intensity DOUBLE
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (w *Writer) startRun() error {
	res, err := w.db.Exec(
		`INSERT INTO RunTable (CreationDate, Description) VALUES (?, ?)`,
		time.Now().Format(headerDateFormat), "",
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read run id: %w", err)
	}
	w.runID = id
	return nil
}

func (w *Writer) prepareStatements() error {
	var err error

	w.massStmt, err = w.db.Prepare(`
		INSERT INTO MassTable (
			MassId, RunId, RetentionTime, MSLevel, MonoMass, NominalMass,
			Intensity, MinCharge, MaxCharge, ChargeDistScore, IsotopeCosineScore,
			blobPeakMZ, blobPeakIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare mass statement: %w", err)
	}

	w.peakStmt, err = w.db.Prepare(`
		INSERT INTO PeakTable (
			PeakId, MassId, MZ, Charge, IsotopeIndex, Intensity
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare peak statement: %w", err)
	}

	return nil
}

// WriteScan persists every peak group found in one deconvolved scan.
func (w *Writer) WriteScan(rt float64, msLevel int, groups []deconv.PeakGroup) error {
	for _, g := range groups {
		if err := w.writeGroup(rt, msLevel, g); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeGroup(rt float64, msLevel int, g deconv.PeakGroup) error {
	massID := w.nextMassID
	w.nextMassID++

	mzBlob := encodeGroupPeakFloat64(g.Peaks, func(p deconv.GroupPeak) float64 { return p.MZ })
	intBlob := encodeGroupPeakFloat64(g.Peaks, func(p deconv.GroupPeak) float64 { return p.Intensity })

	// stored at four decimals, below any ppm-level mass tolerance
	monoMass := core.RoundFloat(g.MonoMass, 4)

	_, err := w.massStmt.Exec(
		massID, w.runID, rt, msLevel, monoMass, deconv.NominalMass(g.MonoMass),
		g.Intensity, g.MinCharge, g.MaxCharge, g.ChargeDistScore, g.IsotopeCosineScore,
		mzBlob, intBlob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert mass: %w", err)
	}

	for _, p := range g.Peaks {
		peakID := w.nextPeakID
		w.nextPeakID++
		_, err := w.peakStmt.Exec(peakID, massID, p.MZ, p.Charge, p.IsotopeIndex, p.Intensity)
		if err != nil {
			return fmt.Errorf("failed to insert peak: %w", err)
		}
	}

	return nil
}

// encodeGroupPeakFloat64 encodes one numeric field of every peak as a
// little-endian float64 blob.
func encodeGroupPeakFloat64(peaks []deconv.GroupPeak, field func(deconv.GroupPeak) float64) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, p := range peaks {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(field(p)))
	}
	return buf
}

// Finalize closes prepared statements and the database connection. Calling
// it again after a successful close is a no-op, so a deferred Close behind
// an explicit Finalize does not double-close.
func (w *Writer) Finalize() error {
	if w.db == nil {
		return nil
	}
	if w.massStmt != nil {
		w.massStmt.Close()
		w.massStmt = nil
	}
	if w.peakStmt != nil {
		w.peakStmt.Close()
		w.peakStmt = nil
	}
	err := w.db.Close()
	w.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Close closes the database connection (alias for Finalize).
func (w *Writer) Close() error {
	return w.Finalize()
}
