package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/pthm-cable/sward/components"
)

// SQLiteSink writes the daily report, window stats and bookmarks to a SQLite
// database from a background writer goroutine. Daily columns follow the
// report field descriptors.
type SQLiteSink struct {
	db     *sql.DB
	fields []components.FieldDescriptor

	ch   chan sinkReq
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	errMu sync.Mutex
	err   error // first write error, returned by Close
}

type sinkReqKind int

const (
	reqDaily sinkReqKind = iota + 1
	reqWindow
	reqBookmark
	reqSnapshot
)

type sinkReq struct {
	kind sinkReqKind

	daily    []components.Report
	window   WindowStats
	bookmark Bookmark
	day      int
	date     string
	path     string
}

// OpenSQLite opens or creates the report database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	fields := components.ReportFieldDescriptors()
	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db, fields); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteSink{
		db:     db,
		fields: fields,
		ch:     make(chan sinkReq, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB, fields []components.FieldDescriptor) error {
	var cols strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&cols, "\n\t\t\t%s REAL NOT NULL,", f.ID)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS fields (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			unit TEXT NOT NULL,
			grp TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily (
			date TEXT NOT NULL,
			species TEXT NOT NULL,
			stage INTEGER NOT NULL,
			alive INTEGER NOT NULL,` + cols.String() + `
			PRIMARY KEY (date, species)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_species_date ON daily(species, date);`,
		`CREATE TABLE IF NOT EXISTS windows (
			window_end INTEGER PRIMARY KEY,
			date TEXT NOT NULL,
			alive_species INTEGER NOT NULL,
			shoot_dm REAL NOT NULL,
			root_dm REAL NOT NULL,
			growth REAL NOT NULL,
			defoliated REAL NOT NULL,
			n_uptake REAL NOT NULL,
			n_fixed REAL NOT NULL,
			water_uptake REAL NOT NULL,
			drainage REAL NOT NULL,
			glf_water_mean REAL NOT NULL,
			glf_n_mean REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			day INTEGER NOT NULL,
			type TEXT NOT NULL,
			species TEXT NOT NULL,
			date TEXT NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (day, type, species)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			day INTEGER PRIMARY KEY,
			date TEXT NOT NULL,
			path TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	for _, f := range fields {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO fields(id,label,unit,grp) VALUES(?,?,?,?)`,
			f.ID, f.Label, f.Unit, f.Group); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close drains the queue, closes the database and returns the first write
// error, if any.
func (s *SQLiteSink) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	if werr := s.writeErr(); werr != nil {
		return werr
	}
	return err
}

// WriteDaily queues one day of plant reports.
func (s *SQLiteSink) WriteDaily(reports []components.Report) {
	if s == nil || s.closed.Load() || len(reports) == 0 {
		return
	}
	s.ch <- sinkReq{kind: reqDaily, daily: append([]components.Report(nil), reports...)}
}

// WriteWindow queues a window stats row.
func (s *SQLiteSink) WriteWindow(stats WindowStats) {
	if s == nil || s.closed.Load() {
		return
	}
	s.ch <- sinkReq{kind: reqWindow, window: stats}
}

// WriteBookmark queues a bookmark row.
func (s *SQLiteSink) WriteBookmark(b Bookmark) {
	if s == nil || s.closed.Load() {
		return
	}
	s.ch <- sinkReq{kind: reqBookmark, bookmark: b}
}

// RecordSnapshot queues the path of a saved snapshot.
func (s *SQLiteSink) RecordSnapshot(day int, date, path string) {
	if s == nil || s.closed.Load() || path == "" {
		return
	}
	s.ch <- sinkReq{kind: reqSnapshot, day: day, date: date, path: path}
}

func (s *SQLiteSink) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *SQLiteSink) writeErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *SQLiteSink) dailyInsert() string {
	cols := []string{"date", "species", "stage", "alive"}
	for _, f := range s.fields {
		cols = append(cols, f.ID)
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	return `INSERT OR REPLACE INTO daily(` + strings.Join(cols, ",") + `) VALUES(` + marks + `)`
}

func (s *SQLiteSink) loop() {
	ctx := context.Background()
	for r := range s.ch {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.setErr(err)
			continue
		}
		if err := s.apply(tx, r); err != nil {
			_ = tx.Rollback()
			s.setErr(err)
			continue
		}
		if err := tx.Commit(); err != nil {
			s.setErr(err)
		}
	}
}

func (s *SQLiteSink) apply(tx *sql.Tx, r sinkReq) error {
	switch r.kind {
	case reqDaily:
		stmt, err := tx.Prepare(s.dailyInsert())
		if err != nil {
			return err
		}
		defer stmt.Close()
		args := make([]any, 0, 4+len(s.fields))
		for i := range r.daily {
			rep := &r.daily[i]
			alive := 0
			if rep.Alive {
				alive = 1
			}
			args = append(args[:0], rep.Date, rep.Species, rep.Stage, alive)
			for _, f := range s.fields {
				args = append(args, components.GetReportValue(rep, f.ID))
			}
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("daily %s %s: %w", rep.Date, rep.Species, err)
			}
		}

	case reqWindow:
		w := r.window
		_, err := tx.Exec(`INSERT OR REPLACE INTO windows(window_end,date,alive_species,shoot_dm,root_dm,growth,defoliated,n_uptake,n_fixed,water_uptake,drainage,glf_water_mean,glf_n_mean) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			w.WindowEndDay, w.Date, w.AliveSpecies, w.ShootDM, w.RootDM, w.Growth, w.Defoliated,
			w.NUptake, w.NFixed, w.WaterUptake, w.Drainage, w.GLFWaterMean, w.GLFNMean)
		return err

	case reqBookmark:
		b := r.bookmark
		_, err := tx.Exec(`INSERT OR REPLACE INTO bookmarks(day,type,species,date,description) VALUES(?,?,?,?,?)`,
			b.Day, string(b.Type), b.Species, b.Date, b.Description)
		return err

	case reqSnapshot:
		_, err := tx.Exec(`INSERT OR REPLACE INTO snapshots(day,date,path) VALUES(?,?,?)`, r.day, r.date, r.path)
		return err
	}
	return nil
}
