package store

// Table layout shared by the sqlite and postgres backends. Statements are
// executed one at a time; both dialects accept them unchanged.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS size_ranges (
		bucket  INTEGER PRIMARY KEY,
		low_um  BIGINT NOT NULL,
		high_um BIGINT NOT NULL,
		CHECK (low_um < high_um)
	)`,
	`CREATE TABLE IF NOT EXISTS grades (
		id    INTEGER PRIMARY KEY,
		label TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS zones (
		code   INTEGER PRIMARY KEY,
		letter TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS deviations (
		kind     SMALLINT NOT NULL,
		bucket   INTEGER NOT NULL,
		grade    INTEGER NOT NULL,
		zone     INTEGER NOT NULL,
		upper_um BIGINT NOT NULL,
		lower_um BIGINT NOT NULL,
		PRIMARY KEY (kind, bucket, grade, zone),
		CHECK (upper_um >= lower_um)
	)`,
	`CREATE TABLE IF NOT EXISTS index_meta (
		id       INTEGER PRIMARY KEY CHECK (id = 1),
		saved_at TEXT NOT NULL,
		report   TEXT NOT NULL
	)`,
}

// clearStatements empty every table before a Save writes new content.
var clearStatements = []string{
	`DELETE FROM deviations`,
	`DELETE FROM size_ranges`,
	`DELETE FROM grades`,
	`DELETE FROM zones`,
	`DELETE FROM index_meta`,
}

const (
	selectRanges     = `SELECT bucket, low_um, high_um FROM size_ranges ORDER BY bucket`
	selectGrades     = `SELECT id, label FROM grades ORDER BY id`
	selectZones      = `SELECT code, letter FROM zones ORDER BY code`
	selectDeviations = `SELECT kind, bucket, grade, zone, upper_um, lower_um FROM deviations ORDER BY kind, bucket, grade, zone`
	selectMeta       = `SELECT saved_at, report FROM index_meta WHERE id = 1`
)
