package store

// Block parents are not foreign keys: ReplaceBlocks inserts a page's blocks
// in collection order, which may put a child before its parent.
const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL DEFAULT 'default',
	title        TEXT NOT NULL,
	type         TEXT NOT NULL DEFAULT 'note',
	icon         TEXT NOT NULL DEFAULT '',
	parent_id    TEXT,
	sort_order   INTEGER NOT NULL DEFAULT 0,
	is_archived  INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	version      INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS blocks (
	id              TEXT PRIMARY KEY,
	page_id         TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	parent_block_id TEXT,
	type            TEXT NOT NULL,
	content         TEXT NOT NULL DEFAULT '',
	props           TEXT NOT NULL DEFAULT '{}',
	idx             INTEGER NOT NULL,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL,
	version         INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_blocks_page ON blocks(page_id, idx);

CREATE TABLE IF NOT EXISTS databases (
	id         TEXT PRIMARY KEY,
	page_id    TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	title      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS database_columns (
	id          TEXT PRIMARY KEY,
	database_id TEXT NOT NULL REFERENCES databases(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	options     TEXT,
	position    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS database_rows (
	id          TEXT PRIMARY KEY,
	database_id TEXT NOT NULL REFERENCES databases(id) ON DELETE CASCADE,
	data        TEXT NOT NULL DEFAULT '{}',
	position    INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`
