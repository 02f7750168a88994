package sqlite

// Schema is applied with CREATE TABLE IF NOT EXISTS on every open, so it is
// safe to run against an already-initialized database. There is no separate
// migrations directory: the schema is small and stable enough that
// additive changes are made here directly, matching the embedded-schema
// half of the teacher's two schema-management strategies.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
	id                  TEXT PRIMARY KEY,
	content             TEXT NOT NULL,
	node_type           TEXT NOT NULL DEFAULT 'note',
	tags                TEXT NOT NULL DEFAULT '[]',
	embedding           BLOB,
	embedding_dimension INTEGER NOT NULL DEFAULT 0,
	embedding_version   INTEGER NOT NULL DEFAULT 0,
	created_at          TIMESTAMP NOT NULL,
	updated_at          TIMESTAMP NOT NULL,
	last_accessed_at    TIMESTAMP NOT NULL,
	stability           REAL NOT NULL DEFAULT 0,
	difficulty          REAL NOT NULL DEFAULT 0,
	storage_strength    REAL NOT NULL DEFAULT 0,
	retrieval_strength   REAL NOT NULL DEFAULT 1,
	review_count        INTEGER NOT NULL DEFAULT 0,
	access_history      TEXT NOT NULL DEFAULT '[]',
	source              TEXT NOT NULL DEFAULT '',
	encoding_context    TEXT NOT NULL DEFAULT '{}',
	state               TEXT NOT NULL DEFAULT 'active',
	state_updated_at    TIMESTAMP,
	unavailable         INTEGER NOT NULL DEFAULT 0,
	deleted_at          TIMESTAMP,
	supersedes_id       TEXT,
	content_hash        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_memories_content_hash ON memories(content_hash);
CREATE INDEX IF NOT EXISTS idx_memories_state ON memories(state);
CREATE INDEX IF NOT EXISTS idx_memories_deleted_at ON memories(deleted_at);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);

CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
	id UNINDEXED,
	content,
	tags,
	content='memories',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS memories_fts_insert AFTER INSERT ON memories BEGIN
	INSERT INTO memories_fts(rowid, id, content, tags) VALUES (new.rowid, new.id, new.content, new.tags);
END;

CREATE TRIGGER IF NOT EXISTS memories_fts_delete AFTER DELETE ON memories BEGIN
	INSERT INTO memories_fts(memories_fts, rowid, id, content, tags) VALUES('delete', old.rowid, old.id, old.content, old.tags);
END;

CREATE TRIGGER IF NOT EXISTS memories_fts_update AFTER UPDATE ON memories BEGIN
	INSERT INTO memories_fts(memories_fts, rowid, id, content, tags) VALUES('delete', old.rowid, old.id, old.content, old.tags);
	INSERT INTO memories_fts(rowid, id, content, tags) VALUES (new.rowid, new.id, new.content, new.tags);
END;

CREATE TABLE IF NOT EXISTS state_transitions (
	memory_id  TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state   TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	timestamp  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_state_transitions_memory_id ON state_transitions(memory_id);

CREATE TABLE IF NOT EXISTS connection_edges (
	memory_a      TEXT NOT NULL,
	memory_b      TEXT NOT NULL,
	weight        REAL NOT NULL DEFAULT 0,
	type          TEXT NOT NULL DEFAULT 'semantic',
	discovered_at TIMESTAMP NOT NULL,
	PRIMARY KEY (memory_a, memory_b)
);
CREATE INDEX IF NOT EXISTS idx_connection_edges_a ON connection_edges(memory_a);
CREATE INDEX IF NOT EXISTS idx_connection_edges_b ON connection_edges(memory_b);

CREATE TABLE IF NOT EXISTS synaptic_tags (
	memory_id      TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	tag_strength   REAL NOT NULL,
	decay_function TEXT NOT NULL,
	expires_at     TIMESTAMP NOT NULL,
	swept          INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (memory_id, created_at)
);
CREATE INDEX IF NOT EXISTS idx_synaptic_tags_created_at ON synaptic_tags(created_at);
CREATE INDEX IF NOT EXISTS idx_synaptic_tags_swept ON synaptic_tags(swept);

CREATE TABLE IF NOT EXISTS intentions (
	id           TEXT PRIMARY KEY,
	description  TEXT NOT NULL,
	trigger_kind TEXT NOT NULL,
	trigger_json TEXT NOT NULL,
	priority     INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'active',
	recurring    INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL,
	fulfilled_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_intentions_status ON intentions(status);

CREATE TABLE IF NOT EXISTS embedding_versions (
	version    INTEGER PRIMARY KEY,
	model      TEXT NOT NULL,
	dimension  INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS engine_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
