package sqlite

const schemaVersion = 1

// Times are stored as unix nanoseconds in UTC.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	confirmed_at INTEGER,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ips (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	owner TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS ips_by_user_created ON ips(user_id, created_at);

CREATE TABLE IF NOT EXISTS worlds (
	id TEXT PRIMARY KEY,
	ip_id TEXT NOT NULL REFERENCES ips(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS worlds_by_ip ON worlds(ip_id, user_id, created_at);

CREATE TABLE IF NOT EXISTS content_items (
	id TEXT PRIMARY KEY,
	world_id TEXT NOT NULL REFERENCES worlds(id),
	ip_id TEXT NOT NULL REFERENCES ips(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	section TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS content_items_by_world_section ON content_items(world_id, section, created_at);
CREATE INDEX IF NOT EXISTS content_items_by_ip ON content_items(ip_id);
`
