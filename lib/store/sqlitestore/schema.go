// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitestore

// migrations mirror the platform's Postgres tables closely enough for
// the same queries to apply. Postgres keeps a domain's addresses in an
// integer array of ips.id; here that is the domain_ips join table.
// Lists (url technologies, certificate names, website techs) are JSON
// text. Later entries add tables for data collected by newer workers.
var migrations = []string{
	`
CREATE TABLE programs (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE program_scopes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id INTEGER NOT NULL,
	regex      TEXT NOT NULL,
	UNIQUE (program_id, regex)
);

CREATE TABLE program_cidrs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id INTEGER NOT NULL,
	cidr       TEXT NOT NULL,
	UNIQUE (program_id, cidr)
);

CREATE TABLE ips (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id INTEGER NOT NULL,
	ip         TEXT NOT NULL,
	ptr        TEXT,
	UNIQUE (program_id, ip)
);

CREATE TABLE domains (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id INTEGER NOT NULL,
	domain     TEXT NOT NULL,
	UNIQUE (program_id, domain)
);

CREATE TABLE domain_ips (
	domain_id INTEGER NOT NULL,
	ip_id     INTEGER NOT NULL,
	PRIMARY KEY (domain_id, ip_id)
);

CREATE TABLE urls (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id   INTEGER NOT NULL,
	url          TEXT NOT NULL,
	title        TEXT,
	status_code  INTEGER,
	technologies TEXT,
	UNIQUE (program_id, url)
);

CREATE TABLE services (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id INTEGER NOT NULL,
	ip         INTEGER NOT NULL,
	port       INTEGER NOT NULL,
	protocol   TEXT,
	service    TEXT
);

CREATE TABLE nuclei (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id  INTEGER NOT NULL,
	target      TEXT NOT NULL,
	template_id TEXT NOT NULL,
	name        TEXT,
	severity    TEXT NOT NULL,
	matched_at  TEXT,
	type        TEXT
);

CREATE TABLE certificates (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id  INTEGER NOT NULL,
	subject_cn  TEXT NOT NULL,
	subject_an  TEXT,
	issuer_org  TEXT,
	serial      TEXT,
	valid_date  TEXT,
	expiry_date TEXT
);

CREATE INDEX domains_program ON domains (program_id);
CREATE INDEX ips_program ON ips (program_id);
CREATE INDEX urls_program ON urls (program_id);
CREATE INDEX services_program ON services (program_id);
CREATE INDEX nuclei_program ON nuclei (program_id);
CREATE INDEX certificates_program ON certificates (program_id);
`,
	`
CREATE TABLE websites (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id INTEGER NOT NULL,
	url        TEXT NOT NULL,
	host       TEXT,
	port       INTEGER,
	scheme     TEXT,
	techs      TEXT,
	UNIQUE (program_id, url)
);

CREATE TABLE websites_paths (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id   INTEGER NOT NULL,
	website_id   INTEGER NOT NULL,
	path         TEXT NOT NULL,
	final_path   TEXT,
	status_code  INTEGER,
	content_type TEXT,
	UNIQUE (website_id, path)
);

CREATE TABLE screenshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id INTEGER NOT NULL,
	url        TEXT NOT NULL,
	filepath   TEXT NOT NULL,
	md5_hash   TEXT
);

CREATE TABLE dns_records (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id INTEGER NOT NULL,
	domain_id  INTEGER NOT NULL,
	hostname   TEXT NOT NULL,
	ttl        INTEGER,
	dns_class  TEXT,
	dns_type   TEXT NOT NULL,
	value      TEXT NOT NULL
);

CREATE INDEX websites_program ON websites (program_id);
CREATE INDEX websites_paths_program ON websites_paths (program_id);
CREATE INDEX screenshots_program ON screenshots (program_id);
CREATE INDEX dns_records_program ON dns_records (program_id);
`,
}
