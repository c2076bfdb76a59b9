// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitestore implements [store.Store] on a local SQLite
// database.
//
// It is the backend for standalone use (database.driver: sqlite) and
// for tests. Unlike pgstore it owns its schema. The Insert methods
// write asset rows the way the platform's data processors would.
package sqlitestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/h3xrecon/h3xrecon/lib/sqlitepool"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

// Store is a [store.Store] over a sqlitepool.
type Store struct {
	pool *sqlitepool.Pool
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, poolSize int, logger *slog.Logger) (*Store, error) {
	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
		Path:       path,
		PoolSize:   poolSize,
		Migrations: migrations,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) Programs(ctx context.Context) ([]store.Program, error) {
	var programs []store.Program
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT id, name FROM programs ORDER BY name", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				programs = append(programs, store.Program{ID: stmt.ColumnInt64(0), Name: stmt.ColumnText(1)})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	return programs, nil
}

func (s *Store) Program(ctx context.Context, name string) (store.Program, error) {
	var program store.Program
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		id, err := programID(conn, name)
		program = store.Program{ID: id, Name: name}
		return err
	})
	return program, err
}

func (s *Store) AddProgram(ctx context.Context, name string) (store.Program, error) {
	if err := store.ValidateProgramName(name); err != nil {
		return store.Program{}, err
	}
	var program store.Program
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "INSERT INTO programs (name) VALUES (?)", &sqlitex.ExecOptions{
			Args: []any{name},
		})
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return fmt.Errorf("program %q: %w", name, store.ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("adding program %q: %w", name, err)
		}
		program = store.Program{ID: conn.LastInsertRowID(), Name: name}
		return nil
	})
	return program, err
}

func (s *Store) DeleteProgram(ctx context.Context, name string) error {
	return s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		id, err := programID(conn, name)
		if err != nil {
			return err
		}
		if _, err := dropAssets(conn, id); err != nil {
			return err
		}
		for _, query := range []string{
			"DELETE FROM program_scopes WHERE program_id = ?",
			"DELETE FROM program_cidrs WHERE program_id = ?",
			"DELETE FROM programs WHERE id = ?",
		} {
			if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
				return fmt.Errorf("deleting program %q: %w", name, err)
			}
		}
		return nil
	})
}

func (s *Store) Scopes(ctx context.Context, program string) ([]string, error) {
	return s.entries(ctx, program, "SELECT regex FROM program_scopes WHERE program_id = ? ORDER BY id")
}

func (s *Store) AddScope(ctx context.Context, program, pattern string) (bool, error) {
	return s.addEntry(ctx, program, pattern, store.ValidateScope,
		"INSERT INTO program_scopes (program_id, regex) VALUES (?, ?) ON CONFLICT DO NOTHING")
}

func (s *Store) DeleteScope(ctx context.Context, program, pattern string) (bool, error) {
	return s.deleteEntry(ctx, program, strings.TrimSpace(pattern),
		"DELETE FROM program_scopes WHERE program_id = ? AND regex = ?")
}

func (s *Store) CIDRs(ctx context.Context, program string) ([]string, error) {
	return s.entries(ctx, program, "SELECT cidr FROM program_cidrs WHERE program_id = ? ORDER BY id")
}

func (s *Store) AddCIDR(ctx context.Context, program, cidr string) (bool, error) {
	return s.addEntry(ctx, program, cidr, store.NormalizeCIDR,
		"INSERT INTO program_cidrs (program_id, cidr) VALUES (?, ?) ON CONFLICT DO NOTHING")
}

func (s *Store) DeleteCIDR(ctx context.Context, program, cidr string) (bool, error) {
	normalized, err := store.NormalizeCIDR(cidr)
	if err != nil {
		// A malformed entry cannot be present; still report an unknown
		// program first.
		if _, lookupErr := s.Program(ctx, program); lookupErr != nil {
			return false, lookupErr
		}
		return false, err
	}
	return s.deleteEntry(ctx, program, normalized,
		"DELETE FROM program_cidrs WHERE program_id = ? AND cidr = ?")
}

func (s *Store) DropAssets(ctx context.Context, program string) (store.DropReport, error) {
	var report store.DropReport
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		id, err := programID(conn, program)
		if err != nil {
			return err
		}
		report, err = dropAssets(conn, id)
		return err
	})
	return report, err
}

func (s *Store) Domains(ctx context.Context, program string, resolution store.Resolution) ([]store.Domain, error) {
	var domains []store.Domain
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		index := make(map[int64]int)
		return sqlitex.Execute(conn, `
			SELECT d.id, d.domain, i.ip
			FROM domains d
			LEFT JOIN domain_ips di ON di.domain_id = d.id
			LEFT JOIN ips i ON i.id = di.ip_id
			WHERE d.program_id = ?
			ORDER BY d.domain, i.id`, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				domainID := stmt.ColumnInt64(0)
				position, seen := index[domainID]
				if !seen {
					position = len(domains)
					index[domainID] = position
					domains = append(domains, store.Domain{Domain: stmt.ColumnText(1)})
				}
				if stmt.ColumnType(2) != sqlite.TypeNull {
					domains[position].IPs = append(domains[position].IPs, stmt.ColumnText(2))
				}
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}

	filtered := domains[:0]
	for _, domain := range domains {
		switch {
		case resolution == store.Resolved && len(domain.IPs) == 0:
		case resolution == store.Unresolved && len(domain.IPs) > 0:
		default:
			filtered = append(filtered, domain)
		}
	}
	return filtered, nil
}

func (s *Store) IPs(ctx context.Context, program string, resolution store.Resolution) ([]store.IP, error) {
	query := "SELECT ip, coalesce(ptr, '') FROM ips WHERE program_id = ?"
	switch resolution {
	case store.Resolved:
		query += " AND ptr IS NOT NULL AND ptr != ''"
	case store.Unresolved:
		query += " AND (ptr IS NULL OR ptr = '')"
	}
	query += " ORDER BY id"

	var ips []store.IP
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				ips = append(ips, store.IP{IP: stmt.ColumnText(0), PTR: stmt.ColumnText(1)})
				return nil
			},
		})
	})
	return ips, err
}

func (s *Store) URLs(ctx context.Context, program string) ([]store.URL, error) {
	var urls []store.URL
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			SELECT url, coalesce(title, ''), coalesce(status_code, 0), coalesce(technologies, '')
			FROM urls WHERE program_id = ? ORDER BY url`, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				url := store.URL{URL: stmt.ColumnText(0), Title: stmt.ColumnText(1), StatusCode: stmt.ColumnInt(2)}
				if err := decodeList(stmt.ColumnText(3), &url.Technologies); err != nil {
					return fmt.Errorf("url %s technologies: %w", url.URL, err)
				}
				urls = append(urls, url)
				return nil
			},
		})
	})
	return urls, err
}

func (s *Store) Services(ctx context.Context, program string) ([]store.Service, error) {
	var services []store.Service
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			SELECT i.ip, s.port, coalesce(s.protocol, ''), coalesce(s.service, '')
			FROM services s JOIN ips i ON s.ip = i.id
			WHERE s.program_id = ? ORDER BY i.ip, s.port`, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				services = append(services, store.Service{
					IP:       stmt.ColumnText(0),
					Port:     stmt.ColumnInt(1),
					Protocol: stmt.ColumnText(2),
					Service:  stmt.ColumnText(3),
				})
				return nil
			},
		})
	})
	return services, err
}

func (s *Store) Nuclei(ctx context.Context, program, severity string) ([]store.NucleiFinding, error) {
	query := `SELECT target, template_id, coalesce(name, ''), severity, coalesce(matched_at, ''), coalesce(type, '')
		FROM nuclei WHERE program_id = ?`
	args := []any{}
	if severity != "" {
		query += " AND lower(severity) = lower(?)"
		args = append(args, severity)
	}
	query += " ORDER BY id"

	var findings []store.NucleiFinding
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: append([]any{id}, args...),
			ResultFunc: func(stmt *sqlite.Stmt) error {
				findings = append(findings, store.NucleiFinding{
					Target:     stmt.ColumnText(0),
					TemplateID: stmt.ColumnText(1),
					Name:       stmt.ColumnText(2),
					Severity:   stmt.ColumnText(3),
					MatchedAt:  stmt.ColumnText(4),
					Type:       stmt.ColumnText(5),
				})
				return nil
			},
		})
	})
	return findings, err
}

func (s *Store) Certificates(ctx context.Context, program string) ([]store.Certificate, error) {
	var certificates []store.Certificate
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			SELECT subject_cn, coalesce(subject_an, ''), coalesce(issuer_org, ''), coalesce(serial, ''),
			       coalesce(valid_date, ''), coalesce(expiry_date, '')
			FROM certificates WHERE program_id = ? ORDER BY subject_cn`, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				certificate := store.Certificate{
					SubjectCN: stmt.ColumnText(0),
					IssuerOrg: stmt.ColumnText(2),
					Serial:    stmt.ColumnText(3),
				}
				if err := decodeList(stmt.ColumnText(1), &certificate.SubjectAN); err != nil {
					return fmt.Errorf("certificate %s names: %w", certificate.SubjectCN, err)
				}
				var err error
				if certificate.ValidFrom, err = decodeTime(stmt.ColumnText(4)); err != nil {
					return err
				}
				if certificate.ValidUntil, err = decodeTime(stmt.ColumnText(5)); err != nil {
					return err
				}
				certificates = append(certificates, certificate)
				return nil
			},
		})
	})
	return certificates, err
}

func (s *Store) Websites(ctx context.Context, program string) ([]store.Website, error) {
	var websites []store.Website
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			SELECT url, coalesce(host, ''), coalesce(port, 0), coalesce(scheme, ''), coalesce(techs, '')
			FROM websites WHERE program_id = ? ORDER BY url`, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				website := store.Website{
					URL:    stmt.ColumnText(0),
					Host:   stmt.ColumnText(1),
					Port:   stmt.ColumnInt(2),
					Scheme: stmt.ColumnText(3),
				}
				if err := decodeList(stmt.ColumnText(4), &website.Techs); err != nil {
					return fmt.Errorf("website %s techs: %w", website.URL, err)
				}
				websites = append(websites, website)
				return nil
			},
		})
	})
	return websites, err
}

func (s *Store) WebsitePaths(ctx context.Context, program string) ([]store.WebsitePath, error) {
	var paths []store.WebsitePath
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			SELECT w.url, p.path, coalesce(p.final_path, ''), coalesce(p.status_code, 0), coalesce(p.content_type, '')
			FROM websites_paths p JOIN websites w ON p.website_id = w.id
			WHERE p.program_id = ? ORDER BY w.url, p.path`, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				paths = append(paths, store.WebsitePath{
					URL:         stmt.ColumnText(0),
					Path:        stmt.ColumnText(1),
					FinalPath:   stmt.ColumnText(2),
					StatusCode:  stmt.ColumnInt(3),
					ContentType: stmt.ColumnText(4),
				})
				return nil
			},
		})
	})
	return paths, err
}

func (s *Store) Screenshots(ctx context.Context, program string) ([]store.Screenshot, error) {
	var screenshots []store.Screenshot
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			SELECT url, filepath, coalesce(md5_hash, '')
			FROM screenshots WHERE program_id = ? ORDER BY url`, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				screenshots = append(screenshots, store.Screenshot{
					URL:      stmt.ColumnText(0),
					Filepath: stmt.ColumnText(1),
					MD5Hash:  stmt.ColumnText(2),
				})
				return nil
			},
		})
	})
	return screenshots, err
}

func (s *Store) DNSRecords(ctx context.Context, program, domain string) ([]store.DNSRecord, error) {
	query := `SELECT d.domain, r.hostname, coalesce(r.ttl, 0), coalesce(r.dns_class, 'IN'), r.dns_type, r.value
		FROM dns_records r JOIN domains d ON r.domain_id = d.id
		WHERE r.program_id = ?`
	args := []any{}
	if domain != "" {
		query += " AND lower(d.domain) = lower(?)"
		args = append(args, domain)
	}
	query += " ORDER BY d.domain, r.dns_type, r.hostname"

	var records []store.DNSRecord
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: append([]any{id}, args...),
			ResultFunc: func(stmt *sqlite.Stmt) error {
				records = append(records, store.DNSRecord{
					Domain:   stmt.ColumnText(0),
					Hostname: stmt.ColumnText(1),
					TTL:      stmt.ColumnInt(2),
					Class:    stmt.ColumnText(3),
					Type:     stmt.ColumnText(4),
					Value:    stmt.ColumnText(5),
				})
				return nil
			},
		})
	})
	return records, err
}

// read resolves program and runs fn with its id on one connection.
func (s *Store) read(ctx context.Context, program string, fn func(conn *sqlite.Conn, id int64) error) error {
	return s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		id, err := programID(conn, program)
		if err != nil {
			return err
		}
		return fn(conn, id)
	})
}

func (s *Store) entries(ctx context.Context, program, query string) ([]string, error) {
	var values []string
	err := s.read(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				values = append(values, stmt.ColumnText(0))
				return nil
			},
		})
	})
	return values, err
}

func (s *Store) addEntry(ctx context.Context, program, value string, normalize func(string) (string, error), query string) (bool, error) {
	var added bool
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		id, err := programID(conn, program)
		if err != nil {
			return err
		}
		normalized, err := normalize(value)
		if err != nil {
			return err
		}
		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: []any{id, normalized}}); err != nil {
			return fmt.Errorf("program %q: %w", program, err)
		}
		added = conn.Changes() > 0
		return nil
	})
	return added, err
}

func (s *Store) deleteEntry(ctx context.Context, program, value, query string) (bool, error) {
	var removed bool
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		id, err := programID(conn, program)
		if err != nil {
			return err
		}
		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: []any{id, value}}); err != nil {
			return fmt.Errorf("program %q: %w", program, err)
		}
		removed = conn.Changes() > 0
		return nil
	})
	return removed, err
}

func programID(conn *sqlite.Conn, name string) (int64, error) {
	var id int64
	found := false
	err := sqlitex.Execute(conn, "SELECT id FROM programs WHERE name = ?", &sqlitex.ExecOptions{
		Args: []any{name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			id = stmt.ColumnInt64(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("looking up program %q: %w", name, err)
	}
	if !found {
		return 0, store.NotFound(name)
	}
	return id, nil
}

// dropAssets deletes every asset row of program id. Must run inside a
// write transaction.
func dropAssets(conn *sqlite.Conn, id int64) (store.DropReport, error) {
	err := sqlitex.Execute(conn,
		"DELETE FROM domain_ips WHERE domain_id IN (SELECT id FROM domains WHERE program_id = ?)",
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return nil, fmt.Errorf("dropping domain addresses: %w", err)
	}

	report := make(store.DropReport, len(store.AssetTables))
	for _, table := range store.AssetTables {
		// Table names come from a fixed list.
		query := "DELETE FROM " + table + " WHERE program_id = ?"
		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
			return nil, fmt.Errorf("dropping %s: %w", table, err)
		}
		report[table] = int64(conn.Changes())
	}
	return report, nil
}

func decodeList(text string, into *[]string) error {
	if text == "" {
		return nil
	}
	return json.Unmarshal([]byte(text), into)
}

func encodeList(values []string) any {
	if len(values) == 0 {
		return nil
	}
	encoded, _ := json.Marshal(values)
	return string(encoded)
}

func decodeTime(text string) (time.Time, error) {
	if text == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding time %q: %w", text, err)
	}
	return parsed, nil
}

func encodeTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

var errMissingIP = errors.New("sqlitestore: ip is empty")
