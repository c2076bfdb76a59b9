// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitestore

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/h3xrecon/h3xrecon/lib/store"
)

// InsertIP records an address, updating its PTR when it already exists
// and a new PTR is given.
func (s *Store) InsertIP(ctx context.Context, program string, ip store.IP) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		_, err := ensureIP(conn, id, ip.IP, ip.PTR)
		return err
	})
}

// InsertDomain records a domain and links it to its addresses, creating
// address rows as needed.
func (s *Store) InsertDomain(ctx context.Context, program string, domain store.Domain) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		err := sqlitex.Execute(conn,
			"INSERT INTO domains (program_id, domain) VALUES (?, ?) ON CONFLICT DO NOTHING",
			&sqlitex.ExecOptions{Args: []any{id, domain.Domain}})
		if err != nil {
			return err
		}
		domainID, err := rowID(conn, "SELECT id FROM domains WHERE program_id = ? AND domain = ?", id, domain.Domain)
		if err != nil {
			return err
		}
		for _, address := range domain.IPs {
			ipID, err := ensureIP(conn, id, address, "")
			if err != nil {
				return err
			}
			err = sqlitex.Execute(conn,
				"INSERT INTO domain_ips (domain_id, ip_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				&sqlitex.ExecOptions{Args: []any{domainID, ipID}})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) InsertURL(ctx context.Context, program string, url store.URL) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			INSERT INTO urls (program_id, url, title, status_code, technologies) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (program_id, url) DO UPDATE SET
				title = excluded.title, status_code = excluded.status_code, technologies = excluded.technologies`,
			&sqlitex.ExecOptions{Args: []any{id, url.URL, url.Title, url.StatusCode, encodeList(url.Technologies)}})
	})
}

func (s *Store) InsertService(ctx context.Context, program string, service store.Service) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		ipID, err := ensureIP(conn, id, service.IP, "")
		if err != nil {
			return err
		}
		return sqlitex.Execute(conn,
			"INSERT INTO services (program_id, ip, port, protocol, service) VALUES (?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{id, ipID, service.Port, service.Protocol, service.Service}})
	})
}

func (s *Store) InsertNucleiFinding(ctx context.Context, program string, finding store.NucleiFinding) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			INSERT INTO nuclei (program_id, target, template_id, name, severity, matched_at, type)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				id, finding.Target, finding.TemplateID, finding.Name, finding.Severity, finding.MatchedAt, finding.Type,
			}})
	})
}

func (s *Store) InsertCertificate(ctx context.Context, program string, certificate store.Certificate) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			INSERT INTO certificates (program_id, subject_cn, subject_an, issuer_org, serial, valid_date, expiry_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				id, certificate.SubjectCN, encodeList(certificate.SubjectAN), certificate.IssuerOrg, certificate.Serial,
				encodeTime(certificate.ValidFrom), encodeTime(certificate.ValidUntil),
			}})
	})
}

func (s *Store) InsertWebsite(ctx context.Context, program string, website store.Website) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn, `
			INSERT INTO websites (program_id, url, host, port, scheme, techs) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (program_id, url) DO UPDATE SET
				host = excluded.host, port = excluded.port, scheme = excluded.scheme, techs = excluded.techs`,
			&sqlitex.ExecOptions{Args: []any{
				id, website.URL, website.Host, website.Port, website.Scheme, encodeList(website.Techs),
			}})
	})
}

// InsertWebsitePath records a requested path, creating the website row
// when missing.
func (s *Store) InsertWebsitePath(ctx context.Context, program string, path store.WebsitePath) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		err := sqlitex.Execute(conn,
			"INSERT INTO websites (program_id, url) VALUES (?, ?) ON CONFLICT DO NOTHING",
			&sqlitex.ExecOptions{Args: []any{id, path.URL}})
		if err != nil {
			return err
		}
		websiteID, err := rowID(conn, "SELECT id FROM websites WHERE program_id = ? AND url = ?", id, path.URL)
		if err != nil {
			return err
		}
		return sqlitex.Execute(conn, `
			INSERT INTO websites_paths (program_id, website_id, path, final_path, status_code, content_type)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (website_id, path) DO UPDATE SET
				final_path = excluded.final_path, status_code = excluded.status_code,
				content_type = excluded.content_type`,
			&sqlitex.ExecOptions{Args: []any{
				id, websiteID, path.Path, path.FinalPath, path.StatusCode, path.ContentType,
			}})
	})
}

func (s *Store) InsertScreenshot(ctx context.Context, program string, screenshot store.Screenshot) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		return sqlitex.Execute(conn,
			"INSERT INTO screenshots (program_id, url, filepath, md5_hash) VALUES (?, ?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{id, screenshot.URL, screenshot.Filepath, screenshot.MD5Hash}})
	})
}

// InsertDNSRecord records a resource record under its zone's domain row,
// creating the domain when missing.
func (s *Store) InsertDNSRecord(ctx context.Context, program string, record store.DNSRecord) error {
	return s.insert(ctx, program, func(conn *sqlite.Conn, id int64) error {
		err := sqlitex.Execute(conn,
			"INSERT INTO domains (program_id, domain) VALUES (?, ?) ON CONFLICT DO NOTHING",
			&sqlitex.ExecOptions{Args: []any{id, record.Domain}})
		if err != nil {
			return err
		}
		domainID, err := rowID(conn, "SELECT id FROM domains WHERE program_id = ? AND domain = ?", id, record.Domain)
		if err != nil {
			return err
		}
		return sqlitex.Execute(conn, `
			INSERT INTO dns_records (program_id, domain_id, hostname, ttl, dns_class, dns_type, value)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				id, domainID, record.Hostname, record.TTL, record.Class, record.Type, record.Value,
			}})
	})
}

func (s *Store) insert(ctx context.Context, program string, fn func(conn *sqlite.Conn, id int64) error) error {
	return s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		id, err := programID(conn, program)
		if err != nil {
			return err
		}
		if err := fn(conn, id); err != nil {
			return fmt.Errorf("inserting into program %q: %w", program, err)
		}
		return nil
	})
}

// ensureIP returns the row id of address in program id, inserting it
// when missing.
func ensureIP(conn *sqlite.Conn, id int64, address, ptr string) (int64, error) {
	if address == "" {
		return 0, errMissingIP
	}
	var ptrArg any
	if ptr != "" {
		ptrArg = ptr
	}
	err := sqlitex.Execute(conn, `
		INSERT INTO ips (program_id, ip, ptr) VALUES (?, ?, ?)
		ON CONFLICT (program_id, ip) DO UPDATE SET ptr = coalesce(excluded.ptr, ips.ptr)`,
		&sqlitex.ExecOptions{Args: []any{id, address, ptrArg}})
	if err != nil {
		return 0, err
	}

	return rowID(conn, "SELECT id FROM ips WHERE program_id = ? AND ip = ?", id, address)
}

// rowID runs a single-column id lookup.
func rowID(conn *sqlite.Conn, query string, args ...any) (int64, error) {
	var id int64
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			id = stmt.ColumnInt64(0)
			return nil
		},
	})
	return id, err
}
