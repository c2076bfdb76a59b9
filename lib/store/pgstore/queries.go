// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/h3xrecon/h3xrecon/lib/store"
)

type programRow struct {
	ID   int64
	Name string
}

func (programRow) TableName() string { return "programs" }

type scopeRow struct {
	ID        int64
	ProgramID int64
	Regex     string
}

func (scopeRow) TableName() string { return "program_scopes" }

type cidrRow struct {
	ID        int64
	ProgramID int64
	CIDR      string `gorm:"column:cidr"`
}

func (cidrRow) TableName() string { return "program_cidrs" }

func (s *Store) Programs(ctx context.Context) ([]store.Program, error) {
	var rows []programRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	programs := make([]store.Program, 0, len(rows))
	for _, row := range rows {
		programs = append(programs, store.Program{ID: row.ID, Name: row.Name})
	}
	return programs, nil
}

func (s *Store) Program(ctx context.Context, name string) (store.Program, error) {
	id, err := programID(s.db.WithContext(ctx), name)
	if err != nil {
		return store.Program{}, err
	}
	return store.Program{ID: id, Name: name}, nil
}

func (s *Store) AddProgram(ctx context.Context, name string) (store.Program, error) {
	if err := store.ValidateProgramName(name); err != nil {
		return store.Program{}, err
	}
	row := programRow{Name: name}
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.Program{}, fmt.Errorf("program %q: %w", name, store.ErrAlreadyExists)
	}
	if err != nil {
		return store.Program{}, fmt.Errorf("adding program %q: %w", name, err)
	}
	return store.Program{ID: row.ID, Name: row.Name}, nil
}

func (s *Store) DeleteProgram(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := programID(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Where("program_id = ?", id).Delete(&scopeRow{}).Error; err != nil {
			return fmt.Errorf("deleting scopes of %q: %w", name, err)
		}
		if err := tx.Where("program_id = ?", id).Delete(&cidrRow{}).Error; err != nil {
			return fmt.Errorf("deleting cidrs of %q: %w", name, err)
		}
		if err := tx.Delete(&programRow{}, id).Error; err != nil {
			return fmt.Errorf("deleting program %q: %w", name, err)
		}
		return nil
	})
}

func (s *Store) Scopes(ctx context.Context, program string) ([]string, error) {
	return s.pluck(ctx, program, &scopeRow{}, "regex")
}

func (s *Store) AddScope(ctx context.Context, program, pattern string) (bool, error) {
	return s.addEntry(ctx, program, func(id int64) (any, string, string, error) {
		normalized, err := store.ValidateScope(pattern)
		return &scopeRow{ProgramID: id, Regex: normalized}, "regex", normalized, err
	})
}

func (s *Store) DeleteScope(ctx context.Context, program, pattern string) (bool, error) {
	return s.deleteEntry(ctx, program, &scopeRow{}, "regex", strings.TrimSpace(pattern))
}

func (s *Store) CIDRs(ctx context.Context, program string) ([]string, error) {
	return s.pluck(ctx, program, &cidrRow{}, "cidr")
}

func (s *Store) AddCIDR(ctx context.Context, program, cidr string) (bool, error) {
	return s.addEntry(ctx, program, func(id int64) (any, string, string, error) {
		normalized, err := store.NormalizeCIDR(cidr)
		return &cidrRow{ProgramID: id, CIDR: normalized}, "cidr", normalized, err
	})
}

func (s *Store) DeleteCIDR(ctx context.Context, program, cidr string) (bool, error) {
	normalized, err := store.NormalizeCIDR(cidr)
	if err != nil {
		if _, lookupErr := s.Program(ctx, program); lookupErr != nil {
			return false, lookupErr
		}
		return false, err
	}
	return s.deleteEntry(ctx, program, &cidrRow{}, "cidr", normalized)
}

func (s *Store) DropAssets(ctx context.Context, program string) (store.DropReport, error) {
	report := make(store.DropReport, len(store.AssetTables))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := programID(tx, program)
		if err != nil {
			return err
		}
		for _, table := range store.AssetTables {
			result := tx.Exec("DELETE FROM "+table+" WHERE program_id = ?", id)
			if result.Error != nil {
				return fmt.Errorf("dropping %s of %q: %w", table, program, result.Error)
			}
			report[table] = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

type domainRow struct {
	Domain string
	IPs    string `gorm:"column:ips"`
}

func (s *Store) Domains(ctx context.Context, program string, resolution store.Resolution) ([]store.Domain, error) {
	query := `
		SELECT d.domain, coalesce(string_agg(i.ip::text, ',' ORDER BY i.id), '') AS ips
		FROM domains d
		LEFT JOIN ips i ON i.id = ANY(d.ips)
		WHERE d.program_id = ?
		GROUP BY d.id, d.domain`
	switch resolution {
	case store.Resolved:
		query += " HAVING count(i.id) > 0"
	case store.Unresolved:
		query += " HAVING count(i.id) = 0"
	}
	query += " ORDER BY d.domain"

	var rows []domainRow
	if err := s.raw(ctx, program, query, &rows); err != nil {
		return nil, err
	}
	domains := make([]store.Domain, 0, len(rows))
	for _, row := range rows {
		domains = append(domains, store.Domain{Domain: row.Domain, IPs: splitAddresses(row.IPs)})
	}
	return domains, nil
}

type ipRow struct {
	IP  string `gorm:"column:ip"`
	PTR string `gorm:"column:ptr"`
}

func (s *Store) IPs(ctx context.Context, program string, resolution store.Resolution) ([]store.IP, error) {
	query := "SELECT i.ip::text AS ip, coalesce(i.ptr, '') AS ptr FROM ips i WHERE i.program_id = ?"
	switch resolution {
	case store.Resolved:
		query += " AND i.ptr IS NOT NULL AND i.ptr != ''"
	case store.Unresolved:
		query += " AND (i.ptr IS NULL OR i.ptr = '')"
	}
	query += " ORDER BY i.id"

	var rows []ipRow
	if err := s.raw(ctx, program, query, &rows); err != nil {
		return nil, err
	}
	ips := make([]store.IP, 0, len(rows))
	for _, row := range rows {
		ips = append(ips, store.IP{IP: trimHostMask(row.IP), PTR: row.PTR})
	}
	return ips, nil
}

type urlRow struct {
	URL          string `gorm:"column:url"`
	Title        string
	StatusCode   int
	Technologies string
}

func (s *Store) URLs(ctx context.Context, program string) ([]store.URL, error) {
	query := `
		SELECT u.url,
		       coalesce(u.httpx_data->>'title', '') AS title,
		       coalesce(nullif(u.httpx_data->>'status_code', '')::int, 0) AS status_code,
		       coalesce(u.httpx_data->'tech', '[]'::jsonb)::text AS technologies
		FROM urls u
		WHERE u.program_id = ?
		ORDER BY u.url`

	var rows []urlRow
	if err := s.raw(ctx, program, query, &rows); err != nil {
		return nil, err
	}
	urls := make([]store.URL, 0, len(rows))
	for _, row := range rows {
		url := store.URL{URL: row.URL, Title: row.Title, StatusCode: row.StatusCode}
		if err := json.Unmarshal([]byte(row.Technologies), &url.Technologies); err != nil {
			return nil, fmt.Errorf("url %s technologies: %w", row.URL, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

type serviceRow struct {
	IP       string `gorm:"column:ip"`
	Port     int
	Protocol string
	Service  string
}

func (s *Store) Services(ctx context.Context, program string) ([]store.Service, error) {
	query := `
		SELECT i.ip::text AS ip, s.port, coalesce(s.protocol, '') AS protocol, coalesce(s.service, '') AS service
		FROM services s
		JOIN ips i ON s.ip = i.id
		WHERE s.program_id = ?
		ORDER BY i.ip, s.port`

	var rows []serviceRow
	if err := s.raw(ctx, program, query, &rows); err != nil {
		return nil, err
	}
	services := make([]store.Service, 0, len(rows))
	for _, row := range rows {
		services = append(services, store.Service{
			IP: trimHostMask(row.IP), Port: row.Port, Protocol: row.Protocol, Service: row.Service,
		})
	}
	return services, nil
}

type nucleiRow struct {
	Target     string
	TemplateID string
	Name       string
	Severity   string
	MatchedAt  string
	Type       string
}

func (s *Store) Nuclei(ctx context.Context, program, severity string) ([]store.NucleiFinding, error) {
	query := `
		SELECT target, template_id, coalesce(name, '') AS name, severity,
		       coalesce(matched_at::text, '') AS matched_at, coalesce(type, '') AS type
		FROM nuclei
		WHERE program_id = ?`
	args := []any{}
	if severity != "" {
		query += " AND lower(severity) = lower(?)"
		args = append(args, severity)
	}
	query += " ORDER BY id"

	var rows []nucleiRow
	if err := s.raw(ctx, program, query, &rows, args...); err != nil {
		return nil, err
	}
	findings := make([]store.NucleiFinding, 0, len(rows))
	for _, row := range rows {
		findings = append(findings, store.NucleiFinding(row))
	}
	return findings, nil
}

type certificateRow struct {
	SubjectCN  string `gorm:"column:subject_cn"`
	SubjectAN  string `gorm:"column:subject_an"`
	IssuerOrg  string
	Serial     string
	ValidDate  *time.Time
	ExpiryDate *time.Time
}

func (s *Store) Certificates(ctx context.Context, program string) ([]store.Certificate, error) {
	query := `
		SELECT subject_cn, coalesce(array_to_string(subject_an, ','), '') AS subject_an,
		       coalesce(issuer_org, '') AS issuer_org, coalesce(serial, '') AS serial,
		       valid_date, expiry_date
		FROM certificates
		WHERE program_id = ?
		ORDER BY subject_cn`

	var rows []certificateRow
	if err := s.raw(ctx, program, query, &rows); err != nil {
		return nil, err
	}
	certificates := make([]store.Certificate, 0, len(rows))
	for _, row := range rows {
		certificate := store.Certificate{
			SubjectCN: row.SubjectCN,
			IssuerOrg: row.IssuerOrg,
			Serial:    row.Serial,
		}
		if row.SubjectAN != "" {
			certificate.SubjectAN = strings.Split(row.SubjectAN, ",")
		}
		if row.ValidDate != nil {
			certificate.ValidFrom = row.ValidDate.UTC()
		}
		if row.ExpiryDate != nil {
			certificate.ValidUntil = row.ExpiryDate.UTC()
		}
		certificates = append(certificates, certificate)
	}
	return certificates, nil
}

type websiteRow struct {
	URL    string `gorm:"column:url"`
	Host   string
	Port   int
	Scheme string
	Techs  string
}

func (s *Store) Websites(ctx context.Context, program string) ([]store.Website, error) {
	query := `
		SELECT url, coalesce(host, '') AS host, coalesce(port, 0) AS port, coalesce(scheme, '') AS scheme,
		       coalesce(array_to_string(techs, ','), '') AS techs
		FROM websites
		WHERE program_id = ?
		ORDER BY url`

	var rows []websiteRow
	if err := s.raw(ctx, program, query, &rows); err != nil {
		return nil, err
	}
	websites := make([]store.Website, 0, len(rows))
	for _, row := range rows {
		website := store.Website{URL: row.URL, Host: row.Host, Port: row.Port, Scheme: row.Scheme}
		if row.Techs != "" {
			website.Techs = strings.Split(row.Techs, ",")
		}
		websites = append(websites, website)
	}
	return websites, nil
}

type websitePathRow struct {
	URL         string `gorm:"column:url"`
	Path        string
	FinalPath   string
	StatusCode  int
	ContentType string
}

func (s *Store) WebsitePaths(ctx context.Context, program string) ([]store.WebsitePath, error) {
	query := `
		SELECT w.url, p.path, coalesce(p.final_path, '') AS final_path,
		       coalesce(p.status_code, 0) AS status_code, coalesce(p.content_type, '') AS content_type
		FROM websites_paths p
		JOIN websites w ON p.website_id = w.id
		WHERE p.program_id = ?
		ORDER BY w.url, p.path`

	var rows []websitePathRow
	if err := s.raw(ctx, program, query, &rows); err != nil {
		return nil, err
	}
	paths := make([]store.WebsitePath, 0, len(rows))
	for _, row := range rows {
		paths = append(paths, store.WebsitePath(row))
	}
	return paths, nil
}

type screenshotRow struct {
	URL      string `gorm:"column:url"`
	Filepath string
	MD5Hash  string `gorm:"column:md5_hash"`
}

func (s *Store) Screenshots(ctx context.Context, program string) ([]store.Screenshot, error) {
	query := `
		SELECT url, filepath, coalesce(md5_hash, '') AS md5_hash
		FROM screenshots
		WHERE program_id = ?
		ORDER BY url`

	var rows []screenshotRow
	if err := s.raw(ctx, program, query, &rows); err != nil {
		return nil, err
	}
	screenshots := make([]store.Screenshot, 0, len(rows))
	for _, row := range rows {
		screenshots = append(screenshots, store.Screenshot(row))
	}
	return screenshots, nil
}

type dnsRecordRow struct {
	Domain   string
	Hostname string
	TTL      int `gorm:"column:ttl"`
	DNSClass string `gorm:"column:dns_class"`
	DNSType  string `gorm:"column:dns_type"`
	Value    string
}

func (s *Store) DNSRecords(ctx context.Context, program, domain string) ([]store.DNSRecord, error) {
	query := `
		SELECT d.domain, r.hostname, coalesce(r.ttl, 0) AS ttl, coalesce(r.dns_class, 'IN') AS dns_class,
		       r.dns_type, r.value
		FROM dns_records r
		JOIN domains d ON r.domain_id = d.id
		WHERE r.program_id = ?`
	args := []any{}
	if domain != "" {
		query += " AND lower(d.domain) = lower(?)"
		args = append(args, domain)
	}
	query += " ORDER BY d.domain, r.dns_type, r.hostname"

	var rows []dnsRecordRow
	if err := s.raw(ctx, program, query, &rows, args...); err != nil {
		return nil, err
	}
	records := make([]store.DNSRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, store.DNSRecord{
			Domain:   row.Domain,
			Hostname: row.Hostname,
			TTL:      row.TTL,
			Class:    row.DNSClass,
			Type:     row.DNSType,
			Value:    row.Value,
		})
	}
	return records, nil
}

// raw resolves program and scans query into dest. The program id is the
// first query argument, followed by args.
func (s *Store) raw(ctx context.Context, program, query string, dest any, args ...any) error {
	db := s.db.WithContext(ctx)
	id, err := programID(db, program)
	if err != nil {
		return err
	}
	if err := db.Raw(query, append([]any{id}, args...)...).Scan(dest).Error; err != nil {
		return fmt.Errorf("querying program %q: %w", program, err)
	}
	return nil
}

func (s *Store) pluck(ctx context.Context, program string, model any, column string) ([]string, error) {
	db := s.db.WithContext(ctx)
	id, err := programID(db, program)
	if err != nil {
		return nil, err
	}
	var values []string
	err = db.Model(model).Where("program_id = ?", id).Order("id").Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("listing %s of %q: %w", column, program, err)
	}
	return values, nil
}

// addEntry inserts the row built by build unless an equal entry exists.
// build returns the row, the column compared for equality and the
// normalized value.
func (s *Store) addEntry(ctx context.Context, program string, build func(id int64) (any, string, string, error)) (bool, error) {
	added := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := programID(tx, program)
		if err != nil {
			return err
		}
		row, column, value, err := build(id)
		if err != nil {
			return err
		}

		var existing int64
		err = tx.Model(row).Where("program_id = ? AND "+column+" = ?", id, value).Count(&existing).Error
		if err != nil {
			return fmt.Errorf("checking %s of %q: %w", column, program, err)
		}
		if existing > 0 {
			return nil
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if result.Error != nil {
			return fmt.Errorf("adding %s to %q: %w", column, program, result.Error)
		}
		added = result.RowsAffected > 0
		return nil
	})
	return added, err
}

func (s *Store) deleteEntry(ctx context.Context, program string, model any, column, value string) (bool, error) {
	db := s.db.WithContext(ctx)
	id, err := programID(db, program)
	if err != nil {
		return false, err
	}
	result := db.Where("program_id = ? AND "+column+" = ?", id, value).Delete(model)
	if result.Error != nil {
		return false, fmt.Errorf("deleting %s from %q: %w", column, program, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func programID(db *gorm.DB, name string) (int64, error) {
	var row programRow
	err := db.Select("id").Where("name = ?", name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, store.NotFound(name)
	}
	if err != nil {
		return 0, fmt.Errorf("looking up program %q: %w", name, err)
	}
	return row.ID, nil
}

// splitAddresses splits the aggregated address list of a domain.
func splitAddresses(joined string) []string {
	if joined == "" {
		return nil
	}
	addresses := strings.Split(joined, ",")
	for index, address := range addresses {
		addresses[index] = trimHostMask(address)
	}
	return addresses
}

// trimHostMask removes the /32 or /128 suffix Postgres prints when an
// inet column is cast to text.
func trimHostMask(address string) string {
	if trimmed, found := strings.CutSuffix(address, "/32"); found {
		return trimmed
	}
	if trimmed, found := strings.CutSuffix(address, "/128"); found {
		return trimmed
	}
	return address
}
