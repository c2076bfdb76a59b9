// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a named program does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists is returned when creating a program whose name is
	// taken.
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrInvalid is returned for malformed names, patterns and CIDRs.
	ErrInvalid = errors.New("store: invalid")
)

// Program is a named target scope.
type Program struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Resolution filters domains by whether they resolved to addresses,
// and IPs by whether they have a PTR record.
type Resolution int

const (
	// Any applies no resolution filter.
	Any Resolution = iota
	Resolved
	Unresolved
)

func (r Resolution) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	default:
		return "any"
	}
}

// Domain is a discovered hostname and the addresses it resolved to.
type Domain struct {
	Domain string   `json:"domain"`
	IPs    []string `json:"ips,omitempty"`
}

// IP is a discovered address and its reverse record.
type IP struct {
	IP  string `json:"ip"`
	PTR string `json:"ptr,omitempty"`
}

// URL is a fetched web endpoint.
type URL struct {
	URL          string   `json:"url"`
	Title        string   `json:"title,omitempty"`
	StatusCode   int      `json:"status_code,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Service is an open port on a discovered address.
type Service struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol,omitempty"`
	Service  string `json:"service,omitempty"`
}

// NucleiFinding is one template match reported by a nuclei scan.
type NucleiFinding struct {
	Target     string `json:"target"`
	TemplateID string `json:"template_id"`
	Name       string `json:"name,omitempty"`
	Severity   string `json:"severity"`
	MatchedAt  string `json:"matched_at,omitempty"`
	Type       string `json:"type,omitempty"`
}

// Certificate is a TLS certificate collected from a discovered host.
type Certificate struct {
	SubjectCN  string    `json:"subject_cn"`
	SubjectAN  []string  `json:"subject_an,omitempty"`
	IssuerOrg  string    `json:"issuer_org,omitempty"`
	Serial     string    `json:"serial,omitempty"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
}

// Website is a web server found on a discovered host.
type Website struct {
	URL    string   `json:"url"`
	Host   string   `json:"host,omitempty"`
	Port   int      `json:"port,omitempty"`
	Scheme string   `json:"scheme,omitempty"`
	Techs  []string `json:"techs,omitempty"`
}

// WebsitePath is a path requested on a website. URL is the website's.
type WebsitePath struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	FinalPath   string `json:"final_path,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// Screenshot is a captured page image stored by the platform.
type Screenshot struct {
	URL      string `json:"url"`
	Filepath string `json:"filepath"`
	MD5Hash  string `json:"md5_hash,omitempty"`
}

// DNSRecord is one resource record collected for a domain's zone.
type DNSRecord struct {
	Domain   string `json:"domain"`
	Hostname string `json:"hostname"`
	TTL      int    `json:"ttl"`
	Class    string `json:"dns_class"`
	Type     string `json:"dns_type"`
	Value    string `json:"value"`
}

// DropReport counts the asset rows removed per table.
type DropReport map[string]int64

// Total is the number of rows removed across all tables.
func (r DropReport) Total() int64 {
	var total int64
	for _, count := range r {
		total += count
	}
	return total
}

// AssetTables are the program-owned asset tables, in deletion order.
var AssetTables = []string{
	"nuclei", "certificates", "screenshots", "websites_paths", "websites",
	"dns_records", "services", "urls", "domains", "ips",
}

// Store is the program, scope and asset store.
//
// Methods taking a program name return an error wrapping [ErrNotFound]
// when the program does not exist. Pattern and CIDR arguments are
// validated and normalized by the backend with [ValidateScope] and
// [NormalizeCIDR].
type Store interface {
	// Programs lists every program, sorted by name.
	Programs(ctx context.Context) ([]Program, error)

	Program(ctx context.Context, name string) (Program, error)

	// AddProgram creates a program. A taken name is [ErrAlreadyExists].
	AddProgram(ctx context.Context, name string) (Program, error)

	// DeleteProgram removes a program with its scope, CIDR and asset
	// rows.
	DeleteProgram(ctx context.Context, name string) error

	// Scopes lists the program's scope patterns in insertion order.
	Scopes(ctx context.Context, program string) ([]string, error)
	AddScope(ctx context.Context, program, pattern string) (added bool, err error)
	DeleteScope(ctx context.Context, program, pattern string) (removed bool, err error)

	// CIDRs lists the program's CIDR entries in insertion order.
	CIDRs(ctx context.Context, program string) ([]string, error)
	AddCIDR(ctx context.Context, program, cidr string) (added bool, err error)
	DeleteCIDR(ctx context.Context, program, cidr string) (removed bool, err error)

	// DropAssets removes every asset row of the program and keeps the
	// program, its scope and its CIDRs.
	DropAssets(ctx context.Context, program string) (DropReport, error)

	Domains(ctx context.Context, program string, resolution Resolution) ([]Domain, error)
	IPs(ctx context.Context, program string, resolution Resolution) ([]IP, error)
	URLs(ctx context.Context, program string) ([]URL, error)
	Services(ctx context.Context, program string) ([]Service, error)

	// Nuclei lists findings, limited to one severity when severity is
	// not empty. Severity matching is case-insensitive.
	Nuclei(ctx context.Context, program, severity string) ([]NucleiFinding, error)

	Certificates(ctx context.Context, program string) ([]Certificate, error)

	Websites(ctx context.Context, program string) ([]Website, error)
	WebsitePaths(ctx context.Context, program string) ([]WebsitePath, error)
	Screenshots(ctx context.Context, program string) ([]Screenshot, error)

	// DNSRecords lists records sorted by domain, type and hostname,
	// limited to one domain when domain is not empty. Domain matching is
	// case-insensitive.
	DNSRecords(ctx context.Context, program, domain string) ([]DNSRecord, error)

	Close() error
}
