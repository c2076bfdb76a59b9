// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package storetest is the conformance suite for [store.Store]
// implementations.
//
// A backend test calls [Run] with a factory returning a fresh, empty
// store and a [Seeder] that writes asset rows into it, standing in for
// the platform's data processors.
package storetest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/h3xrecon/h3xrecon/lib/store"
)

// Seeder writes asset rows for a program.
type Seeder interface {
	InsertDomain(ctx context.Context, program string, domain store.Domain) error
	InsertIP(ctx context.Context, program string, ip store.IP) error
	InsertURL(ctx context.Context, program string, url store.URL) error
	InsertService(ctx context.Context, program string, service store.Service) error
	InsertNucleiFinding(ctx context.Context, program string, finding store.NucleiFinding) error
	InsertCertificate(ctx context.Context, program string, certificate store.Certificate) error
	InsertWebsite(ctx context.Context, program string, website store.Website) error
	InsertWebsitePath(ctx context.Context, program string, path store.WebsitePath) error
	InsertScreenshot(ctx context.Context, program string, screenshot store.Screenshot) error
	InsertDNSRecord(ctx context.Context, program string, record store.DNSRecord) error
}

// Factory returns an empty store and its seeder. Cleanup is registered
// on t by the factory.
type Factory func(t *testing.T) (store.Store, Seeder)

// Run executes the conformance suite.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(*testing.T, store.Store, Seeder)
	}{
		{"Programs", testPrograms},
		{"ProgramNotFound", testProgramNotFound},
		{"ScopeScenario", testScopeScenario},
		{"ScopeSet", testScopeSet},
		{"CIDRSet", testCIDRSet},
		{"DeleteCascades", testDeleteCascades},
		{"Import", testImport},
		{"Assets", testAssets},
		{"WebAssets", testWebAssets},
		{"DNSRecords", testDNSRecords},
		{"DropAssets", testDropAssets},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, seeder := open(t)
			test.fn(t, s, seeder)
		})
	}
}

func testPrograms(t *testing.T, s store.Store, _ Seeder) {
	ctx := context.Background()
	for _, name := range []string{"globex", "acme", "initech"} {
		program, err := s.AddProgram(ctx, name)
		if err != nil {
			t.Fatalf("AddProgram(%s): %v", name, err)
		}
		if program.ID == 0 || program.Name != name {
			t.Errorf("AddProgram(%s) = %+v", name, program)
		}
	}

	if _, err := s.AddProgram(ctx, "acme"); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate AddProgram: got %v, want ErrAlreadyExists", err)
	}
	if _, err := s.AddProgram(ctx, "two words"); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("invalid AddProgram: got %v, want ErrInvalid", err)
	}

	programs, err := s.Programs(ctx)
	if err != nil {
		t.Fatalf("Programs: %v", err)
	}
	var names []string
	for _, program := range programs {
		names = append(names, program.Name)
	}
	if !slices.Equal(names, []string{"acme", "globex", "initech"}) {
		t.Errorf("Programs sorted by name: got %v", names)
	}

	acme, err := s.Program(ctx, "acme")
	if err != nil {
		t.Fatalf("Program(acme): %v", err)
	}
	if acme.ID != programs[0].ID {
		t.Errorf("Program(acme).ID = %d, want %d", acme.ID, programs[0].ID)
	}
}

func testProgramNotFound(t *testing.T, s store.Store, _ Seeder) {
	ctx := context.Background()
	checks := map[string]error{}
	_, checks["Program"] = s.Program(ctx, "ghost")
	checks["DeleteProgram"] = s.DeleteProgram(ctx, "ghost")
	_, checks["Scopes"] = s.Scopes(ctx, "ghost")
	_, checks["AddScope"] = s.AddScope(ctx, "ghost", "x")
	_, checks["DeleteCIDR"] = s.DeleteCIDR(ctx, "ghost", "10.0.0.0/8")
	_, checks["DropAssets"] = s.DropAssets(ctx, "ghost")
	_, checks["Domains"] = s.Domains(ctx, "ghost", store.Any)
	_, checks["Nuclei"] = s.Nuclei(ctx, "ghost", "")
	_, checks["Websites"] = s.Websites(ctx, "ghost")
	_, checks["DNSRecords"] = s.DNSRecords(ctx, "ghost", "")

	for operation, err := range checks {
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("%s on unknown program: got %v, want ErrNotFound", operation, err)
			continue
		}
		if !strings.Contains(err.Error(), `"ghost"`) {
			t.Errorf("%s error should name the program: %v", operation, err)
		}
	}
}

func testScopeScenario(t *testing.T, s store.Store, _ Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")

	added, err := s.AddScope(ctx, "acme", `.*\.acme\.com`)
	if err != nil || !added {
		t.Fatalf("AddScope: added=%v err=%v", added, err)
	}
	scopes, err := s.Scopes(ctx, "acme")
	if err != nil {
		t.Fatalf("Scopes: %v", err)
	}
	if !slices.Equal(scopes, []string{`.*\.acme\.com`}) {
		t.Errorf("Scopes = %q, want exactly [.*\\.acme\\.com]", scopes)
	}
}

func testScopeSet(t *testing.T, s store.Store, _ Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")
	mustAddProgram(t, s, "globex")

	for _, pattern := range []string{`^api\.acme\.com$`, `.*\.acme\.com`} {
		if _, err := s.AddScope(ctx, "acme", pattern); err != nil {
			t.Fatalf("AddScope(%s): %v", pattern, err)
		}
	}
	added, err := s.AddScope(ctx, "acme", `.*\.acme\.com`)
	if err != nil || added {
		t.Errorf("duplicate AddScope: added=%v err=%v, want no-op", added, err)
	}
	// Scope entries are per program.
	if added, _ := s.AddScope(ctx, "globex", `.*\.acme\.com`); !added {
		t.Error("same pattern in another program should be added")
	}
	if _, err := s.AddScope(ctx, "acme", "(broken"); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("invalid pattern: got %v, want ErrInvalid", err)
	}

	scopes, _ := s.Scopes(ctx, "acme")
	if !slices.Equal(scopes, []string{`^api\.acme\.com$`, `.*\.acme\.com`}) {
		t.Errorf("Scopes in insertion order: got %q", scopes)
	}

	removed, err := s.DeleteScope(ctx, "acme", `^api\.acme\.com$`)
	if err != nil || !removed {
		t.Errorf("DeleteScope: removed=%v err=%v", removed, err)
	}
	removed, err = s.DeleteScope(ctx, "acme", `^api\.acme\.com$`)
	if err != nil || removed {
		t.Errorf("second DeleteScope: removed=%v err=%v, want idempotent no-op", removed, err)
	}
	scopes, _ = s.Scopes(ctx, "acme")
	if !slices.Equal(scopes, []string{`.*\.acme\.com`}) {
		t.Errorf("Scopes after delete: got %q", scopes)
	}
}

func testCIDRSet(t *testing.T, s store.Store, _ Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")

	if added, err := s.AddCIDR(ctx, "acme", "10.0.0.5/24"); err != nil || !added {
		t.Fatalf("AddCIDR: added=%v err=%v", added, err)
	}
	if added, err := s.AddCIDR(ctx, "acme", "10.0.0.0/24"); err != nil || added {
		t.Errorf("equivalent AddCIDR: added=%v err=%v, want no-op", added, err)
	}
	if added, err := s.AddCIDR(ctx, "acme", "192.0.2.7"); err != nil || !added {
		t.Errorf("bare address AddCIDR: added=%v err=%v", added, err)
	}
	if _, err := s.AddCIDR(ctx, "acme", "not-a-cidr"); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("invalid cidr: got %v, want ErrInvalid", err)
	}

	cidrs, err := s.CIDRs(ctx, "acme")
	if err != nil {
		t.Fatalf("CIDRs: %v", err)
	}
	if !slices.Equal(cidrs, []string{"10.0.0.0/24", "192.0.2.7/32"}) {
		t.Errorf("CIDRs = %q", cidrs)
	}

	if removed, err := s.DeleteCIDR(ctx, "acme", "192.0.2.7"); err != nil || !removed {
		t.Errorf("DeleteCIDR: removed=%v err=%v", removed, err)
	}
	if removed, err := s.DeleteCIDR(ctx, "acme", "192.0.2.7"); err != nil || removed {
		t.Errorf("second DeleteCIDR: removed=%v err=%v", removed, err)
	}
}

func testDeleteCascades(t *testing.T, s store.Store, seeder Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")
	s.AddScope(ctx, "acme", `.*\.acme\.com`)
	s.AddCIDR(ctx, "acme", "10.0.0.0/24")
	mustSeed(t, seeder.InsertDomain(ctx, "acme", store.Domain{Domain: "www.acme.com"}))

	if err := s.DeleteProgram(ctx, "acme"); err != nil {
		t.Fatalf("DeleteProgram: %v", err)
	}
	if err := s.DeleteProgram(ctx, "acme"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteProgram: got %v, want ErrNotFound", err)
	}

	// A new program with the same name starts empty.
	mustAddProgram(t, s, "acme")
	scopes, _ := s.Scopes(ctx, "acme")
	cidrs, _ := s.CIDRs(ctx, "acme")
	domains, _ := s.Domains(ctx, "acme", store.Any)
	if len(scopes) != 0 || len(cidrs) != 0 || len(domains) != 0 {
		t.Errorf("recreated program inherited rows: scopes=%v cidrs=%v domains=%v", scopes, cidrs, domains)
	}
}

func testImport(t *testing.T, s store.Store, _ Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")
	s.AddScope(ctx, "acme", `.*\.acme\.com`)

	document, err := store.ParseImport(strings.NewReader(`
programs:
  - name: acme
    scope: ['.*\.acme\.com', '.*\.acme\.net', '(bad']
    cidr: [10.0.0.0/24]
  - name: globex
    scope: ['.*\.globex\.com']
`))
	if err != nil {
		t.Fatalf("ParseImport: %v", err)
	}

	reports, err := store.Import(ctx, s, document)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := []store.ImportReport{
		{Program: "acme", ScopesAdded: 1, CIDRsAdded: 1, Invalid: []string{"(bad"}},
		{Program: "globex", Created: true, ScopesAdded: 1},
	}
	if !sameReports(reports, want) {
		t.Errorf("first import:\n got %+v\nwant %+v", reports, want)
	}

	reports, err = store.Import(ctx, s, document)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	want = []store.ImportReport{
		{Program: "acme", Invalid: []string{"(bad"}},
		{Program: "globex"},
	}
	if !sameReports(reports, want) {
		t.Errorf("second import should change nothing:\n got %+v\nwant %+v", reports, want)
	}

	scopes, _ := s.Scopes(ctx, "acme")
	if !slices.Equal(scopes, []string{`.*\.acme\.com`, `.*\.acme\.net`}) {
		t.Errorf("acme scopes after import: %q", scopes)
	}
}

func testAssets(t *testing.T, s store.Store, seeder Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")
	mustAddProgram(t, s, "globex")

	mustSeed(t, seeder.InsertIP(ctx, "acme", store.IP{IP: "10.0.0.1", PTR: "www.acme.com"}))
	mustSeed(t, seeder.InsertIP(ctx, "acme", store.IP{IP: "10.0.0.2"}))
	mustSeed(t, seeder.InsertDomain(ctx, "acme", store.Domain{Domain: "www.acme.com", IPs: []string{"10.0.0.1"}}))
	mustSeed(t, seeder.InsertDomain(ctx, "acme", store.Domain{Domain: "dev.acme.com"}))
	mustSeed(t, seeder.InsertDomain(ctx, "globex", store.Domain{Domain: "www.globex.com"}))
	mustSeed(t, seeder.InsertURL(ctx, "acme", store.URL{
		URL: "https://www.acme.com/", Title: "Acme", StatusCode: 200, Technologies: []string{"nginx", "react"},
	}))
	mustSeed(t, seeder.InsertService(ctx, "acme", store.Service{IP: "10.0.0.1", Port: 443, Protocol: "tcp", Service: "https"}))
	mustSeed(t, seeder.InsertNucleiFinding(ctx, "acme", store.NucleiFinding{
		Target: "https://www.acme.com/", TemplateID: "tech-detect", Severity: "info",
	}))
	mustSeed(t, seeder.InsertNucleiFinding(ctx, "acme", store.NucleiFinding{
		Target: "https://www.acme.com/.git", TemplateID: "git-config", Name: "Git Config", Severity: "medium",
	}))
	validFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mustSeed(t, seeder.InsertCertificate(ctx, "acme", store.Certificate{
		SubjectCN: "www.acme.com", SubjectAN: []string{"www.acme.com", "acme.com"}, IssuerOrg: "Let's Encrypt",
		Serial: "04:aa", ValidFrom: validFrom, ValidUntil: validFrom.AddDate(0, 3, 0),
	}))

	domains, err := s.Domains(ctx, "acme", store.Any)
	if err != nil {
		t.Fatalf("Domains: %v", err)
	}
	if len(domains) != 2 {
		t.Errorf("Domains(any) = %+v, want 2 program-scoped rows", domains)
	}
	resolved, _ := s.Domains(ctx, "acme", store.Resolved)
	if len(resolved) != 1 || resolved[0].Domain != "www.acme.com" || !slices.Equal(resolved[0].IPs, []string{"10.0.0.1"}) {
		t.Errorf("Domains(resolved) = %+v", resolved)
	}
	unresolved, _ := s.Domains(ctx, "acme", store.Unresolved)
	if len(unresolved) != 1 || unresolved[0].Domain != "dev.acme.com" {
		t.Errorf("Domains(unresolved) = %+v", unresolved)
	}

	withPTR, _ := s.IPs(ctx, "acme", store.Resolved)
	if len(withPTR) != 1 || withPTR[0].PTR != "www.acme.com" {
		t.Errorf("IPs(resolved) = %+v", withPTR)
	}
	withoutPTR, _ := s.IPs(ctx, "acme", store.Unresolved)
	if len(withoutPTR) != 1 || withoutPTR[0].IP != "10.0.0.2" {
		t.Errorf("IPs(unresolved) = %+v", withoutPTR)
	}

	urls, _ := s.URLs(ctx, "acme")
	if len(urls) != 1 || urls[0].StatusCode != 200 || !slices.Equal(urls[0].Technologies, []string{"nginx", "react"}) {
		t.Errorf("URLs = %+v", urls)
	}
	services, _ := s.Services(ctx, "acme")
	if len(services) != 1 || services[0].IP != "10.0.0.1" || services[0].Port != 443 {
		t.Errorf("Services = %+v", services)
	}

	all, _ := s.Nuclei(ctx, "acme", "")
	medium, _ := s.Nuclei(ctx, "acme", "MEDIUM")
	if len(all) != 2 || len(medium) != 1 || medium[0].TemplateID != "git-config" {
		t.Errorf("Nuclei: all=%+v medium=%+v", all, medium)
	}

	certificates, _ := s.Certificates(ctx, "acme")
	if len(certificates) != 1 || !certificates[0].ValidFrom.Equal(validFrom) || len(certificates[0].SubjectAN) != 2 {
		t.Errorf("Certificates = %+v", certificates)
	}
}

func testWebAssets(t *testing.T, s store.Store, seeder Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")

	mustSeed(t, seeder.InsertWebsite(ctx, "acme", store.Website{
		URL: "https://www.acme.com", Host: "www.acme.com", Port: 443, Scheme: "https", Techs: []string{"nginx"},
	}))
	mustSeed(t, seeder.InsertWebsitePath(ctx, "acme", store.WebsitePath{
		URL: "https://www.acme.com", Path: "/login", FinalPath: "/login/", StatusCode: 301, ContentType: "text/html",
	}))
	// A path on a website not seen yet creates the website.
	mustSeed(t, seeder.InsertWebsitePath(ctx, "acme", store.WebsitePath{
		URL: "http://dev.acme.com:8080", Path: "/", StatusCode: 200,
	}))
	mustSeed(t, seeder.InsertScreenshot(ctx, "acme", store.Screenshot{
		URL: "https://www.acme.com", Filepath: "/screenshots/acme/www.png", MD5Hash: "d41d8cd98f00b204e9800998ecf8427e",
	}))

	websites, err := s.Websites(ctx, "acme")
	if err != nil {
		t.Fatalf("Websites: %v", err)
	}
	if len(websites) != 2 || websites[1].URL != "https://www.acme.com" || websites[1].Port != 443 ||
		!slices.Equal(websites[1].Techs, []string{"nginx"}) {
		t.Errorf("Websites = %+v", websites)
	}

	paths, err := s.WebsitePaths(ctx, "acme")
	if err != nil {
		t.Fatalf("WebsitePaths: %v", err)
	}
	want := []store.WebsitePath{
		{URL: "http://dev.acme.com:8080", Path: "/", StatusCode: 200},
		{URL: "https://www.acme.com", Path: "/login", FinalPath: "/login/", StatusCode: 301, ContentType: "text/html"},
	}
	if !slices.Equal(paths, want) {
		t.Errorf("WebsitePaths:\n got %+v\nwant %+v", paths, want)
	}

	screenshots, err := s.Screenshots(ctx, "acme")
	if err != nil {
		t.Fatalf("Screenshots: %v", err)
	}
	if len(screenshots) != 1 || screenshots[0].Filepath != "/screenshots/acme/www.png" {
		t.Errorf("Screenshots = %+v", screenshots)
	}

	report, err := s.DropAssets(ctx, "acme")
	if err != nil {
		t.Fatalf("DropAssets: %v", err)
	}
	if report["websites"] != 2 || report["websites_paths"] != 2 || report["screenshots"] != 1 {
		t.Errorf("DropAssets report = %v", report)
	}
}

func testDNSRecords(t *testing.T, s store.Store, seeder Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")

	for _, record := range []store.DNSRecord{
		{Domain: "acme.com", Hostname: "www.acme.com", TTL: 300, Class: "IN", Type: "CNAME", Value: "acme.com"},
		{Domain: "acme.com", Hostname: "acme.com", TTL: 300, Class: "IN", Type: "A", Value: "10.0.0.1"},
		{Domain: "acme.com", Hostname: "acme.com", TTL: 3600, Class: "IN", Type: "MX", Value: "10 mail.acme.com"},
		{Domain: "acme.net", Hostname: "acme.net", TTL: 60, Class: "IN", Type: "A", Value: "10.0.1.1"},
	} {
		mustSeed(t, seeder.InsertDNSRecord(ctx, "acme", record))
	}

	records, err := s.DNSRecords(ctx, "acme", "")
	if err != nil {
		t.Fatalf("DNSRecords: %v", err)
	}
	var got []string
	for _, record := range records {
		got = append(got, record.Domain+" "+record.Type+" "+record.Hostname)
	}
	want := []string{
		"acme.com A acme.com",
		"acme.com CNAME www.acme.com",
		"acme.com MX acme.com",
		"acme.net A acme.net",
	}
	if !slices.Equal(got, want) {
		t.Errorf("DNSRecords sorted by domain, type, hostname:\n got %q\nwant %q", got, want)
	}

	filtered, err := s.DNSRecords(ctx, "acme", "ACME.net")
	if err != nil {
		t.Fatalf("DNSRecords(acme.net): %v", err)
	}
	if len(filtered) != 1 || filtered[0].Value != "10.0.1.1" || filtered[0].TTL != 60 {
		t.Errorf("DNSRecords(acme.net) = %+v", filtered)
	}
	if none, _ := s.DNSRecords(ctx, "acme", "globex.com"); len(none) != 0 {
		t.Errorf("DNSRecords for an unknown zone = %+v", none)
	}

	// The zones are recorded as domains of the program.
	if domains, _ := s.Domains(ctx, "acme", store.Any); len(domains) != 2 {
		t.Errorf("Domains = %+v", domains)
	}
}

func testDropAssets(t *testing.T, s store.Store, seeder Seeder) {
	ctx := context.Background()
	mustAddProgram(t, s, "acme")
	mustAddProgram(t, s, "globex")
	s.AddScope(ctx, "acme", `.*\.acme\.com`)
	mustSeed(t, seeder.InsertDomain(ctx, "acme", store.Domain{Domain: "www.acme.com"}))
	mustSeed(t, seeder.InsertDomain(ctx, "acme", store.Domain{Domain: "dev.acme.com"}))
	mustSeed(t, seeder.InsertIP(ctx, "acme", store.IP{IP: "10.0.0.1"}))
	mustSeed(t, seeder.InsertDomain(ctx, "globex", store.Domain{Domain: "www.globex.com"}))

	report, err := s.DropAssets(ctx, "acme")
	if err != nil {
		t.Fatalf("DropAssets: %v", err)
	}
	if report["domains"] != 2 || report["ips"] != 1 || report.Total() != 3 {
		t.Errorf("DropAssets report = %v", report)
	}

	if domains, _ := s.Domains(ctx, "acme", store.Any); len(domains) != 0 {
		t.Errorf("acme domains survived the drop: %+v", domains)
	}
	if domains, _ := s.Domains(ctx, "globex", store.Any); len(domains) != 1 {
		t.Errorf("drop touched another program: %+v", domains)
	}
	if scopes, _ := s.Scopes(ctx, "acme"); len(scopes) != 1 {
		t.Errorf("drop removed scope entries: %q", scopes)
	}
}

func mustAddProgram(t *testing.T, s store.Store, name string) {
	t.Helper()
	if _, err := s.AddProgram(context.Background(), name); err != nil {
		t.Fatalf("AddProgram(%s): %v", name, err)
	}
}

func mustSeed(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}
}

func sameReports(got, want []store.ImportReport) bool {
	if len(got) != len(want) {
		return false
	}
	for index := range got {
		g, w := got[index], want[index]
		if g.Program != w.Program || g.Created != w.Created || g.ScopesAdded != w.ScopesAdded ||
			g.CIDRsAdded != w.CIDRsAdded || !slices.Equal(g.Invalid, w.Invalid) {
			return false
		}
	}
	return true
}
