// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/h3xrecon/h3xrecon/lib/display"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

// query is the filter set of one list or show invocation.
type query struct {
	program    string
	resolution store.Resolution
	severity   string
	domain     string
}

// assetKind describes one asset table: how to fetch it and render its
// rows.
type assetKind struct {
	name string

	// resolution, severity and domain report which filters the kind
	// accepts.
	resolution bool
	severity   bool
	domain     bool

	// fetch returns the rows as records and as the value emitted by
	// --json.
	fetch func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error)

	// write, when set, replaces the table of "show" with a custom
	// rendering of the value returned by fetch.
	write func(w io.Writer, value any) error
}

var assetKinds = []assetKind{
	{
		name:       "domains",
		resolution: true,
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			domains, err := s.Domains(ctx, q.program, q.resolution)
			records := make([]display.Record, len(domains))
			for i, domain := range domains {
				records[i] = display.Row{
					{Name: "domain", Value: domain.Domain},
					{Name: "ips", Value: strings.Join(domain.IPs, ", ")},
				}
			}
			return records, domains, err
		},
	},
	{
		name:       "ips",
		resolution: true,
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			ips, err := s.IPs(ctx, q.program, q.resolution)
			records := make([]display.Record, len(ips))
			for i, ip := range ips {
				records[i] = display.Row{
					{Name: "ip", Value: ip.IP},
					{Name: "ptr", Value: ip.PTR},
				}
			}
			return records, ips, err
		},
	},
	{
		name: "urls",
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			urls, err := s.URLs(ctx, q.program)
			records := make([]display.Record, len(urls))
			for i, url := range urls {
				records[i] = display.Row{
					{Name: "url", Value: url.URL},
					{Name: "status", Value: optionalInt(url.StatusCode)},
					{Name: "title", Value: url.Title},
					{Name: "technologies", Value: strings.Join(url.Technologies, ", ")},
				}
			}
			return records, urls, err
		},
	},
	{
		name: "services",
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			services, err := s.Services(ctx, q.program)
			records := make([]display.Record, len(services))
			for i, service := range services {
				records[i] = display.Row{
					{Name: "endpoint", Value: endpoint(service.IP, service.Port)},
					{Name: "protocol", Value: service.Protocol},
					{Name: "service", Value: service.Service},
				}
			}
			return records, services, err
		},
	},
	{
		name:     "nuclei",
		severity: true,
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			findings, err := s.Nuclei(ctx, q.program, q.severity)
			records := make([]display.Record, len(findings))
			for i, finding := range findings {
				records[i] = display.Row{
					{Name: "target", Value: finding.Target},
					{Name: "template", Value: finding.TemplateID},
					{Name: "severity", Value: finding.Severity},
					{Name: "name", Value: finding.Name},
					{Name: "matched_at", Value: finding.MatchedAt},
				}
			}
			return records, findings, err
		},
	},
	{
		name: "certificates",
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			certificates, err := s.Certificates(ctx, q.program)
			records := make([]display.Record, len(certificates))
			for i, certificate := range certificates {
				records[i] = display.Row{
					{Name: "subject_cn", Value: certificate.SubjectCN},
					{Name: "subject_an", Value: strings.Join(certificate.SubjectAN, ", ")},
					{Name: "issuer_org", Value: certificate.IssuerOrg},
					{Name: "serial", Value: certificate.Serial},
					{Name: "valid_from", Value: formatDate(certificate.ValidFrom)},
					{Name: "valid_until", Value: formatDate(certificate.ValidUntil)},
				}
			}
			return records, certificates, err
		},
	},
	{
		name: "websites",
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			websites, err := s.Websites(ctx, q.program)
			records := make([]display.Record, len(websites))
			for i, website := range websites {
				records[i] = display.Row{
					{Name: "url", Value: website.URL},
					{Name: "host", Value: website.Host},
					{Name: "port", Value: optionalInt(website.Port)},
					{Name: "scheme", Value: website.Scheme},
					{Name: "techs", Value: strings.Join(website.Techs, ", ")},
				}
			}
			return records, websites, err
		},
	},
	{
		name: "websites_paths",
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			paths, err := s.WebsitePaths(ctx, q.program)
			records := make([]display.Record, len(paths))
			for i, path := range paths {
				records[i] = display.Row{
					{Name: "url", Value: joinPath(path.URL, path.Path)},
					{Name: "final_path", Value: path.FinalPath},
					{Name: "status", Value: optionalInt(path.StatusCode)},
					{Name: "content_type", Value: path.ContentType},
				}
			}
			return records, paths, err
		},
	},
	{
		name: "screenshots",
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			screenshots, err := s.Screenshots(ctx, q.program)
			records := make([]display.Record, len(screenshots))
			for i, screenshot := range screenshots {
				records[i] = display.Row{
					{Name: "url", Value: screenshot.URL},
					{Name: "filepath", Value: screenshot.Filepath},
					{Name: "md5", Value: screenshot.MD5Hash},
				}
			}
			return records, screenshots, err
		},
	},
	{
		name:   "dns",
		domain: true,
		fetch: func(ctx context.Context, s store.Store, q query) ([]display.Record, any, error) {
			dnsRecords, err := s.DNSRecords(ctx, q.program, q.domain)
			records := make([]display.Record, len(dnsRecords))
			for i, record := range dnsRecords {
				records[i] = display.Row{
					{Name: "record", Value: fmt.Sprintf("%s %s %s", record.Hostname, record.Type, record.Value)},
					{Name: "zone", Value: record.Domain},
				}
			}
			return records, dnsRecords, err
		},
		write: func(w io.Writer, value any) error {
			return writeZones(w, value.([]store.DNSRecord))
		},
	},
}

// writeZones prints records grouped by zone in zone-file layout. Records
// arrive sorted by zone.
func writeZones(w io.Writer, records []store.DNSRecord) error {
	for start := 0; start < len(records); {
		end := start
		for end < len(records) && records[end].Domain == records[start].Domain {
			end++
		}
		zone := records[start:end]

		hostWidth, typeWidth := 0, 0
		for _, record := range zone {
			hostWidth = max(hostWidth, len(record.Hostname))
			typeWidth = max(typeWidth, len(record.Type))
		}

		heading := display.DefaultTheme.TitleStyle().Render("# Zone: " + zone[0].Domain)
		if _, err := fmt.Fprintf(w, "%s\n# Records: %d\n%s\n", heading, len(zone), strings.Repeat("-", 80)); err != nil {
			return err
		}
		for _, record := range zone {
			_, err := fmt.Fprintf(w, "%-*s %7d %-4s %-*s %s\n",
				hostWidth, record.Hostname, record.TTL, record.Class, typeWidth, record.Type, record.Value)
			if err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// joinPath appends path to a website URL.
func joinPath(website, path string) string {
	if path == "" {
		return website
	}
	return strings.TrimSuffix(website, "/") + "/" + strings.TrimPrefix(path, "/")
}

func endpoint(ip string, port int) string {
	if strings.Contains(ip, ":") {
		return "[" + ip + "]:" + strconv.Itoa(port)
	}
	return ip + ":" + strconv.Itoa(port)
}

func optionalInt(value int) string {
	if value == 0 {
		return ""
	}
	return strconv.Itoa(value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
