// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package pgstore implements [store.Store] against the platform's
// Postgres database through gorm.
//
// The schema belongs to the platform: pgstore never creates or migrates
// tables. It relies on these shapes:
//
//	programs(id, name unique)
//	program_scopes(id, program_id, regex)
//	program_cidrs(id, program_id, cidr)
//	domains(id, program_id, domain, ips integer[] of ips.id)
//	ips(id, program_id, ip, ptr)
//	urls(id, program_id, url, httpx_data jsonb)
//	services(id, program_id, ip references ips.id, port, protocol, service)
//	nuclei(id, program_id, target, template_id, name, severity, matched_at, type)
//	certificates(id, program_id, subject_cn, subject_an text[], issuer_org,
//	             serial, valid_date, expiry_date)
//
// Asset rows reference programs with ON DELETE CASCADE, so deleting a
// program removes its assets; scope and CIDR rows are deleted
// explicitly.
package pgstore
