// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package redisclient opens go-redis clients from [config.RedisConfig].
//
// One configuration serves three logical databases: the rate-limit
// cache, the component status cache and the bus streams. [Open] takes
// the database index so each consumer gets its own client. Cluster
// deployments only have database 0; [Options] rejects any other index
// in cluster mode.
package redisclient
