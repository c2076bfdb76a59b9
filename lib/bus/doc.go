// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package bus is the message transport between the control plane and
// the platform components.
//
// Two primitives cover everything the client does:
//
//   - streams: durable, ordered logs with consumer groups. The worker,
//     job and data queues are streams. The client appends, inspects,
//     peeks and trims them.
//   - channels: fire-and-forget pub/sub. Fleet control commands and
//     their replies travel on channels.
//
// [NewRedis] implements [Bus] over Redis Streams and Pub/Sub.
// [NewMemory] implements it in process for tests and local simulation.
// [Keyspace] derives every stream key and channel name from one prefix
// so that several deployments can share a Redis server.
package bus
