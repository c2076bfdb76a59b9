// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package bus

// Keyspace names streams and channels under a common prefix.
//
//	stream   <prefix>:stream:FUNCTION_EXECUTE
//	control  <prefix>:control:<command>:<all|class|component id>
//	reply    <prefix>:control:reply:<round id>
//	response <prefix>:jobs:response:<response id>
type Keyspace struct {
	Prefix string
}

// Stream returns the key of the stream the platform calls name.
func (k Keyspace) Stream(name string) string {
	return k.Prefix + ":stream:" + name
}

// Control returns the channel a command is published on for one scope.
func (k Keyspace) Control(command, scope string) string {
	return k.Prefix + ":control:" + command + ":" + scope
}

// Reply returns the channel replies of one round are published on.
func (k Keyspace) Reply(roundID string) string {
	return k.Prefix + ":control:reply:" + roundID
}

// JobResponse returns the channel workers answer a waited-for job on.
func (k Keyspace) JobResponse(responseID string) string {
	return k.Prefix + ":jobs:response:" + responseID
}
