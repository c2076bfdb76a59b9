// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package display

// Field is one named attribute of a record.
type Field struct {
	Name  string
	Value string
}

// Record is one row of output. Key identifies the record in the list
// view; Fields is the full attribute set, in column order, for the
// detail view. Every record in a sequence should report the same field
// names in the same order.
type Record interface {
	Key() string
	Fields() []Field
}

// Row is a Record whose key is the value of its first field.
type Row []Field

func (r Row) Key() string {
	if len(r) == 0 {
		return ""
	}
	return r[0].Value
}

func (r Row) Fields() []Field { return r }
