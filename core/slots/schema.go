// Package slots implements structured field collection for action flows:
// ask, validate, retry within a bound, read back, confirm.
package slots

import (
	"time"
)

// FieldKind selects the validator and spoken-readback formatting for a field.
type FieldKind string

const (
	KindText  FieldKind = "text"
	KindName  FieldKind = "name"
	KindEmail FieldKind = "email"
	KindPhone FieldKind = "phone"
	KindDate  FieldKind = "date"
	KindTime  FieldKind = "time"
)

// DefaultMaxRetries bounds re-asks per field when a schema does not override it.
const DefaultMaxRetries = 3

// Field describes one slot to collect. Schemas are static per action type
// and never mutated at runtime.
type Field struct {
	Name   string    `yaml:"name"`
	Kind   FieldKind `yaml:"kind"`
	Prompt string    `yaml:"prompt"`
	// RetryPrompt is asked after a rejected value. May contain {reason}.
	RetryPrompt string `yaml:"retry_prompt"`
	// MaxRetries bounds consecutive rejections before the flow gives up.
	// Zero means DefaultMaxRetries.
	MaxRetries int `yaml:"max_retries"`
	// Required fields must be collected before confirmation.
	Required bool `yaml:"required"`
}

func (f Field) maxRetries() int {
	if f.MaxRetries > 0 {
		return f.MaxRetries
	}
	return DefaultMaxRetries
}

// Schema is the declarative description of one action flow.
type Schema struct {
	// Action is the dispatch action type, e.g. "book_appointment".
	Action string `yaml:"action"`
	// ConfirmTemplate is the read-back template; placeholders are field
	// names and are bound with spoken-form values before speaking.
	ConfirmTemplate string  `yaml:"confirm_template"`
	Fields          []Field `yaml:"fields"`
}

// PendingAction is a fully validated, user-confirmed action request. It is
// handed to the dispatcher exactly once.
type PendingAction struct {
	Action      string
	Values      map[string]string
	ConfirmedAt time.Time
}
