package model

import (
	"fmt"
	"strings"
)

// SendMode selects which tracker action the generated form triggers.
type SendMode int

const (
	NewCase SendMode = iota
	AttachToCase
	NewEmail
	ReplyToCase
)

// SendModes lists every mode in dialog order.
var SendModes = []SendMode{NewCase, AttachToCase, NewEmail, ReplyToCase}

var modeNames = map[SendMode]string{
	NewCase:      "new-case",
	AttachToCase: "attach",
	NewEmail:     "new-email",
	ReplyToCase:  "reply",
}

var modeLabels = map[SendMode]string{
	NewCase:      "New case",
	AttachToCase: "Attach to case",
	NewEmail:     "New email",
	ReplyToCase:  "Reply to case",
}

func (m SendMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SendMode(%d)", int(m))
}

// Label is the human readable name shown in the send dialog.
func (m SendMode) Label() string {
	if label, ok := modeLabels[m]; ok {
		return label
	}
	return m.String()
}

// CaseBound reports whether the mode targets an existing case.
func (m SendMode) CaseBound() bool {
	return m == AttachToCase || m == ReplyToCase
}

// Email reports whether the mode sends the screenshot as an email.
func (m SendMode) Email() bool {
	return m == NewEmail || m == ReplyToCase
}

// Valid reports whether m is one of the known modes.
func (m SendMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseSendMode accepts the names printed by String, case-insensitively.
func ParseSendMode(s string) (SendMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for mode, name := range modeNames {
		if name == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown send mode %q (want new-case, attach, new-email or reply)", s)
}

// SendRequest is built per send operation and discarded afterwards.
type SendRequest struct {
	URL    string   `validate:"required,http_url"`
	CaseID int
	Mode   SendMode
}

// Validate checks the request before a payload is built.
func (r SendRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid send request: %w", err)
	}
	return nil
}
