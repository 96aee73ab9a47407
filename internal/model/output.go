package model

import (
	"fmt"
	"strconv"
)

// Keys of the flat mapping an Output is persisted as.
const (
	KeyName       = "Name"
	KeyURL        = "Url"
	KeyLastCaseID = "LastCaseID"
)

// DefaultLastCaseID is used when a persisted output carries no case ID.
const DefaultLastCaseID = 1

// Output is one configured Manuscript target.
type Output struct {
	Name       string `json:"name" yaml:"name" validate:"required,max=100"`
	URL        string `json:"url" yaml:"url" validate:"omitempty,http_url"`
	LastCaseID int    `json:"lastCaseId" yaml:"lastCaseId" validate:"gte=0"`
}

// OutputValues is the string-keyed form outputs are persisted in.
type OutputValues map[string]string

// Get returns the value stored under key, or fallback when the key is absent.
func (v OutputValues) Get(key, fallback string) string {
	if val, ok := v[key]; ok {
		return val
	}
	return fallback
}

// Values flattens the output into its persisted form.
func (o Output) Values() OutputValues {
	return OutputValues{
		KeyName:       o.Name,
		KeyURL:        o.URL,
		KeyLastCaseID: strconv.Itoa(o.LastCaseID),
	}
}

// OutputFromValues restores an output. Missing keys fall back to defaultName,
// an empty URL and DefaultLastCaseID.
func OutputFromValues(v OutputValues, defaultName string) (*Output, error) {
	raw := v.Get(KeyLastCaseID, strconv.Itoa(DefaultLastCaseID))
	caseID, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", KeyLastCaseID, raw, err)
	}
	return &Output{
		Name:       v.Get(KeyName, defaultName),
		URL:        v.Get(KeyURL, ""),
		LastCaseID: caseID,
	}, nil
}

// Validate checks the output the way the edit dialog does before accepting it.
func (o Output) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid output: %w", err)
	}
	return nil
}
