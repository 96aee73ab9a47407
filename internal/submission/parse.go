package submission

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sendto/internal/model"
)

// MaxFragments caps cImageFragments when parsing untrusted forms.
const MaxFragments = 1000

var (
	// ErrMalformed marks a form that is missing fields or has bad values.
	ErrMalformed = errors.New("submission: malformed form")
	// ErrDestMismatch marks a dest field that disagrees with the flag fields.
	ErrDestMismatch = errors.New("submission: dest does not match form fields")
)

// Payload is a send form read back into its parts.
type Payload struct {
	Mode      model.SendMode
	CaseID    int
	Fragments int
	Base64    string
	PNG       []byte
}

// ParseForm reassembles a submitted send form. Fragments are joined by index.
func ParseForm(v url.Values) (*Payload, error) {
	email, err := flagValue(v, FieldEmail)
	if err != nil {
		return nil, err
	}
	newCase, err := flagValue(v, FieldNewCase)
	if err != nil {
		return nil, err
	}

	p := &Payload{Mode: modeFor(email, newCase)}
	if p.Mode.CaseBound() {
		p.CaseID, err = intValue(v, FieldCaseID)
		if err != nil {
			return nil, err
		}
	}

	p.Fragments, err = intValue(v, FieldFragmentCount)
	if err != nil {
		return nil, err
	}
	if p.Fragments < 1 || p.Fragments > MaxFragments {
		return nil, fmt.Errorf("%w: %s out of range: %d", ErrMalformed, FieldFragmentCount, p.Fragments)
	}

	var b strings.Builder
	for i := 1; i <= p.Fragments; i++ {
		name := FragmentName(i)
		if _, ok := v[name]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformed, name)
		}
		b.WriteString(v.Get(name))
	}
	p.Base64 = b.String()

	p.PNG, err = base64.StdEncoding.DecodeString(p.Base64)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrMalformed, err)
	}

	if err := checkDest(v.Get(FieldDest), p); err != nil {
		return nil, err
	}
	return p, nil
}

func checkDest(dest string, p *Payload) error {
	if dest == "" {
		return fmt.Errorf("%w: missing %s", ErrMalformed, FieldDest)
	}
	q, err := url.ParseQuery(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDestMismatch, err)
	}
	want, _ := url.ParseQuery(Dest(p.Mode, p.CaseID))
	for key := range want {
		if q.Get(key) != want.Get(key) {
			return fmt.Errorf("%w: %s=%q, want %q", ErrDestMismatch, key, q.Get(key), want.Get(key))
		}
	}
	if !p.Mode.CaseBound() && q.Has(FieldCaseID) {
		return fmt.Errorf("%w: %s set for %s", ErrDestMismatch, FieldCaseID, p.Mode)
	}
	return nil
}

func modeFor(email, newCase bool) model.SendMode {
	switch {
	case newCase && email:
		return model.NewEmail
	case newCase:
		return model.NewCase
	case email:
		return model.ReplyToCase
	default:
		return model.AttachToCase
	}
}

func flagValue(v url.Values, name string) (bool, error) {
	switch v.Get(name) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be 0 or 1", ErrMalformed, name)
	}
}

func intValue(v url.Values, name string) (int, error) {
	n, err := strconv.Atoi(v.Get(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	return n, nil
}
