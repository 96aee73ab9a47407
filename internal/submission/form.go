// Package submission builds the self-submitting HTML page that hands a
// screenshot to Manuscript through the user's browser.
package submission

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/sendto/internal/model"
)

const (
	// FragmentSize bounds each base64png field to stay under conservative
	// form-field and request-size limits.
	FragmentSize = 100000

	// DestPage is the Manuscript page the dest field routes to.
	DestPage = "pgSubmitScreenshot"

	// Title is shown while the browser submits the form.
	Title = "Sending Screenshot to Manuscript..."
)

// Form field names understood by pgSubmitScreenshot.
const (
	FieldEmail          = "fEmail"
	FieldNewCase        = "fNewCase"
	FieldCaseID         = "ixBug"
	FieldFragmentCount  = "cImageFragments"
	FieldFragmentPrefix = "base64png"
	FieldDest           = "dest"
)

// Field is one hidden input of the generated form.
type Field struct {
	Name  string
	Value string
}

// Fragments splits encoded into chunks of at most size characters. There is
// always at least one fragment, even for an empty string.
func Fragments(encoded string, size int) []string {
	if size <= 0 {
		size = FragmentSize
	}
	count := max(1, (len(encoded)+size-1)/size)

	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		start := i * size
		end := min(start+size, len(encoded))
		out = append(out, encoded[start:end])
	}
	return out
}

// FragmentName returns the field name of the 1-based fragment index.
func FragmentName(index int) string {
	return FieldFragmentPrefix + strconv.Itoa(index)
}

// Dest returns the query-string shaped routing value mirroring the flag fields.
func Dest(mode model.SendMode, caseID int) string {
	dest := fmt.Sprintf("pg=%s&%s=%s&%s=%s", DestPage, FieldNewCase, flag(!mode.CaseBound()), FieldEmail, flag(mode.Email()))
	if mode.CaseBound() {
		dest += fmt.Sprintf("&%s=%d", FieldCaseID, caseID)
	}
	return dest
}

// Fields lists the hidden inputs for mode in submission order: flags, the
// case ID for case-bound modes, the fragment count, the fragments, then dest.
func Fields(mode model.SendMode, caseID int, fragments []string) []Field {
	fields := []Field{
		{FieldEmail, flag(mode.Email())},
		{FieldNewCase, flag(!mode.CaseBound())},
	}
	if mode.CaseBound() {
		fields = append(fields, Field{FieldCaseID, strconv.Itoa(caseID)})
	}

	fields = append(fields, Field{FieldFragmentCount, strconv.Itoa(len(fragments))})
	for i, fragment := range fragments {
		fields = append(fields, Field{FragmentName(i + 1), fragment})
	}

	return append(fields, Field{FieldDest, Dest(mode, caseID)})
}

// RenderFields writes each field as a hidden input, one per line.
func RenderFields(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, `<input type="hidden" name="%s" value="%s">`, html.EscapeString(f.Name), html.EscapeString(f.Value))
	}
	return b.String()
}

// RenderPage substitutes {TITLE}, {URL} and {FORM_DATA} in tmpl, in that order.
func RenderPage(tmpl, url, formData string) string {
	result := strings.ReplaceAll(tmpl, "{TITLE}", html.EscapeString(Title))
	result = strings.ReplaceAll(result, "{URL}", html.EscapeString(url))
	return strings.ReplaceAll(result, "{FORM_DATA}", formData)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
