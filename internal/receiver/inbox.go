// Package receiver keeps screenshots posted to the local stand-in endpoint.
package receiver

import (
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sendto/internal/model"
	"github.com/sendto/internal/submission"
)

// Submission is one received send form.
type Submission struct {
	ID         string         `json:"id"`
	ReceivedAt time.Time      `json:"receivedAt"`
	Mode       model.SendMode `json:"-"`
	ModeName   string         `json:"mode"`
	CaseID     int            `json:"caseId,omitempty"`
	Fragments  int            `json:"fragments"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	PNG        []byte         `json:"-"`
}

// Inbox holds the most recent submissions, newest first.
type Inbox struct {
	mu    sync.RWMutex
	keep  int
	items []*Submission
	now   func() time.Time
}

// NewInbox returns an inbox keeping at most keep submissions.
func NewInbox(keep int) *Inbox {
	if keep < 1 {
		keep = 1
	}
	return &Inbox{keep: keep, now: time.Now}
}

// Add records a parsed payload and returns the stored submission.
func (in *Inbox) Add(p *submission.Payload, bounds image.Rectangle) *Submission {
	sub := &Submission{
		ID:         uuid.NewString(),
		ReceivedAt: in.now().UTC(),
		Mode:       p.Mode,
		ModeName:   p.Mode.String(),
		CaseID:     p.CaseID,
		Fragments:  p.Fragments,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		PNG:        p.PNG,
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	in.items = append([]*Submission{sub}, in.items...)
	if len(in.items) > in.keep {
		in.items = in.items[:in.keep]
	}
	return sub
}

// List returns the kept submissions, newest first.
func (in *Inbox) List() []*Submission {
	in.mu.RLock()
	defer in.mu.RUnlock()

	out := make([]*Submission, len(in.items))
	copy(out, in.items)
	return out
}

// Get returns the submission with id, if still kept.
func (in *Inbox) Get(id string) (*Submission, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	for _, sub := range in.items {
		if sub.ID == id {
			return sub, true
		}
	}
	return nil, false
}
