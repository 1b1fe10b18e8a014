package services

import (
	"time"

	"github.com/tbourn/go-support-agent/internal/domain"
)

// Action is the outcome of ticket resolution.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
)

// Inbound is a classified customer message ready for ticket resolution.
type Inbound struct {
	Channel        string
	Email          string
	Subject        string
	Classification string
	Summary        string
	Response       string
}

// Resolution is the ticket to write and how to write it.
type Resolution struct {
	Action Action
	Ticket domain.Ticket
}

// Resolve decides between updating the first Open ticket whose email and
// subject are byte-equal to in's, and inserting a new ticket. tickets must be
// in store order. On update the returned ticket keeps the id, status, marker
// and concurrency token (Row/Version) of the matched row. newID is called only
// on insert.
func Resolve(tickets []domain.Ticket, in Inbound, now time.Time, newID func() string) Resolution {
	ts := domain.FormatTimestamp(now)
	for _, t := range tickets {
		if !t.IsOpen() || t.Email != in.Email || t.Subject != in.Subject {
			continue
		}
		t.Timestamp = ts
		t.Email = in.Email
		t.Subject = in.Subject
		t.Summary = in.Summary
		t.Classification = in.Classification
		return Resolution{Action: ActionUpdate, Ticket: t}
	}

	return Resolution{
		Action: ActionInsert,
		Ticket: domain.Ticket{
			ID:             newID(),
			Timestamp:      ts,
			Email:          in.Email,
			Subject:        in.Subject,
			Summary:        in.Summary,
			Classification: in.Classification,
			Status:         domain.StatusOpen,
			FollowUp:       "",
		},
	}
}
