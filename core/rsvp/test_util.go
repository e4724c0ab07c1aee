package rsvp

import "time"

// NewServiceMock returns a Service with an injectable clock.
func NewServiceMock(repo Repository, now func() time.Time) *Service {
	svc := NewService(repo)
	if now != nil {
		svc.now = now
	}
	return svc
}
