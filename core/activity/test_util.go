package activity

import "time"

// NewServiceMock returns a Service with an injectable clock.
func NewServiceMock(repo Repository, compliance Compliance, now func() time.Time) *Service {
	svc := NewService(repo, compliance)
	if now != nil {
		svc.now = now
	}
	return svc
}
