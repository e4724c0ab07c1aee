package shabbaton

import (
	"time"

	"github.com/uwsprogram/tracker/core"
)

// NewServiceMock returns a Service with an injectable clock.
func NewServiceMock(
	repo Repository,
	grants GrantStore,
	atomic core.Atomic,
	compliance Recomputer,
	directory Directory,
	mailSvc core.EmailService,
	logger core.Logger,
	now func() time.Time,
) *Service {
	svc := NewService(repo, grants, atomic, compliance, directory, mailSvc, logger)
	if now != nil {
		svc.now = now
	}
	return svc
}
