package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every "X not found" sentinel so callers can test for the class
var ErrNotFound = errors.New("not found")

var (
	ErrPersonNotFound        = fmt.Errorf("person %w", ErrNotFound)
	ErrFamilyNotFound        = fmt.Errorf("family %w", ErrNotFound)
	ErrClusterNotFound       = fmt.Errorf("cluster %w", ErrNotFound)
	ErrGroupNotFound         = fmt.Errorf("evangelism group %w", ErrNotFound)
	ErrProspectNotFound      = fmt.Errorf("prospect %w", ErrNotFound)
	ErrLessonNotFound        = fmt.Errorf("lesson %w", ErrNotFound)
	ErrProgressNotFound      = fmt.Errorf("progress record %w", ErrNotFound)
	ErrSessionReportNotFound = fmt.Errorf("session report %w", ErrNotFound)
	ErrDonationNotFound      = fmt.Errorf("donation %w", ErrNotFound)
	ErrOfferingNotFound      = fmt.Errorf("offering %w", ErrNotFound)
	ErrPledgeNotFound        = fmt.Errorf("pledge %w", ErrNotFound)
	ErrContributionNotFound  = fmt.Errorf("contribution %w", ErrNotFound)
	ErrCoordinatorNotFound   = fmt.Errorf("coordinator %w", ErrNotFound)
	ErrEventNotFound         = fmt.Errorf("event %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
)

var (
	ErrDuplicateAssignment = errors.New("lesson already assigned to this person")
	ErrDuplicateCode       = errors.New("cluster code already in use")
	ErrAlreadyConverted    = errors.New("prospect already converted")
	ErrLessonNotCurrent    = errors.New("only the latest version of a lesson can be superseded")
)
