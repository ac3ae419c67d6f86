package shared

import "fmt"

var (
	// Storage errors
	ErrStorage = fmt.Errorf("track database unreadable")

	// Configuration and selection errors
	ErrConfiguration = fmt.Errorf("invalid configuration")
	ErrTrackNotFound = fmt.Errorf("track not found in database")
	ErrInvalidInput  = fmt.Errorf("invalid input")

	// Upstream fetch errors
	ErrFetchFailed = fmt.Errorf("metadata fetch failed")

	// External conversion errors
	ErrExternalTool = fmt.Errorf("external tool failed")
)
