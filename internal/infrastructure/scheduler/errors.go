package scheduler

import "errors"

// ErrInvalidConfig wraps every CleanupTriggerConfig validation failure
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// ErrCleanupInProgress is what RunNow returns while a sweep is running
var ErrCleanupInProgress = errors.New("retention cleanup already in progress")
