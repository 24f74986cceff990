package service

import "fmt"

// ManagementError is the single failure kind surfaced by
// DeviceManagementService. Handlers translate it to a server error.
type ManagementError struct {
	Op  string
	Err error
}

func (e *ManagementError) Error() string {
	return fmt.Sprintf("device management: %s: %v", e.Op, e.Err)
}

func (e *ManagementError) Unwrap() error {
	return e.Err
}

func managementError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ManagementError{Op: op, Err: err}
}
