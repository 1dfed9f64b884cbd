package ledger

import (
	"fmt"
	"os"
	"strconv"
)

// RunLock is an advisory lock file guarding a ledger against two
// reconciliation runs writing the same file concurrently. Full-file
// replace writes from two processes would corrupt the ledger, so a
// second acquisition fails instead of waiting.
type RunLock struct {
	path string
}

// AcquireRunLock creates <ledgerPath>.lock exclusively. ErrLocked-style
// failure means another run against this ledger is in flight.
func AcquireRunLock(ledgerPath string) (*RunLock, error) {
	path := ledgerPath + ".lock"
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("ledger %s is locked by another run (remove %s if that run is dead)", ledgerPath, path)
		}
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	return &RunLock{path: path}, nil
}

// Release removes the lock file.
func (l *RunLock) Release() {
	if l == nil {
		return
	}
	_ = os.Remove(l.path)
}
