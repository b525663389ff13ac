package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrorCollector gathers errors from concurrent workers so a whole batch
// can be reported at once.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector.
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// AddError adds an error to the collector. Nil errors are ignored.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetErrors returns a copy of the collected errors.
func (ec *ErrorCollector) GetErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]error, len(ec.errors))
	copy(result, ec.errors)

	return result
}

// GetErrorsByFile returns the collected KitErrors located in file.
func (ec *ErrorCollector) GetErrorsByFile(file string) []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var fileErrors []error
	for _, err := range ec.errors {
		var ke *KitError
		if errors.As(err, &ke) && ke.FilePath == file {
			fileErrors = append(fileErrors, err)
		}
	}

	return fileErrors
}

// HasErrors returns true if there are any errors.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	return len(ec.errors) > 0
}

// Count returns the number of collected errors.
func (ec *ErrorCollector) Count() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	return len(ec.errors)
}

// Clear clears all errors.
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = ec.errors[:0]
}

// Err returns nil when empty, otherwise a single error joining every
// collected error sorted by message so output is stable across runs.
func (ec *ErrorCollector) Err() error {
	errs := ec.GetErrors()
	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Error() < errs[j].Error()
	})

	return errors.Join(errs...)
}

// Summary renders a human readable report, one error per line.
func (ec *ErrorCollector) Summary() string {
	errs := ec.GetErrors()
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s):\n", len(errs))
	for _, err := range errs {
		fmt.Fprintf(&b, "  - %v\n", err)
	}

	return b.String()
}
