package events

import (
	"fmt"
	"log/slog"
)

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver at path.
func Open(driver, path string, logger *slog.Logger) (Store, error) {
	switch driver {
	case DriverFile, "":
		s, err := OpenFileStore(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := OpenSQLiteStore(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
