package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ratiobudget/ratiobudget/internal/event_bus"
	"github.com/ratiobudget/ratiobudget/internal/utils"
	log "github.com/sirupsen/logrus"
)

// SubscribeAutoBackup writes the state to dir after every change, one file per
// day, so that the latest export of each day is kept on disk.
func SubscribeAutoBackup(bus *event_bus.EventBus, dir string, clock utils.Clock) (unsubscribe func(), err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	log.Infof("Automatic backups enabled in %s", dir)

	return event_bus.SubscribeTyped(bus, event_bus.StateChangedType, func(e event_bus.EventT[event_bus.StateChanged]) error {
		data, err := Encode(e.Data.State)
		if err != nil {
			return fmt.Errorf("failed to encode automatic backup: %w", err)
		}
		path := filepath.Join(dir, Filename(clock.Now()))
		if err := writeFile(path, data); err != nil {
			return fmt.Errorf("failed to write automatic backup: %w", err)
		}
		log.Debugf("Automatic backup written to %s after %s", path, e.Data.Command)
		return nil
	}), nil
}

// writeFile replaces path atomically through a temporary file in the same
// directory.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
