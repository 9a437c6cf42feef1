package state

import (
	"errors"
	"fmt"
)

// ErrNoMigrationPath is returned when the registry cannot reach the requested
// version from the stored one.
var ErrNoMigrationPath = errors.New("state: no migration path")

// Store is the view migrations run against. *Manager satisfies it.
type Store interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	StateVersion() (uint32, bool, error)
	SetStateVersion(version uint32) error
}

// Migration moves stored data from one schema version to the next.
type Migration struct {
	From  uint32
	To    uint32
	Name  string
	Apply func(Store) error
}

// Migrator applies registered migrations one version at a time.
type Migrator struct {
	steps map[uint32]Migration
}

// NewMigrator validates that every migration advances exactly one version and
// that no starting version is registered twice.
func NewMigrator(migrations ...Migration) (*Migrator, error) {
	steps := make(map[uint32]Migration, len(migrations))
	for _, mig := range migrations {
		if mig.To != mig.From+1 {
			return nil, fmt.Errorf("state: migration %q must advance one version (%d -> %d)", mig.Name, mig.From, mig.To)
		}
		if mig.Apply == nil {
			return nil, fmt.Errorf("state: migration %q has no apply func", mig.Name)
		}
		if _, dup := steps[mig.From]; dup {
			return nil, fmt.Errorf("state: duplicate migration from version %d", mig.From)
		}
		steps[mig.From] = mig
	}
	return &Migrator{steps: steps}, nil
}

// Migrate runs the steps from the stored version up to target and records the
// new version after each one. Callers own snapshot/revert around the call.
func (mg *Migrator) Migrate(m Store, target uint32) ([]Migration, error) {
	current, ok, err := m.StateVersion()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: state version not set", ErrNoMigrationPath)
	}
	if target < current {
		return nil, fmt.Errorf("%w: cannot downgrade %d -> %d", ErrNoMigrationPath, current, target)
	}
	var applied []Migration
	for current < target {
		step, ok := mg.steps[current]
		if !ok {
			return applied, fmt.Errorf("%w: missing step from %d", ErrNoMigrationPath, current)
		}
		if err := step.Apply(m); err != nil {
			return applied, fmt.Errorf("state: migration %q: %w", step.Name, err)
		}
		if err := m.SetStateVersion(step.To); err != nil {
			return applied, err
		}
		applied = append(applied, step)
		current = step.To
	}
	return applied, nil
}

// Latest returns the highest version reachable from the registered steps.
func (mg *Migrator) Latest(from uint32) uint32 {
	for {
		step, ok := mg.steps[from]
		if !ok {
			return from
		}
		from = step.To
	}
}
