package birdswap

import (
	"github.com/ethereum/go-ethereum/common"

	"birdswap/core/state"
)

const (
	// GenesisSchemaVersion is the layout Initialize writes.
	GenesisSchemaVersion uint32 = 1
	// SchemaVersion is the newest layout this engine understands.
	SchemaVersion uint32 = 2
)

// Migrations lists the schema steps in order. Steps only append keys or
// trailing optional fields, never rewrite existing records.
func Migrations() []state.Migration {
	return []state.Migration{
		{
			From: 1,
			To:   2,
			Name: "track settled volume",
			Apply: func(s state.Store) error {
				ok, err := s.KVGet(totalVolumeKey, nil)
				if err != nil || ok {
					return err
				}
				return s.KVPut(totalVolumeKey, &volumeRecord{})
			},
		},
	}
}

// NewMigrator returns the migrator for the marketplace schema.
func NewMigrator() (*state.Migrator, error) {
	return state.NewMigrator(Migrations()...)
}

// migrateTo runs the schema steps up to target inside the caller's snapshot.
func (e *Engine) migrateTo(target uint32) (uint32, error) {
	if target > SchemaVersion || target < GenesisSchemaVersion {
		return 0, ErrUpgradeTarget
	}
	from, err := e.schemaVersion()
	if err != nil {
		return 0, err
	}
	if target < from {
		return 0, ErrUpgradeTarget
	}
	migrator, err := NewMigrator()
	if err != nil {
		return 0, err
	}
	if _, err := migrator.Migrate(e.state, target); err != nil {
		return 0, err
	}
	return from, nil
}

// UpgradeTo moves the stored schema to target. Configuration, asks and
// custody records carry over unchanged.
func (e *Engine) UpgradeTo(caller common.Address, target uint32) error {
	return e.atomic(func() error {
		if _, err := e.onlyOwner(caller); err != nil {
			return err
		}
		from, err := e.migrateTo(target)
		if err != nil {
			return err
		}
		e.emit(NewUpgradedEvent(from, target))
		return nil
	})
}

// Migrate is the operator path used at startup: it upgrades to the newest
// schema without an owner check.
func (e *Engine) Migrate() (from uint32, err error) {
	err = e.atomic(func() error {
		from, err = e.migrateTo(SchemaVersion)
		if err != nil {
			return err
		}
		if from != SchemaVersion {
			e.emit(NewUpgradedEvent(from, SchemaVersion))
		}
		return nil
	})
	return from, err
}
