package crud

import (
	"maps"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/record"
)

// Mode is the open sheet of the orchestrator.
type Mode string

// Modes. Edit, View and Delete always carry a selected item; Closed and
// Create never do.
const (
	ModeClosed Mode = "closed"
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	ModeView   Mode = "view"
	ModeDelete Mode = "delete"
)

// State is an immutable snapshot of the orchestrator. The zero value is Closed.
type State struct {
	mode        Mode
	item        *record.Record
	loading     bool
	err         *domain.TransportError
	message     string
	fieldErrors map[string]string
}

func closedState() State {
	return State{mode: ModeClosed}
}

func createState() State {
	return State{mode: ModeCreate}
}

func itemState(mode Mode, item record.Record) State {
	return State{mode: mode, item: &item}
}

// Mode returns the current mode.
func (s State) Mode() Mode {
	if s.mode == "" {
		return ModeClosed
	}
	return s.mode
}

// IsOpen reports whether a sheet is open.
func (s State) IsOpen() bool { return s.Mode() != ModeClosed }

// SelectedItem returns the item of Edit, View and Delete.
func (s State) SelectedItem() (record.Record, bool) {
	if s.item == nil {
		return record.Record{}, false
	}
	return *s.item, true
}

// IsLoading reports whether a mutation is in flight.
func (s State) IsLoading() bool { return s.loading }

// Err returns the transport failure of the last submit, or nil.
func (s State) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// Message is the user-visible text of Err.
func (s State) Message() string { return s.message }

// FieldErrors returns the validation message per failing field.
func (s State) FieldErrors() map[string]string {
	return maps.Clone(s.fieldErrors)
}
