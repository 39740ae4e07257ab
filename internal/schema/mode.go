package schema

// RunMode selects continuous operation (reconnects, runs until cancelled) or
// a single bounded collection pass (no reconnects).
type RunMode uint8

const (
	_run_mode_beg RunMode = iota
	RunModeContinuous
	RunModeSingleShot
	_run_mode_end
)

func (m RunMode) IsAvailable() bool {
	return m > _run_mode_beg && m < _run_mode_end
}

func (m RunMode) String() string {
	switch m {
	case RunModeContinuous:
		return "continuous"
	case RunModeSingleShot:
		return "single-shot"
	default:
		return "unknown"
	}
}

// PersistMode selects the persistence shape.
type PersistMode uint8

const (
	_persist_mode_beg PersistMode = iota
	PersistRawAll
	PersistRawFiltered
	PersistHistorical
	_persist_mode_end
)

func (m PersistMode) IsAvailable() bool {
	return m > _persist_mode_beg && m < _persist_mode_end
}

// IsRaw reports whether raw account-update messages are persisted.
func (m PersistMode) IsRaw() bool {
	return m == PersistRawAll || m == PersistRawFiltered
}

func (m PersistMode) String() string {
	switch m {
	case PersistRawAll:
		return "raw-all"
	case PersistRawFiltered:
		return "raw-filtered"
	case PersistHistorical:
		return "historical"
	default:
		return "unknown"
	}
}
