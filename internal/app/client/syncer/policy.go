package syncer

import (
	"fmt"

	"fieldsync/internal/domain/submission"
)

// Strategy decides what happens when the server holds a newer version
// of a record the client is trying to submit.
type Strategy string

const (
	// StrategyServerWins adopts the server record and discards the
	// local answers. The default: the server copy has usually been
	// reviewed or corrected by a supervisor.
	StrategyServerWins Strategy = "server_wins"

	// StrategyLocalWins force-submits the local answers over the
	// server record.
	StrategyLocalWins Strategy = "local_wins"

	// StrategyManual parks the record in conflict status until a
	// person picks a side.
	StrategyManual Strategy = "manual"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyServerWins, StrategyLocalWins, StrategyManual:
		return Strategy(s), nil
	case "":
		return StrategyServerWins, nil
	}
	return "", fmt.Errorf("unknown conflict strategy %q", s)
}

// InConflict reports whether local answers genuinely diverge from the
// server record. Device metadata is informational and never counts: a
// resubmission from another tablet with identical answers is not a
// conflict.
func InConflict(local, server map[string]any) bool {
	return !submission.DataEqual(local, server, "device_info")
}
