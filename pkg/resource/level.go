package resource

// Level is the ordinal throttling signal published to the store. Producer
// components read it to slow down ingestion; this package only derives and
// publishes it.
type Level int

const (
	LevelNormal   Level = 0
	LevelLight    Level = 1
	LevelModerate Level = 2
	LevelSevere   Level = 3
)

// String returns the human-readable level name.
func (l Level) String() string {
	switch l {
	case LevelLight:
		return "light"
	case LevelModerate:
		return "moderate"
	case LevelSevere:
		return "severe"
	default:
		return "normal"
	}
}

// LevelFor derives the throttling level from the latest CPU/RAM samples and
// the configured limits. It is a pure function of its inputs: the level is
// recomputed from scratch every tick, never adjusted incrementally, so
// near a threshold it can flap between two levels on consecutive ticks.
func LevelFor(cpu, ram, cpuLimit, ramLimit float64) Level {
	switch {
	case cpu > cpuLimit+10 || ram > ramLimit+10:
		return LevelSevere
	case cpu > cpuLimit+5 || ram > ramLimit+5:
		return LevelModerate
	case cpu > cpuLimit || ram > ramLimit:
		return LevelLight
	default:
		return LevelNormal
	}
}
