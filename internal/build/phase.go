package build

import "fmt"

// Phase is a step of one driver run, used to label verbose output
type Phase int

const (
	PhaseEnumerate Phase = iota
	PhaseLoadCache
	PhaseProcess
	PhasePrune
	PhaseGenerate
	PhaseFlush
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseEnumerate:
		return "enumerate"
	case PhaseLoadCache:
		return "load cache"
	case PhaseProcess:
		return "process"
	case PhasePrune:
		return "prune"
	case PhaseGenerate:
		return "generate"
	case PhaseFlush:
		return "flush"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase %d", int(p))
	}
}
