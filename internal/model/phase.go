package model

import "fmt"

// Phase pipeline classification code. Each phase implies a win probability and
// a rank used for sorting; the set is closed.
type Phase string

const (
	PhaseLead      Phase = "lead"
	PhaseQualified Phase = "qualified"
	PhaseProposal  Phase = "proposal"
	PhaseVerbal    Phase = "verbal"
	PhaseWon       Phase = "won"
	PhaseLost      Phase = "lost"
)

type phaseInfo struct {
	rank    int
	winProb float64
}

var phases = map[Phase]phaseInfo{
	PhaseLead:      {rank: 1, winProb: 0.10},
	PhaseQualified: {rank: 2, winProb: 0.25},
	PhaseProposal:  {rank: 3, winProb: 0.50},
	PhaseVerbal:    {rank: 4, winProb: 0.75},
	PhaseWon:       {rank: 5, winProb: 1.00},
	PhaseLost:      {rank: 6, winProb: 0.00},
}

// ParsePhase maps a raw phase cell to the canonical code.
func ParsePhase(s string) (Phase, error) {
	switch NormalizeKey(s) {
	case "lead", "identified", "p1":
		return PhaseLead, nil
	case "qualified", "qualify", "p2":
		return PhaseQualified, nil
	case "proposal", "proposed", "submitted", "p3":
		return PhaseProposal, nil
	case "verbal", "preferred", "negotiation", "p4":
		return PhaseVerbal, nil
	case "won", "closed won", "p5":
		return PhaseWon, nil
	case "lost", "closed lost", "withdrawn":
		return PhaseLost, nil
	}
	return "", fmt.Errorf("unknown pipeline phase %q", s)
}

// Rank total order of phases for sorting.
func (p Phase) Rank() int { return phases[p].rank }

// WinProbability the probability implied by the phase.
func (p Phase) WinProbability() float64 { return phases[p].winProb }

// Valid reports whether p is a member of the closed phase set.
func (p Phase) Valid() bool {
	_, ok := phases[p]
	return ok
}
