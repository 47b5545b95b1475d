package planner

import (
	"fmt"
	"math/rand"

	"github.com/valewood/simcore/internal/core/command"
	"github.com/valewood/simcore/internal/data"
)

// planBatch is one immutable planning job: a slice of subject factions, a
// value snapshot of current standings, and a deterministic seed. Execute
// never touches shared state.
type planBatch struct {
	day       int
	seed      int64
	subjects  []data.Faction
	all       []data.Faction
	standings map[[2]int32]int
}

func (b *planBatch) Name() string {
	return fmt.Sprintf("plan-day%d", b.day)
}

// Execute proposes relation drift for each subject faction toward every
// other faction: standings decay toward neutral, with a seeded nudge. The
// exact formula matters less than the contract: deterministic in (seed,
// snapshot), output expressed as commands.
func (b *planBatch) Execute() ([]command.Command, error) {
	rnd := rand.New(rand.NewSource(b.seed))
	var cmds []command.Command
	for _, subject := range b.subjects {
		for _, other := range b.all {
			if other.ID <= subject.ID {
				continue // each unordered pair planned once, by the lower ID
			}
			standing := b.standings[pairKey(subject.ID, other.ID)]
			delta := 0
			switch {
			case standing > 0:
				delta = -1
			case standing < 0:
				delta = 1
			}
			delta += rnd.Intn(3) - 1 // -1, 0, or +1
			if delta == 0 {
				continue
			}
			cmds = append(cmds, command.SetRelation{
				FactionA: subject.ID,
				FactionB: other.ID,
				Delta:    delta,
			})
		}
	}
	return cmds, nil
}

func pairKey(a, b int32) [2]int32 {
	if a > b {
		a, b = b, a
	}
	return [2]int32{a, b}
}
