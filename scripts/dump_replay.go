// Command dump_replay prints the recorded snapshots of a saved game
// replay, one line per state, for debugging round flow.
//
// Usage:
//
//	go run scripts/dump_replay.go -dir replays -room AB3DE
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gostop/gostop-server-go/internal/game"
)

func main() {
	dir := flag.String("dir", "replays", "replay directory")
	room := flag.String("room", "", "room code of the replay to dump")
	verbose := flag.Bool("v", false, "print per-player capture details")
	flag.Parse()

	if *room == "" {
		flag.Usage()
		os.Exit(2)
	}

	replay, err := game.LoadReplayFromFile(*dir, *room)
	if err != nil {
		log.Fatalf("load replay: %v", err)
	}

	fmt.Printf("replay %s: %d snapshots\n", replay.RoomCode, replay.Size())
	for i := 0; i < replay.Size(); i++ {
		st := replay.GetStateAt(i)
		if st == nil {
			continue
		}
		current := ""
		if st.CurrentPlayerIndex >= 0 && st.CurrentPlayerIndex < len(st.Players) {
			current = st.Players[st.CurrentPlayerIndex].ID
		}
		fmt.Printf("[%3d] round=%d phase=%s current=%s deck=%d field=%d nagari=%d\n",
			i, st.RoundNumber, st.Phase.PhaseName(), current,
			len(st.Deck), len(st.Field), st.NagariCount,
		)
		if !*verbose {
			continue
		}
		for _, p := range st.Players {
			fmt.Printf("      %-12s hand=%d gwang=%d animal=%d ribbon=%d pi=%d score=%d go=%d\n",
				p.ID, len(p.Hand),
				len(p.Captured.Gwang), len(p.Captured.Animal),
				len(p.Captured.Ribbon), len(p.Captured.Pi),
				p.Score, p.GoCount,
			)
		}
	}
}
