// Command replay re-simulates a recorded match headlessly from its seed
// and command log, printing the final score and state digest. With a
// recorded digest present it verifies the replay reproduced the match.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/duxbuse/waryes-sub005/internal/replay"
	"github.com/duxbuse/waryes-sub005/internal/sim"
)

func main() {
	dbPath := flag.String("db", "matches.db", "path to the match recording database")
	matchID := flag.String("match", "", "match ID to replay (default: most recent)")
	list := flag.Bool("list", false, "list recorded matches and exit")
	flag.Parse()

	store, err := replay.Open(*dbPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer store.Close()

	if *list {
		ids, err := store.Matches()
		if err != nil {
			log.Fatalf("%v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	id := *matchID
	if id == "" {
		ids, err := store.Matches()
		if err != nil {
			log.Fatalf("%v", err)
		}
		if len(ids) == 0 {
			log.Fatalf("no recorded matches in %s", *dbPath)
		}
		id = ids[0]
	}

	record, err := store.Match(id)
	if err != nil {
		log.Fatalf("%v", err)
	}
	commands, err := store.Commands(id)
	if err != nil {
		log.Fatalf("%v", err)
	}

	terrain := sim.FlatTerrain(record.MapCols, record.MapRows, 0)
	zones := sim.DefaultZones(terrain)
	result, err := replay.Verify(record, terrain, commands, zones)

	fmt.Printf("match %s\n", id)
	fmt.Printf("  final tick: %d\n", result.FinalTick)
	fmt.Printf("  digest:     %#x\n", result.Digest)
	teams := make([]sim.Team, 0, len(result.Scores))
	for team := range result.Scores {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	for _, team := range teams {
		fmt.Printf("  team %d:     %d VP\n", team, result.Scores[team])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "verification failed: %v\n", err)
		os.Exit(1)
	}
	if record.FinalDigest != 0 {
		fmt.Println("  verified against recorded digest")
	}
}
