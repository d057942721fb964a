// Command testgame is a deterministic slot machine fixture speaking the
// same console protocol as the real game. It is built by tests and driven
// through pipes.
//
// Behavior:
//   - Asks "Would you like to play the slots? (Yes/yes/Y/y) : "
//   - "Yes", "yes", "Y", "y": starts playing
//   - "No", "no", "N", "n": prints the quit message and exits 0
//   - Anything else: prints the invalid answer message and asks again
//   - Each round asks for a wager; a wager outside 1..bankroll is asked again
//   - Three equal reels pay ten times the wager, two equal pay double,
//     otherwise the wager is lost
//   - Exits 0 with the broke message once the bankroll reaches zero
//   - Exits 0 with the quit message after -rounds rounds (0 plays forever)
//   - Exits 1 when stdin closes
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

var symbols = []string{"Cherry", "Lemon", "Bell", "Seven"}

func main() {
	seed := flag.Uint64("seed", 1, "reel seed")
	bankroll := flag.Int64("bankroll", 100, "starting bankroll")
	rounds := flag.Int("rounds", 0, "rounds before quitting, 0 plays forever")
	crlf := flag.Bool("crlf", false, "terminate lines with CRLF")
	flag.Parse()

	eol := "\n"
	if *crlf {
		eol = "\r\n"
	}

	out := bufio.NewWriter(os.Stdout)
	in := bufio.NewScanner(os.Stdin)
	reels := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	say := func(format string, args ...any) {
		fmt.Fprintf(out, format, args...)
		_ = out.Flush()
	}
	read := func() string {
		if !in.Scan() {
			os.Exit(1)
		}
		return strings.TrimSpace(in.Text())
	}
	quit := func() {
		say("Sad to see you go! You still have $%d left. Come again soon! Thanks!%s", *bankroll, eol)
		os.Exit(0)
	}

	for {
		say("Would you like to play the slots? (Yes/yes/Y/y) : ")
		answer := read()
		if answer == "Yes" || answer == "yes" || answer == "Y" || answer == "y" {
			break
		}
		if answer == "No" || answer == "no" || answer == "N" || answer == "n" {
			quit()
		}
		say("That wasn't quite the correct answer. Try again.%s", eol)
	}

	for played := 0; ; played++ {
		if *rounds > 0 && played == *rounds {
			quit()
		}

		var wager int64
		for {
			say("You have $%d. How much would you like to wager? ", *bankroll)
			n, err := strconv.ParseInt(read(), 10, 64)
			if err == nil && n >= 1 && n <= *bankroll {
				wager = n
				break
			}
		}

		a, b, c := spin(reels), spin(reels), spin(reels)
		line := fmt.Sprintf("%s | %s | %s", a, b, c)
		*bankroll -= wager
		switch {
		case a == b && b == c:
			*bankroll += wager * 10
			say("JACKPOT! %s%s", line, eol)
		case a == b || b == c || a == c:
			*bankroll += wager * 2
			say("You won! %s%s", line, eol)
		default:
			say("Didn't win this time. %s%s", line, eol)
		}
		say("You now have $%d.%s", *bankroll, eol)

		if *bankroll <= 0 {
			say("You've run out of money! Thanks for coming! Come back soon!%s", eol)
			os.Exit(0)
		}
	}
}

func spin(r *rand.Rand) string {
	return symbols[r.IntN(len(symbols))]
}
