package service

import (
	"math/rand"

	"sennabot/models"
)

// The balance challenge is settled over automated blackjack hands. Both
// sides stand at 17 and ties are replayed without counting.

type card struct {
	face string
	suit string
}

var cardFaces = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
var cardSuits = []string{"♠", "♥", "♦", "♣"}

const standValue = 17
const bustLimit = 21

func newDeck() []card {
	deck := make([]card, 0, len(cardFaces)*len(cardSuits))
	for _, suit := range cardSuits {
		for _, face := range cardFaces {
			deck = append(deck, card{face: face, suit: suit})
		}
	}
	return deck
}

func shuffleDeck(deck []card) {
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

func cardValue(face string) int {
	switch face {
	case "A":
		return 11
	case "J", "Q", "K":
		return 10
	case "10":
		return 10
	default:
		return int(face[0] - '0')
	}
}

// handValue totals a hand, demoting aces from 11 to 1 while busting.
func handValue(hand []card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		v := cardValue(c.face)
		if v == 11 {
			aces++
		}
		total += v
	}
	for total > bustLimit && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// playBlackjackRound plays one automated hand from a fresh shuffled deck.
func playBlackjackRound() (userWon, tie bool) {
	deck := newDeck()
	shuffleDeck(deck)
	next := 0
	draw := func() card {
		c := deck[next]
		next++
		return c
	}

	user := []card{draw(), draw()}
	house := []card{draw(), draw()}
	for handValue(user) < standValue {
		user = append(user, draw())
	}
	if handValue(user) > bustLimit {
		return false, false
	}
	for handValue(house) < standValue {
		house = append(house, draw())
	}
	if handValue(house) > bustLimit {
		return true, false
	}
	u, h := handValue(user), handValue(house)
	if u == h {
		return false, true
	}
	return u > h, false
}

// playBlackjackSeries plays hands until one side reaches the required
// win count. Ties do not count as rounds.
func playBlackjackSeries() (userWins, houseWins, rounds int) {
	for userWins < models.ChallengeWinsNeeded && houseWins < models.ChallengeWinsNeeded {
		userWon, tie := playBlackjackRound()
		if tie {
			continue
		}
		rounds++
		if userWon {
			userWins++
		} else {
			houseWins++
		}
	}
	return userWins, houseWins, rounds
}
