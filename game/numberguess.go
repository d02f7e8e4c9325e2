package game

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

const maxGuessAttempts = 5

// GuessEntry records one submitted guess along with the hints it earned.
type GuessEntry struct {
	Role      Role   `json:"role"`
	Guess     int    `json:"guess"`
	Hint      string `json:"hint"`
	Feedback  string `json:"feedback"`
	Timestamp int64  `json:"timestamp"`
}

// NumberGuess is the shared guessing game: both players burn through one
// pool of five attempts at a secret in [1,100]. Every miss earns a
// direction hint plus a "smart hint" that escalates with the attempt
// number.
type NumberGuess struct {
	BaseGame
	secret   int
	guesses  []GuessEntry
	gameOver bool
	feedback string
}

func NewNumberGuess(roomID string) *NumberGuess {
	g := &NumberGuess{BaseGame: newBaseGame(roomID, TypeNumberGuess)}
	g.start()
	return g
}

func (g *NumberGuess) start() {
	g.secret = rand.Intn(100) + 1
	g.guesses = nil
	g.gameOver = false
	g.feedback = ""
	g.winner = OutcomeUnset
}

func (g *NumberGuess) Reset(ctx context.Context) error {
	g.start()
	return nil
}

// MakeGuess submits a candidate. Repeats are rejected without consuming an
// attempt. The fifth miss exhausts the game with no winner.
func (g *NumberGuess) MakeGuess(role Role, value int) error {
	if g.gameOver {
		return ErrGameOver
	}
	for _, prior := range g.guesses {
		if prior.Guess == value {
			return policyf("Number already guessed")
		}
	}

	attempt := len(g.guesses) + 1
	var hint, feedback string

	switch {
	case value == g.secret:
		g.winner = Outcome(role)
		g.gameOver = true
		feedback = "Correct! You found the number!"
	case attempt >= maxGuessAttempts:
		g.gameOver = true
		feedback = fmt.Sprintf("Game Over! The number was %d.", g.secret)
	default:
		if value < g.secret {
			feedback = "Higher"
		} else {
			feedback = "Lower"
		}
		hint = smartHint(value, g.secret, attempt)
	}

	g.guesses = append(g.guesses, GuessEntry{
		Role:      role,
		Guess:     value,
		Hint:      hint,
		Feedback:  feedback,
		Timestamp: time.Now().UnixMilli(),
	})
	g.feedback = feedback
	return nil
}

func (g *NumberGuess) Serialize() Snapshot {
	guesses := make([]GuessEntry, len(g.guesses))
	copy(guesses, g.guesses)

	// The secret stays server-side until the game is decided.
	var secret any
	if g.gameOver {
		secret = g.secret
	}

	return g.snapshot(Snapshot{
		"guesses":      guesses,
		"gameOver":     g.gameOver,
		"feedback":     g.feedback,
		"secretNumber": secret,
	})
}

// smartHint picks from a fixed escalating pool indexed by attempt number:
// weak structural facts first, a narrowed range last.
func smartHint(guess, secret, attempt int) string {
	switch attempt {
	case 1:
		if rand.Intn(2) == 0 {
			return parityHint(secret)
		}
		return primeHint(secret)
	case 2:
		if rand.Intn(2) == 0 {
			return divisibilityHint(secret)
		}
		return digitSumHint(guess, secret)
	case 3:
		if rand.Intn(2) == 0 {
			return distanceHint(guess, secret)
		}
		return coprimeHint(guess, secret)
	case 4:
		if rand.Intn(2) == 0 {
			return sharedDigitsHint(guess, secret)
		}
		return moduloHint(secret)
	default:
		return rangeHint(secret)
	}
}

func parityHint(secret int) string {
	if secret%2 == 0 {
		return "The secret number is Even."
	}
	return "The secret number is Odd."
}

func primeHint(secret int) string {
	if isPrime(secret) {
		return "The secret number is a Prime number!"
	}
	return "The secret number is a Composite number (not prime)."
}

func divisibilityHint(secret int) string {
	divs := digitDivisors(secret)
	if len(divs) == 0 {
		return "The secret number is not divisible by any digit from 2 to 9."
	}
	return fmt.Sprintf("The secret number is divisible by %d.", divs[rand.Intn(len(divs))])
}

func digitSumHint(guess, secret int) string {
	secretSum := digitSum(secret)
	guessSum := digitSum(guess)
	switch {
	case secretSum == guessSum:
		return "The digit sum is the same as your guess!"
	case secretSum > guessSum:
		return fmt.Sprintf("The digit sum of the secret number is higher than %d.", guessSum)
	default:
		return fmt.Sprintf("The digit sum of the secret number is lower than %d.", guessSum)
	}
}

func distanceHint(guess, secret int) string {
	diff := secret - guess
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return "You got it!"
	case diff <= 5:
		return "You are BURNING HOT! (Within 5)"
	case diff <= 10:
		return "You are Very Close! (Within 10)"
	case diff <= 25:
		return "You are Close. (Within 25)"
	default:
		return "You are Far away."
	}
}

func coprimeHint(guess, secret int) string {
	if gcd(secret, guess) == 1 {
		return fmt.Sprintf("The secret number and %d are Co-prime (share no common factors).", guess)
	}
	return fmt.Sprintf("The secret number and %d share a common factor > 1.", guess)
}

func sharedDigitsHint(guess, secret int) string {
	if hasSharedDigits(guess, secret) {
		return "The secret number shares at least one digit with your guess."
	}
	return "The secret number does not share any digits with your guess."
}

func moduloHint(secret int) string {
	return fmt.Sprintf("The secret number %% 7 is %d.", secret%7)
}

func rangeHint(secret int) string {
	lower := secret - (rand.Intn(5) + 1)
	if lower < 1 {
		lower = 1
	}
	upper := secret + (rand.Intn(5) + 1)
	if upper > 100 {
		upper = 100
	}
	return fmt.Sprintf("The number is between %d and %d.", lower, upper)
}

func isPrime(n int) bool {
	if n <= 1 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

func digitDivisors(n int) []int {
	var divs []int
	for i := 2; i <= 9; i++ {
		if n%i == 0 {
			divs = append(divs, i)
		}
	}
	return divs
}

func digitSum(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func hasSharedDigits(a, b int) bool {
	sa := strconv.Itoa(a)
	sb := strconv.Itoa(b)
	for _, d := range sa {
		for _, e := range sb {
			if d == e {
				return true
			}
		}
	}
	return false
}
