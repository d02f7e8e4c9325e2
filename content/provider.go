// Package content supplies riddle/answer pairs for board generation.
// Riddles normally come from an external API; an embedded pool backs
// offline runs and tests.
package content

import (
	"context"
	"math/rand"
	"strings"
)

// Riddle is one question/answer pair. Answers are matched case-insensitively
// after trimming, so providers should hand them over lowercased.
type Riddle struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Provider fetches a single riddle. Implementations may fail transiently;
// callers retry up to their own bound.
type Provider interface {
	Riddle(ctx context.Context) (Riddle, error)
}

// StaticProvider serves riddles from the embedded pool in random order.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

func (p *StaticProvider) Riddle(ctx context.Context) (Riddle, error) {
	if err := ctx.Err(); err != nil {
		return Riddle{}, err
	}
	return pool[rand.Intn(len(pool))], nil
}

// Normalize canonicalizes an answer for comparison.
func Normalize(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

var pool = []Riddle{
	{Question: "I speak without a mouth and hear without ears. I have no body, but I come alive with wind. What am I?", Answer: "echo"},
	{Question: "The more of this there is, the less you see. What is it?", Answer: "darkness"},
	{Question: "I have keys but no locks. I have a space but no room. You can enter, but can't go outside. What am I?", Answer: "keyboard"},
	{Question: "What has to be broken before you can use it?", Answer: "egg"},
	{Question: "I'm tall when I'm young, and I'm short when I'm old. What am I?", Answer: "candle"},
	{Question: "What comes once in a minute, twice in a moment, but never in a thousand years?", Answer: "m"},
	{Question: "I am not alive, but I grow; I don't have lungs, but I need air; I don't have a mouth, but water kills me. What am I?", Answer: "fire"},
	{Question: "What has many keys but can't open a single lock?", Answer: "piano"},
	{Question: "What has a head and a tail but no body?", Answer: "coin"},
	{Question: "What gets wetter as it dries?", Answer: "towel"},
	{Question: "Math: lim(x->3) (x^2 - 9) / (x - 3) = ?", Answer: "6"},
	{Question: "Math: integral from 0 to 2 of 3x^2 dx = ?", Answer: "8"},
	{Question: "Math: log2(32) = ?", Answer: "5"},
	{Question: "Math: If f(x) = 2x + 1, what is f(3)?", Answer: "7"},
	{Question: "Math: d/dx (sin x) at x=0 = ?", Answer: "1"},
	{Question: "Math: sqrt(64) = ?", Answer: "8"},
	{Question: "Math: 2^3 = ?", Answer: "8"},
	{Question: "Math: d/dx (x^2) at x=3 = ?", Answer: "6"},
	{Question: "Math: lim(x->inf) (4x + 1)/(x - 2) = ?", Answer: "4"},
	{Question: "Math: 5! / 4! = ?", Answer: "5"},
	{Question: "Math: sin(90 deg) = ?", Answer: "1"},
	{Question: "Math: 7 mod 4 = ?", Answer: "3"},
	{Question: "Math: | -9 | = ?", Answer: "9"},
	{Question: "Math: 3^2 - 2^3 = ?", Answer: "1"},
}
