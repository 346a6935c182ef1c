package card

import "math/rand"

// Card is a red shift card, a named list of actions run in order.
type Card struct {
	ID      string   `json:"id"`
	Text    string   `json:"text,omitempty"`
	Actions []Action `json:"-"`
}

// CardStack is a pile of indexes into some list of cards.
type CardStack []int

func NewCardStack(size int, rng *rand.Rand) CardStack {
	stack := CardStack{}
	for i := 0; i < size; i++ {
		stack = append(stack, i)
	}
	rng.Shuffle(len(stack), func(i, j int) { stack[i], stack[j] = stack[j], stack[i] })
	return stack
}

func (stack CardStack) Take() (int, CardStack) {
	if len(stack) == 0 {
		return -1, stack
	}

	out := stack[0]
	rest := stack[1:]
	return out, rest
}

func (stack CardStack) Return(card int) CardStack {
	return append(stack, card)
}

// Deck deals cards from a fixed pool. Drawn cards go back to the bottom, and
// an empty pile is refilled from the whole pool and shuffled.
type Deck struct {
	pool []Card
	pile CardStack
	rng  *rand.Rand
}

func NewDeck(pool []Card, rng *rand.Rand) *Deck {
	return &Deck{pool: pool, rng: rng}
}

// Draw takes the top card. It is false only if the pool is empty.
func (d *Deck) Draw() (Card, bool) {
	if len(d.pool) == 0 {
		return Card{}, false
	}
	if len(d.pile) == 0 {
		d.pile = NewCardStack(len(d.pool), d.rng)
	}

	var i int
	i, d.pile = d.pile.Take()
	d.pile = d.pile.Return(i)
	return d.pool[i], true
}

// Len is how many cards are in the pile right now.
func (d *Deck) Len() int {
	return len(d.pile)
}
