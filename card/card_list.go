package card

import "math/rand"

// CardList is an ordered pile of cards. The "top" is the end of the slice.
type CardList []Card

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

// Shuffle applies a Fisher-Yates shuffle driven by rng: for i from the last
// index down to 1, swap with a uniform j in [0, i].
func (ds CardList) Shuffle(rng *rand.Rand) {
	for i := len(ds) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		ds[i], ds[j] = ds[j], ds[i]
	}
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

// PopCard removes and returns the top card, or CardInvalid when empty.
func (ds *CardList) PopCard() Card {
	totalCount := ds.Count()
	if totalCount == 0 {
		return CardInvalid
	}
	c := (*ds)[totalCount-1]
	*ds = (*ds)[:totalCount-1]
	return c
}

// Clone returns an independent copy.
func (ds CardList) Clone() CardList {
	if ds == nil {
		return nil
	}
	out := make(CardList, len(ds))
	copy(out, ds)
	return out
}
