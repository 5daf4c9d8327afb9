package mining

import (
	"fmt"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Tokenizer splits review text into the terms that are counted and clustered.
type Tokenizer interface {
	Terms(text string) []string
}

// contentPOS are the parts of speech kept as terms: nouns, verbs, adjectives.
var contentPOS = map[string]bool{
	"名詞":  true,
	"動詞":  true,
	"形容詞": true,
}

// Kagome tokenizes Japanese text with the IPA dictionary.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome loads the dictionary. It takes a moment; reuse the result.
func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	return &Kagome{t: t}, nil
}

// Terms returns the surface form of every noun, verb and adjective in text
// that the dictionary knows a base form for.
func (k *Kagome) Terms(text string) []string {
	var terms []string
	for _, tok := range k.t.Tokenize(text) {
		pos := tok.POS()
		if len(pos) == 0 || !contentPOS[pos[0]] {
			continue
		}
		if base, ok := tok.BaseForm(); !ok || base == "*" {
			continue
		}
		terms = append(terms, tok.Surface)
	}
	return terms
}
