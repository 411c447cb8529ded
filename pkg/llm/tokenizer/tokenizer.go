// Package tokenizer provides client-side token counting so the memory
// manager can size history without a network round trip.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/webpilot/pkg/types"
)

// encoding used for counting. cl100k_base matches the GPT-4 family closely
// enough for threshold decisions; exactness is not required.
const encodingName = "cl100k_base"

// perMessageOverhead approximates the per-message framing tokens the chat
// format adds around content.
const perMessageOverhead = 4

// Tokenizer counts tokens using tiktoken.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer. The tiktoken BPE tables are loaded once and
// cached by the library.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &Tokenizer{encoding: enc}, nil
}

// CountTokens returns the token count of a string.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessagesTokens returns the approximate token count of a message
// sequence, including structured action payloads and per-message framing.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += perMessageOverhead
		total += t.CountTokens(msg.Content)
		for _, action := range msg.Actions {
			total += t.CountTokens(action.Name)
			total += t.CountTokens(fmt.Sprintf("%v", action.Args))
		}
	}
	return total
}
