package agent

import (
	"context"
	"strings"

	"castpilot/internal/farcaster"
)

// maxCastLength is the byte limit of a single cast.
const maxCastLength = 320

// Dispatcher publishes casts.
type Dispatcher interface {
	SendCast(ctx context.Context, signerUUID, text string, parent *farcaster.ParentRef) (*farcaster.CastRef, error)
}

// sentChunk pairs a published cast with the text it carried.
type sentChunk struct {
	Ref  farcaster.CastRef
	Text string
}

// dispatchReply posts the reply, splitting long text into a chain of
// casts each replying to the previous one. The first send failure stops
// the chain; chunks already sent are returned alongside the error so
// the caller can still record them.
func dispatchReply(ctx context.Context, d Dispatcher, signerUUID, text string, parent *farcaster.ParentRef) ([]sentChunk, error) {
	chunks := splitText(text, maxCastLength)

	var sent []sentChunk
	for _, chunk := range chunks {
		ref, err := d.SendCast(ctx, signerUUID, chunk, parent)
		if err != nil {
			return sent, err
		}
		sent = append(sent, sentChunk{Ref: *ref, Text: chunk})
		parent = &farcaster.ParentRef{Hash: ref.Hash}
	}

	return sent, nil
}

// splitText splits text into chunks of at most maxLen bytes, preferring
// paragraph, then sentence, then word boundaries.
func splitText(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxLen {
		cut := findSplit(text, maxLen)
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func findSplit(text string, maxLen int) int {
	window := text[:maxLen]

	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return idx + len(sep)
		}
	}

	// No boundary at all; hard cut but avoid splitting a rune.
	cut := maxLen
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		cut = maxLen
	}
	return cut
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
