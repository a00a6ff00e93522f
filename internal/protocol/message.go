package protocol

import (
	"errors"
	"fmt"
)

// Segment kinds accepted in an outgoing message chain.
const (
	SegmentPlain = "Plain"
	SegmentAt    = "At"
	SegmentImage = "Image"
	SegmentFile  = "File"
)

// MaxPlainRunes caps the total text payload of one chain.
const MaxPlainRunes = 4500

var ErrMessageTooLong = errors.New("message chain exceeds length limit")

// Segment is one element of a message chain.
type Segment struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Target int64  `json:"target,omitempty"`
	URL    string `json:"url,omitempty"`
	ID     string `json:"id,omitempty"`
}

type MessageChain []Segment

func (c MessageChain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: messageChain must not be empty", ErrInvalidRequest)
	}
	runes := 0
	for i, seg := range c {
		switch seg.Type {
		case SegmentPlain:
			if seg.Text == "" {
				return fmt.Errorf("%w: messageChain[%d] plain segment has no text", ErrInvalidRequest, i)
			}
			runes += len([]rune(seg.Text))
		case SegmentAt:
			if seg.Target <= 0 {
				return fmt.Errorf("%w: messageChain[%d] at segment needs a target", ErrInvalidRequest, i)
			}
		case SegmentImage:
			if seg.URL == "" && seg.ID == "" {
				return fmt.Errorf("%w: messageChain[%d] image segment needs url or id", ErrInvalidRequest, i)
			}
		case SegmentFile:
			if seg.ID == "" {
				return fmt.Errorf("%w: messageChain[%d] file segment needs an id", ErrInvalidRequest, i)
			}
		default:
			return fmt.Errorf("%w: messageChain[%d] has unknown type %q", ErrInvalidRequest, i, seg.Type)
		}
	}
	if runes > MaxPlainRunes {
		return ErrMessageTooLong
	}
	return nil
}
