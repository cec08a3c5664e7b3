package types

import (
	"fmt"
)

type SampleRate uint32

type Channel uint32

// ChannelLayout is a device-facing token describing which capture channels
// are active.
type ChannelLayout uint32

const (
	ChannelLayoutUndefined = ChannelLayout(0)
	ChannelLayoutStereo    = ChannelLayout(0x0C)
	ChannelLayoutMono      = ChannelLayout(0x10)
)

// ChannelLayoutForCount returns the layout token for the given amount of
// channels: the canonical mono/stereo tokens for 1 and 2, and a bitmask
// with bit i set for channel i for 3..16.
func ChannelLayoutForCount(channels Channel) (ChannelLayout, error) {
	switch {
	case channels == 1:
		return ChannelLayoutMono, nil
	case channels == 2:
		return ChannelLayoutStereo, nil
	case channels >= 3 && channels <= MaxChannels:
		return ChannelLayout(uint32(1)<<channels - 1), nil
	default:
		return ChannelLayoutUndefined, fmt.Errorf("channel count %d is outside of [1, %d]", channels, MaxChannels)
	}
}

const (
	MaxChannels = Channel(16)
)

func (l ChannelLayout) String() string {
	switch l {
	case ChannelLayoutUndefined:
		return "undefined"
	case ChannelLayoutMono:
		return "mono"
	case ChannelLayoutStereo:
		return "stereo"
	default:
		return fmt.Sprintf("mask(0x%X)", uint32(l))
	}
}
