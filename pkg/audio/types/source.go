package types

import (
	"fmt"
	"strings"
)

// Source is the logical capture source requested from the device. Values
// match the conventional input source identifiers so that configuration files
// written for other recorders keep working.
type Source int

const (
	SourceDefault            = Source(0)
	SourceMic                = Source(1)
	SourceVoiceUplink        = Source(2)
	SourceVoiceDownlink      = Source(3)
	SourceVoiceCall          = Source(4)
	SourceCamcorder          = Source(5)
	SourceVoiceRecognition   = Source(6)
	SourceVoiceCommunication = Source(7)
	SourceRemoteSubmix       = Source(8)
	SourceUnprocessed        = Source(9)
	SourceVoicePerformance   = Source(10)
	SourceEchoReference      = Source(1997)
	SourceRadioTuner         = Source(1998)
	SourceHotword            = Source(1999)
	SourceUltrasound         = Source(2000)
)

var sourceNames = map[Source]string{
	SourceDefault:            "DEFAULT",
	SourceMic:                "MIC",
	SourceVoiceUplink:        "VOICE_UPLINK",
	SourceVoiceDownlink:      "VOICE_DOWNLINK",
	SourceVoiceCall:          "VOICE_CALL",
	SourceCamcorder:          "CAMCORDER",
	SourceVoiceRecognition:   "VOICE_RECOGNITION",
	SourceVoiceCommunication: "VOICE_COMMUNICATION",
	SourceRemoteSubmix:       "REMOTE_SUBMIX",
	SourceUnprocessed:        "UNPROCESSED",
	SourceVoicePerformance:   "VOICE_PERFORMANCE",
	SourceEchoReference:      "ECHO_REFERENCE",
	SourceRadioTuner:         "RADIO_TUNER",
	SourceHotword:            "HOTWORD",
	SourceUltrasound:         "ULTRASOUND",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_%d", int(s))
}

// ParseSource parses a source name case-insensitively.
func ParseSource(name string) (Source, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for source, sourceName := range sourceNames {
		if sourceName == name {
			return source, nil
		}
	}
	return SourceMic, fmt.Errorf("unknown audio source '%s'", name)
}
