// Package protocol describes the experimental protocols the analyzer supports:
// which columns each raw log must carry, how its trials are classified and
// which per-session metrics apply.
package protocol

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harrison/trialscope/internal/classify"
	tc "github.com/harrison/trialscope/internal/trialcsv"
)

// Protocol names as they appear in raw log filenames
const (
	TwoChoiceAuditory = "2ChoiceAuditory"
	TwoChoiceBlocks   = "2ChoiceBlocks"
	AdaptSensorimotor = "AdaptSensorimotor"
	SpoutSampling     = "SpoutSamp"
	FreeLick          = "FreeLick"
	FreePressing      = "FreePressing"
)

// Features selects the per-session metrics computed for a protocol
type Features struct {
	SignalDetection bool // HR, FA and d′
	Latency         bool // lick latency from tone onset per side
	Stimuli         bool // per-tone counts and performance
	Blocks          bool // block segmentation and per-block reports
	Licks           bool // lick counts per spout
	Deduplicate     bool // resolve repeated trial numbers before classification
}

// Protocol is one supported experimental protocol
type Protocol struct {
	Name     string
	Title    string
	Required []string
	Features Features

	rules func() classify.RuleTable
}

// Classifier returns a classifier using the protocol's rule table
func (p *Protocol) Classifier() *classify.Classifier {
	return classify.New(p.rules())
}

// UnknownProtocolError is returned for a protocol name with no registry entry
type UnknownProtocolError struct {
	Name string
}

func (e *UnknownProtocolError) Error() string {
	return fmt.Sprintf("unknown protocol %q (supported: %s)", e.Name, strings.Join(Names(), ", "))
}

var twoChoiceColumns = []string{
	tc.ColTrialNumber, tc.ColTrialStart, tc.ColLickTime, tc.ColLeftSpout, tc.ColRightSpout,
	tc.ColReward, tc.ColPunishment, tc.ColOmission,
}

var registry = map[string]*Protocol{
	TwoChoiceAuditory: {
		Name:     TwoChoiceAuditory,
		Title:    "Two-choice Auditory task",
		Required: twoChoiceColumns,
		Features: Features{SignalDetection: true, Latency: true, Stimuli: true, Deduplicate: true},
		rules:    classify.TwoChoiceRules,
	},
	TwoChoiceBlocks: {
		Name:     TwoChoiceBlocks,
		Title:    "Two-choice Auditory task (blocks)",
		Required: withColumns(twoChoiceColumns, tc.ColBlock),
		Features: Features{SignalDetection: true, Latency: true, Stimuli: true, Blocks: true, Deduplicate: true},
		rules:    classify.TwoChoiceRules,
	},
	AdaptSensorimotor: {
		Name:     AdaptSensorimotor,
		Title:    "Adaptive sensorimotor task",
		Required: withColumns(twoChoiceColumns, tc.ColBlock),
		Features: Features{SignalDetection: true, Latency: true, Stimuli: true, Blocks: true, Deduplicate: true},
		rules:    classify.TwoChoiceRules,
	},
	SpoutSampling: {
		Name:  SpoutSampling,
		Title: "Spout Sampling",
		Required: []string{
			tc.ColTrialNumber, tc.ColLeftSpout, tc.ColRightSpout, tc.ColReward, tc.ColOmission, tc.ColLick,
		},
		Features: Features{Latency: true, Licks: true, Deduplicate: true},
		rules:    classify.SpoutSamplingRules,
	},
	FreeLick: {
		Name:     FreeLick,
		Title:    "Free Licking",
		Required: []string{tc.ColLeftSpout, tc.ColRightSpout, tc.ColLick},
		Features: Features{Licks: true},
		rules:    classify.FreeLickRules,
	},
	FreePressing: {
		Name:  FreePressing,
		Title: "Free Pressing",
		Required: []string{
			tc.ColLick, tc.ColLeftSpout, tc.ColRightSpout, tc.ColQW, tc.ColTrialStart, tc.ColTrialEnd,
			tc.ColLickTime, tc.ColSessionStart,
		},
		Features: Features{Licks: true},
		rules:    classify.FreeLickRules,
	},
}

// Lookup returns the protocol registered under name, ignoring case
func Lookup(name string) (*Protocol, error) {
	if p, ok := registry[name]; ok {
		return p, nil
	}
	for key, p := range registry {
		if strings.EqualFold(key, name) {
			return p, nil
		}
	}
	return nil, &UnknownProtocolError{Name: name}
}

// Names returns the registered protocol names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func withColumns(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
