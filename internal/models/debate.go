package models

import "strings"

// Utterance is one argument inside a debate transcript.
type Utterance struct {
	Side  string `json:"side"`
	Round int    `json:"round"`
	Text  string `json:"text"`
}

// DebateState tracks a bounded multi-round exchange. The same shape serves
// both the bull/bear investment debate and the risky/safe/neutral risk
// review; sides are keyed by name. RoundCount increments once per completed
// rotation through the configured side order.
type DebateState struct {
	Sides         []string            `json:"sides"`
	SideHistories map[string][]string `json:"side_histories"`
	Transcript    []Utterance         `json:"transcript"`
	LatestBySide  map[string]string   `json:"latest_by_side"`
	LatestSide    string              `json:"latest_side"`
	LatestText    string              `json:"latest_text"`
	RoundCount    int                 `json:"round_count"`
	JudgeRuling   string              `json:"judge_ruling"`
}

func NewDebateState(sides ...string) *DebateState {
	d := &DebateState{
		Sides:         append([]string(nil), sides...),
		SideHistories: make(map[string][]string, len(sides)),
		LatestBySide:  make(map[string]string, len(sides)),
	}
	for _, s := range sides {
		d.SideHistories[s] = nil
	}
	return d
}

// Append records one argument for a side and updates the latest pointers.
func (d *DebateState) Append(side, text string) {
	d.SideHistories[side] = append(d.SideHistories[side], text)
	d.Transcript = append(d.Transcript, Utterance{Side: side, Round: d.RoundCount, Text: text})
	d.LatestBySide[side] = text
	d.LatestSide = side
	d.LatestText = text
}

// History renders the full transcript as labeled lines, the form both debate
// producers and judges consume.
func (d *DebateState) History() string {
	if len(d.Transcript) == 0 {
		return ""
	}
	var b strings.Builder
	for i, u := range d.Transcript {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(u.Side)
		b.WriteString(": ")
		b.WriteString(u.Text)
	}
	return b.String()
}

func (d *DebateState) Clone() *DebateState {
	if d == nil {
		return nil
	}
	cp := &DebateState{
		Sides:         append([]string(nil), d.Sides...),
		SideHistories: make(map[string][]string, len(d.SideHistories)),
		Transcript:    append([]Utterance(nil), d.Transcript...),
		LatestBySide:  make(map[string]string, len(d.LatestBySide)),
		LatestSide:    d.LatestSide,
		LatestText:    d.LatestText,
		RoundCount:    d.RoundCount,
		JudgeRuling:   d.JudgeRuling,
	}
	for k, v := range d.SideHistories {
		cp.SideHistories[k] = append([]string(nil), v...)
	}
	for k, v := range d.LatestBySide {
		cp.LatestBySide[k] = v
	}
	return cp
}
