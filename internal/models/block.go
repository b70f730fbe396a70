package models

// BlockRun is a maximal contiguous run of trials sharing one block type
type BlockRun struct {
	BlockType     BlockType `json:"block_type"`
	StartTrial    int       `json:"start_trial"`
	EndTrial      int       `json:"end_trial"`
	InstanceIndex int       `json:"instance_index"` // ordinal occurrence of this block type in the session
	Trials        []int     `json:"trials"` // trial numbers in the run, ascending
}

// Contains reports whether trialNumber falls inside the run boundaries
func (r BlockRun) Contains(trialNumber int) bool {
	return trialNumber >= r.StartTrial && trialNumber <= r.EndTrial
}
