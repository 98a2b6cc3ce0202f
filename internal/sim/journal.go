package sim

// Journal accumulates patches and attack outcomes generated during a tick
// and keeps a rolling window of recent keyframes for recovery after
// delta loss.
type Journal struct {
	patches   []Patch
	outcomes  []AttackOutcome
	keyframes []Keyframe
	maxFrames int
}

const defaultJournalKeyframeCapacity = 8

func newJournal(keyframeCapacity int) *Journal {
	if keyframeCapacity <= 0 {
		keyframeCapacity = defaultJournalKeyframeCapacity
	}
	return &Journal{
		patches:   make([]Patch, 0),
		outcomes:  make([]AttackOutcome, 0),
		keyframes: make([]Keyframe, 0, keyframeCapacity),
		maxFrames: keyframeCapacity,
	}
}

// Record appends one patch to the current tick's buffer.
func (j *Journal) Record(p Patch) {
	j.patches = append(j.patches, p)
}

// RecordOutcome appends one resolved attack outcome.
func (j *Journal) RecordOutcome(o AttackOutcome) {
	j.outcomes = append(j.outcomes, o)
}

// Drain returns the staged patches and outcomes and clears the buffers.
// Called once per tick when the delta is emitted.
func (j *Journal) Drain() ([]Patch, []AttackOutcome) {
	if len(j.patches) == 0 && len(j.outcomes) == 0 {
		return nil, nil
	}
	patches := make([]Patch, len(j.patches))
	copy(patches, j.patches)
	outcomes := make([]AttackOutcome, len(j.outcomes))
	copy(outcomes, j.outcomes)
	j.patches = j.patches[:0]
	j.outcomes = j.outcomes[:0]
	return patches, outcomes
}

// PurgeEntity drops staged patches for an entity removed in the same tick
// so receivers never see updates for a unit after its removal record.
func (j *Journal) PurgeEntity(entityID string) {
	kept := j.patches[:0]
	for _, p := range j.patches {
		if p.EntityID == entityID && p.Kind != PatchUnitRemoved {
			continue
		}
		kept = append(kept, p)
	}
	j.patches = kept
}

// RecordKeyframe stores a full snapshot, evicting the oldest frame past
// capacity.
func (j *Journal) RecordKeyframe(frame Keyframe) {
	j.keyframes = append(j.keyframes, frame)
	if len(j.keyframes) > j.maxFrames {
		copy(j.keyframes, j.keyframes[1:])
		j.keyframes = j.keyframes[:len(j.keyframes)-1]
	}
}

// KeyframeAt returns the stored snapshot for a tick, if still retained.
func (j *Journal) KeyframeAt(tick uint64) (Keyframe, bool) {
	for i := len(j.keyframes) - 1; i >= 0; i-- {
		if j.keyframes[i].Tick == tick {
			return j.keyframes[i], true
		}
	}
	return Keyframe{}, false
}

// LatestKeyframe returns the newest stored snapshot.
func (j *Journal) LatestKeyframe() (Keyframe, bool) {
	if len(j.keyframes) == 0 {
		return Keyframe{}, false
	}
	return j.keyframes[len(j.keyframes)-1], true
}

// KeyframeWindow reports the retained tick range for diagnostics.
func (j *Journal) KeyframeWindow() (oldest, newest uint64, size int) {
	if len(j.keyframes) == 0 {
		return 0, 0, 0
	}
	return j.keyframes[0].Tick, j.keyframes[len(j.keyframes)-1].Tick, len(j.keyframes)
}
