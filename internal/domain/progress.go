package domain

import "math"

// MaxActiveStageProgress caps partial progress on an unfinished stage
const MaxActiveStageProgress = 99

// Normalize repairs the stage-completion state and recomputes the derived progress fields.
// CompletedStages is reduced to the longest valid routing prefix.
func (o *Order) Normalize(routing *Routing) {
	prefix := routing.SanitizePrefix(o.CompletedStages)
	o.CompletedStages = prefix
	o.NextStage = routing.NextStage(len(prefix))
	o.CompletedWeight = routing.CompletedWeight(len(prefix))

	if o.NextStage == StageNone {
		o.Progress = 100
		o.Status = OrderStatusCompleted
		o.ActiveStageProgress = 0
		return
	}

	o.ActiveStageProgress = clamp(o.ActiveStageProgress, 0, MaxActiveStageProgress)
	raw := float64(o.CompletedWeight) + float64(routing.Weight(o.NextStage))*o.ActiveStageProgress/100
	o.Progress = clamp(round2(raw), 0, 99)
	o.Status = OrderStatusInProgress
}

// MigrateLegacyProgress imports a record that only carries a bare numeric progress value.
// The value is cumulative over the routing weights. A record without completed stages gets the
// prefix whose weight the value reaches; a record with status Completed or progress 100 is
// complete. The remainder is solved as the partial progress of the next stage, then the order is
// normalized as usual.
func MigrateLegacyProgress(o *Order, routing *Routing, rawProgress float64) {
	if o.Status == OrderStatusCompleted || rawProgress >= 100 {
		o.CompletedStages = routing.Names()
		o.ActiveStageProgress = 0
		o.Normalize(routing)
		return
	}

	prefix := routing.SanitizePrefix(o.CompletedStages)
	if len(prefix) == 0 {
		names := routing.Names()
		k := 0
		for k < len(names) && rawProgress >= float64(routing.CompletedWeight(k+1)) {
			k++
		}
		prefix = names[:k]
	}
	o.CompletedStages = prefix
	completedWeight := float64(routing.CompletedWeight(len(prefix)))
	next := routing.NextStage(len(prefix))

	if next != StageNone && rawProgress > completedWeight {
		weight := float64(routing.Weight(next))
		o.ActiveStageProgress = clamp((rawProgress-completedWeight)*100/weight, 0, MaxActiveStageProgress)
	}

	o.Normalize(routing)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
