package workflow

import (
	"log/slog"

	"ytbili/internal/queue"
	"ytbili/internal/stageexec"
)

type laneState struct {
	kind               queue.ProcessingLane
	steps              []stageexec.Step
	statusOrder        []queue.Status
	processingStatuses []queue.Status
	logger             *slog.Logger
}

func (l *laneState) finalize() {
	l.statusOrder = make([]queue.Status, 0, len(l.steps))
	l.processingStatuses = make([]queue.Status, 0, len(l.steps))
	for _, step := range l.steps {
		l.statusOrder = append(l.statusOrder, step.Start)
		l.processingStatuses = append(l.processingStatuses, step.Processing)
	}
}

func (l *laneState) stepForStatus(status queue.Status) (stageexec.Step, bool) {
	if l == nil {
		return stageexec.Step{}, false
	}
	return stageexec.StepFor(l.steps, status)
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set stageexec.StageSet) {
	lanes := make(map[queue.ProcessingLane]*laneState)
	order := make([]queue.ProcessingLane, 0, 2)
	for _, step := range set.Steps() {
		lane, ok := lanes[step.Lane]
		if !ok {
			lane = &laneState{kind: step.Lane}
			lanes[step.Lane] = lane
			order = append(order, step.Lane)
		}
		lane.steps = append(lane.steps, step)
	}
	for _, lane := range lanes {
		lane.finalize()
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
