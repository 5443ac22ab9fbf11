package scheduler

import "go.trai.ch/bake/internal/core/domain"

// GetNodeStatusMap returns a copy of the internal node status map.
// This is exported for testing purposes only.
func (s *Scheduler) GetNodeStatusMap() map[string]domain.NodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statusMap := make(map[string]domain.NodeState, len(s.nodeStatus))
	for k, v := range s.nodeStatus {
		statusMap[k.String()] = v
	}
	return statusMap
}
