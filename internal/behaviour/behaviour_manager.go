package behaviour

// FrameBehaviour is ticked once per rendered frame.
type FrameBehaviour interface {
	Start()
	Update(deltaTime float64)
}

type BehaviourWrapper struct {
	Behaviour FrameBehaviour
	started   bool
}

type BehaviourManager struct {
	behaviours []BehaviourWrapper
}

func NewBehaviourManager() *BehaviourManager {
	return &BehaviourManager{}
}

func (m *BehaviourManager) Add(behaviour FrameBehaviour) {
	m.behaviours = append(m.behaviours, BehaviourWrapper{Behaviour: behaviour, started: false})
}

func (m *BehaviourManager) Len() int {
	return len(m.behaviours)
}

// UpdateAll starts new behaviours, then updates every behaviour in insertion order.
func (m *BehaviourManager) UpdateAll(deltaTime float64) {
	for i := range m.behaviours {
		if !m.behaviours[i].started {
			m.behaviours[i].Behaviour.Start()
			m.behaviours[i].started = true
		}
		m.behaviours[i].Behaviour.Update(deltaTime)
	}
}
