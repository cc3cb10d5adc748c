package renderer

// Scene is the graph root: the models to draw and the environment lighting them.
type Scene struct {
	// Environment lights and reflects on every model. It is never drawn as a background.
	Environment *EnvironmentMap
	models      []*Model
}

func NewScene() *Scene {
	return &Scene{}
}

// Add attaches a model. Adding the same model twice is a no-op.
func (s *Scene) Add(model *Model) {
	for _, m := range s.models {
		if m == model {
			return
		}
	}
	s.models = append(s.models, model)
}

func (s *Scene) Models() []*Model {
	return s.models
}

func (s *Scene) Len() int {
	return len(s.models)
}
