package refresh

// Static is a fixed label, drawn once by the startup splash.
type Static struct {
	label string
	drawn bool
}

func NewStatic(label string) *Static {
	return &Static{label: label}
}

func (s *Static) Name() string {
	return "static"
}

func (s *Static) Compose(force bool) (Content, bool) {
	return Content{Primary: s.label}, force || !s.drawn
}

func (s *Static) Commit() {
	s.drawn = true
}
