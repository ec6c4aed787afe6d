package loam

// NodeMetadata is the frontmatter of one pose-graph node document.
//
// Numeric fields are kept loosely typed: Loam hands back json.Number in
// strict mode, YAML numbers otherwise, and quoted strings are also accepted.
// The compiler converts them to fixed point when the node is parsed.
type NodeMetadata struct {
	ID     string            `json:"id" mapstructure:"id"`
	Kind   string            `json:"kind" mapstructure:"kind"`
	Inputs map[string]string `json:"inputs" mapstructure:"inputs"`

	// Leaf config
	Clip   string        `json:"clip" mapstructure:"clip"`
	Frame  any           `json:"frame" mapstructure:"frame"`
	Play   string        `json:"play" mapstructure:"play"`
	Speed  any           `json:"speed" mapstructure:"speed"`
	Events []FrameEvents `json:"events" mapstructure:"events"`

	// Blend config
	Weight  any `json:"weight" mapstructure:"weight"`
	WeightY any `json:"weight_y" mapstructure:"weight_y"`

	// Stateful config
	Policy      string `json:"policy" mapstructure:"policy"`
	FadeTicks   any    `json:"fade_ticks" mapstructure:"fade_ticks"`
	SwitchTicks any    `json:"switch_ticks" mapstructure:"switch_ticks"`
	Window      any    `json:"window" mapstructure:"window"`
	Flag        bool   `json:"flag" mapstructure:"flag"`

	// General Metadata
	Metadata map[string]any `json:"metadata" mapstructure:"metadata"`
}

// FrameEvents names the events a leaf fires on Frame. Frontmatter keeps
// events as a list since Loam only round-trips string-keyed mappings.
type FrameEvents struct {
	Frame  int      `json:"frame" mapstructure:"frame"`
	Event  string   `json:"event,omitempty" mapstructure:"event"`
	Events []string `json:"events,omitempty" mapstructure:"events"`
}
