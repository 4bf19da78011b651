package player

// Status is a read only snapshot of a player.
type Status struct {
	Name           string  `json:"name"`
	Dir            string  `json:"dir"`
	Loaded         bool    `json:"loaded"`
	Playing        bool    `json:"playing"`
	Looping        bool    `json:"looping"`
	FrameRate      float64 `json:"frameRate"`
	Frames         int     `json:"frames"`
	Index          int     `json:"index"`
	DisplayedIndex int     `json:"displayedIndex"`
	Elapsed        float64 `json:"elapsed"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Resident       int     `json:"resident"`
	MaxResident    int     `json:"maxResident"`
	MemoryBytes    int     `json:"memoryBytes"`
	LastError      string  `json:"lastError,omitempty"`
}

func (p *Player) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Status{
		Name:           p.name,
		Dir:            p.dir,
		Looping:        p.cfg.Looping,
		FrameRate:      p.cfg.FrameRate,
		MaxResident:    p.cfg.MaxResidentFrames,
		DisplayedIndex: -1,
	}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	if p.clock == nil {
		return s
	}

	st := p.clock.State()
	s.Loaded = true
	s.Playing = st.Playing
	s.Index = st.Index
	s.Elapsed = st.Elapsed
	s.Frames = p.clock.Len()
	s.Resident = p.cache.ResidentCount()
	s.MemoryBytes = p.cache.MemoryUsageBytes()
	if p.frame != nil {
		s.DisplayedIndex = p.frame.Index
		s.Width = p.frame.Width()
		s.Height = p.frame.Height()
	}
	return s
}
