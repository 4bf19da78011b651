package config

// NOTE: frame files must sort lexicographically into playback order,
// use zero padded names like frame_00000001.jpg
const (
	DefaultExtension         = ".jpg"
	DefaultFrameRate         = 30.0
	DefaultMaxResidentFrames = 60 // 2 seconds at 30 fps
	DefaultLooping           = true

	// max frames a single clock advance may move after a stall
	CatchUpFrames = 5

	// all sizes are in bytes
	SizePixel = 4

	// extract
	ExtractFramePattern = "frame_%08d.jpg"

	// server
	DefaultListenAddr = ":9099"
	DefaultTickRate   = 60.0 // ticks per second
)
