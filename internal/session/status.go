package session

// StatusMessages rotate under the spinner while an analysis is running.
var StatusMessages = []string{
	"Analyzing your photo...",
	"Looking at facial symmetry...",
	"Checking skin clarity...",
	"Studying the lighting...",
	"Writing a few tips...",
}

// Status returns the rotating status line for the given tick count.
func Status(tick int) string {
	n := len(StatusMessages)
	return StatusMessages[(tick%n+n)%n]
}
