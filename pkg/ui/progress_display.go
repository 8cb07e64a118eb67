package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay draws a single updating line while identifiers are
// resolved one after another
type ProgressDisplay struct {
	mu         sync.Mutex
	stage      string
	total      int
	done       int
	resolved   int
	unresolved int
	current    string
	startTime  time.Time
	isDebug    bool
}

// NewProgressDisplay creates a display for total items
func NewProgressDisplay(stage string, total int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		stage:     stage,
		total:     total,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// Start marks id as in flight
func (p *ProgressDisplay) Start(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = id
	if !p.isDebug {
		p.printProgress()
	}
}

// Resolved records a recovered filename
func (p *ProgressDisplay) Resolved(id, filename string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.resolved++
	if p.isDebug {
		p.printf("\n%s %s • %s\n", Green("✓"), id, filename)
		return
	}
	p.printProgress()
}

// Unresolved records an identifier with no filename
func (p *ProgressDisplay) Unresolved(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.unresolved++
	if p.isDebug {
		p.printf("\n%s %s unresolved\n", Red("✗"), id)
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) printProgress() {
	width := 20
	filled := 0
	if p.total > 0 {
		filled = p.done * width / p.total
	}
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)

	line := fmt.Sprintf("%s [%s] %d/%d • %s",
		Cyan(p.stage),
		bar,
		p.done,
		p.total,
		p.calculateETA(),
	)
	if p.current != "" {
		line += fmt.Sprintf(" • %s", p.current)
	}
	if p.unresolved > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d unresolved", p.unresolved)))
	}

	p.printf("\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Complete prints the closing line
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.printf("\n%s Resolved %d of %d identifiers in %s\n",
		Green("✓"),
		p.resolved,
		p.total,
		formatDuration(time.Since(p.startTime)),
	)
}

func (p *ProgressDisplay) printf(format string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(Output(), format, args...)
}

func (p *ProgressDisplay) calculateETA() string {
	if p.done == 0 {
		return "calculating..."
	}
	perItem := time.Since(p.startTime) / time.Duration(p.done)
	return formatDuration(perItem * time.Duration(p.total-p.done))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
