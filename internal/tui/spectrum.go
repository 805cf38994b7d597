// Package tui renders the live analysis output as a column of frequency
// bars in the terminal.
package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spectra/internal/analysis"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

const displayBands = 32

// resultMsg carries one analysis result into the Bubble Tea update loop.
type resultMsg analysis.Result

// SpectrumModel is the Bubble Tea model for the terminal spectrum view.
// It consumes results from a worker subscription channel; pressing p
// toggles between the magnitude and power displays.
type SpectrumModel struct {
	results   <-chan analysis.Result
	latest    analysis.Result
	haveData  bool
	showPower bool
	width     int
	height    int
}

// NewSpectrumModel creates the view reading from the given subscription.
func NewSpectrumModel(results <-chan analysis.Result) SpectrumModel {
	return SpectrumModel{results: results, width: 80, height: 24}
}

// Init starts listening for results.
func (m SpectrumModel) Init() tea.Cmd {
	return m.waitForResult()
}

func (m SpectrumModel) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-m.results
		if !ok {
			return tea.Quit()
		}
		return resultMsg(result)
	}
}

// Update handles results, resizes and key presses.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.latest = analysis.Result(msg)
		m.haveData = true
		return m, m.waitForResult()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "p":
			m.showPower = !m.showPower
			return m, nil
		}
	}
	return m, nil
}

// View renders the bars.
func (m SpectrumModel) View() string {
	var b strings.Builder

	mode := "magnitude"
	if m.showPower {
		mode = "power (dB)"
	}
	b.WriteString(titleStyle.Render("spectra"))
	b.WriteString(infoStyle.Render(fmt.Sprintf("  %s · p: toggle · q: quit\n\n", mode)))

	if !m.haveData {
		b.WriteString(infoStyle.Render("waiting for audio...\n"))
		return b.String()
	}

	bands := groupBands(m.spectrum(), displayBands)
	b.WriteString(barStyle.Render(renderBars(bands)))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("rms %.4f   peak %.4f   seq %d\n",
		m.latest.RMS, m.latest.Peak, m.latest.Seq)))
	return b.String()
}

func (m SpectrumModel) spectrum() []float64 {
	if m.showPower {
		return m.latest.Power
	}
	return m.latest.Magnitude
}

// groupBands folds the spectrum into count logarithmically spaced bands so
// low frequencies get proportionally more resolution, the way a music
// visualizer reads best.
func groupBands(spectrum []float64, count int) []float64 {
	out := make([]float64, count)
	maxBin := len(spectrum)
	if maxBin == 0 {
		return out
	}

	for b := 0; b < count; b++ {
		lo := int(math.Pow(float64(maxBin), float64(b)/float64(count)))
		hi := int(math.Pow(float64(maxBin), float64(b+1)/float64(count)))
		if lo < 1 {
			lo = 1
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > maxBin {
			hi = maxBin
		}

		var sum float64
		for i := lo; i < hi; i++ {
			sum += spectrum[i]
		}
		out[b] = sum / float64(hi-lo)
	}
	return out
}

// renderBars maps band values onto one row of block glyphs, normalized to
// the loudest band.
func renderBars(bands []float64) string {
	lo, hi := bands[0], bands[0]
	for _, v := range bands {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span < 1e-12 {
		span = 1
	}

	var b strings.Builder
	for _, v := range bands {
		idx := int((v - lo) / span * float64(len(barChars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(barChars) {
			idx = len(barChars) - 1
		}
		b.WriteRune(barChars[idx])
		b.WriteRune(barChars[idx]) // double width reads better
	}
	return b.String()
}
