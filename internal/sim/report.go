package sim

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Interval is a confidence interval.
type Interval struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Report summarizes a simulation.
type Report struct {
	Runs      int           `json:"runs"`
	MaxSteps  int           `json:"maxSteps"`
	StartSize int           `json:"startSize"`
	TargetKey string        `json:"targetFnKey"`
	Wins      int           `json:"wins"`
	Fails     int           `json:"fails"`
	Limited   int           `json:"limited"`
	FailRate  float64       `json:"failRate"`
	MeanSteps float64       `json:"meanSteps"`
	StdSteps  float64       `json:"stdSteps"`
	StepsCI   Interval      `json:"stepsCI95"`
	MeanScore float64       `json:"meanScore"`
	Elapsed   time.Duration `json:"elapsed"`
	Results   []RunResult   `json:"results,omitempty"`
}

func newReport(opts Options, results []RunResult, elapsed time.Duration) *Report {
	r := &Report{
		Runs:      len(results),
		MaxSteps:  opts.MaxSteps,
		StartSize: opts.StartSize,
		TargetKey: opts.TargetKey,
		Elapsed:   elapsed,
		Results:   results,
	}

	steps := make([]float64, len(results))
	scores := make([]float64, len(results))
	for i, res := range results {
		steps[i] = float64(res.Steps)
		scores[i] = float64(res.Score)
		switch res.Outcome {
		case OutcomePass:
			r.Wins++
		case OutcomeLimit:
			r.Limited++
			r.Fails++
		default:
			r.Fails++
		}
	}
	if r.Runs == 0 {
		return r
	}

	r.FailRate = float64(r.Fails) / float64(r.Runs)
	r.MeanScore = stat.Mean(scores, nil)
	if r.Runs < 2 {
		r.MeanSteps = steps[0]
		r.StepsCI = Interval{Lo: r.MeanSteps, Hi: r.MeanSteps}
		return r
	}
	r.MeanSteps, r.StdSteps = stat.MeanStdDev(steps, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(r.Runs - 1)}.Quantile(0.975)
	half := t * r.StdSteps / math.Sqrt(float64(r.Runs))
	r.StepsCI = Interval{Lo: r.MeanSteps - half, Hi: r.MeanSteps + half}
	return r
}

// Render writes the report as a boxed two-column table.
func (r *Report) Render(w io.Writer) error {
	p := message.NewPrinter(language.English)
	keys := []string{"Runs", "Start Size", "Target", "Wins", "Fails", "Step Limit Hit", "Fail Rate", "Avg Steps", "Steps 95% CI", "Std Steps", "Avg Score", "Elapsed"}
	vals := map[string]string{
		"Runs":           p.Sprintf("%d", r.Runs),
		"Start Size":     p.Sprintf("%dx%d", r.StartSize, r.StartSize),
		"Target":         r.TargetKey,
		"Wins":           p.Sprintf("%d", r.Wins),
		"Fails":          p.Sprintf("%d", r.Fails),
		"Step Limit Hit": p.Sprintf("%d", r.Limited),
		"Fail Rate":      p.Sprintf("%.2f%%", 100*r.FailRate),
		"Avg Steps":      p.Sprintf("%.2f", r.MeanSteps),
		"Steps 95% CI":   p.Sprintf("[%.2f, %.2f]", r.StepsCI.Lo, r.StepsCI.Hi),
		"Std Steps":      p.Sprintf("%.3f", r.StdSteps),
		"Avg Score":      p.Sprintf("%.1f", r.MeanScore),
		"Elapsed":        r.Elapsed.Round(time.Millisecond).String(),
	}
	_, err := io.WriteString(w, formatTable("stage2048 simulation", keys, vals))
	return err
}

func formatTable(title string, keys []string, vals map[string]string) string {
	keyW, valW := 0, 0
	for _, k := range keys {
		keyW = max(keyW, runewidth.StringWidth(k))
		valW = max(valW, runewidth.StringWidth(vals[k]))
	}
	keyW += 2
	valW += 2
	inner := keyW + valW + 1
	if tw := runewidth.StringWidth(title) + 2; tw > inner {
		valW += tw - inner
		inner = tw
	}

	var b strings.Builder
	top := "+" + strings.Repeat("-", inner) + "+\n"
	divider := "+" + strings.Repeat("-", keyW) + "+" + strings.Repeat("-", valW) + "+\n"

	titleW := runewidth.StringWidth(title)
	left := (inner - titleW) / 2
	b.WriteString(top)
	fmt.Fprintf(&b, "|%s%s%s|\n", blank(left), title, blank(inner-titleW-left))
	b.WriteString(divider)
	for _, k := range keys {
		v := vals[k]
		fmt.Fprintf(&b, "| %s%s | %s%s |\n",
			k, blank(keyW-2-runewidth.StringWidth(k)),
			v, blank(valW-2-runewidth.StringWidth(v)))
	}
	b.WriteString(divider)
	return b.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
