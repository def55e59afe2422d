package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kass/geo-bounds/internal/bench"
	"github.com/kass/geo-bounds/pkg/rtree"
)

func (a *app) benchCmd() *cobra.Command {
	var (
		queryType string
		opts      bench.Options
		points    int
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark bounds calculation and index queries",
		Long: `Run random queries with a pool of workers and report throughput.
Query types: bounds, box, radius, nearest, mixed, or all. Uses the saved index
when it exists, otherwise indexes --points random places in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(queryType)
			if err != nil {
				return err
			}

			p := a.printer(cmd)
			index, err := a.benchIndex(p, points)
			if err != nil {
				return err
			}

			var results []bench.Result
			if !plain && p.color && isTerminal(os.Stdin) {
				results, err = runBenchTUI(index, opts, kinds)
			} else {
				results, err = runBenchPlain(p, index, opts, kinds)
			}
			if err != nil {
				return err
			}

			for _, r := range results {
				a.logger.Debug("benchmark complete",
					zap.String("kind", string(r.Kind)),
					zap.Int("queries", r.TotalQueries),
					zap.Float64("qps", r.QueriesPerSec),
				)
				printBenchResult(p, r)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&queryType, "type", "t", "all", "Query type: bounds, box, radius, nearest, mixed, all")
	flags.IntVarP(&opts.Queries, "queries", "q", 1000, "Number of queries per type")
	flags.IntVarP(&opts.Workers, "workers", "w", runtime.NumCPU(), "Number of concurrent workers")
	flags.Float64VarP(&opts.RadiusKm, "radius", "r", 50, "Radius in km for bounds and radius queries")
	flags.Float64Var(&opts.BoxSize, "box-size", 1, "Box size in degrees for box queries")
	flags.IntVarP(&opts.K, "neighbors", "k", 10, "Neighbors for nearest queries")
	flags.Float64Var(&opts.Region.MinLat, "min-lat", -90, "Minimum latitude of query centers")
	flags.Float64Var(&opts.Region.MaxLat, "max-lat", 90, "Maximum latitude of query centers")
	flags.Float64Var(&opts.Region.MinLng, "min-lng", -180, "Minimum longitude of query centers")
	flags.Float64Var(&opts.Region.MaxLng, "max-lng", 180, "Maximum longitude of query centers")
	flags.Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "Seed for random queries")
	flags.IntVarP(&points, "points", "p", 100000, "Random places to index when no index file exists")
	flags.BoolVar(&plain, "plain", false, "Plain progress output instead of the interactive view")
	return cmd
}

func parseKinds(s string) ([]bench.Kind, error) {
	if s == "all" {
		return bench.Kinds, nil
	}
	switch k := bench.Kind(s); k {
	case bench.KindBounds, bench.KindBox, bench.KindRadius, bench.KindNearest, bench.KindMixed:
		return []bench.Kind{k}, nil
	}
	return nil, fmt.Errorf("%w: %q", bench.ErrUnknownKind, s)
}

func (a *app) benchIndex(p *printer, points int) (*rtree.GeoIndex, error) {
	if _, err := os.Stat(a.cfg.Index.File); err == nil {
		index, err := a.loadIndex()
		if err != nil {
			return nil, err
		}
		p.info("Using index %s with %d places", a.cfg.Index.File, index.Count())
		return index, nil
	}

	index := a.newIndex()
	start := time.Now()
	if err := index.IndexPlaces(bench.RandomPlaces(points, time.Now().UnixNano())); err != nil {
		return nil, err
	}
	p.info("Indexed %d random places in %s", index.Count(), time.Since(start).Round(time.Millisecond))
	return index, nil
}

func runBenchPlain(p *printer, index *rtree.GeoIndex, opts bench.Options, kinds []bench.Kind) ([]bench.Result, error) {
	results := make([]bench.Result, 0, len(kinds))
	for _, kind := range kinds {
		opts.Kind = kind
		p.subtitle(fmt.Sprintf("Running %d %s queries with %d workers...", opts.Queries, kind, opts.Workers))

		r, err := bench.Run(index, opts, nil)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func printBenchResult(p *printer, r bench.Result) {
	p.success("%s queries", r.Kind)
	p.stat("total queries", r.TotalQueries)
	p.stat("total time", r.TotalDuration.Round(time.Microsecond))
	p.stat("queries per second", fmt.Sprintf("%.0f", r.QueriesPerSec))
	p.stat("average query time", r.AvgDuration)
	p.stat("min / max query time", fmt.Sprintf("%s / %s", r.MinDuration, r.MaxDuration))
	p.stat("average results per query", fmt.Sprintf("%.1f", r.AvgResults))
	p.stat("workers", r.Workers)
}

// interactive view

type benchProgressMsg float64

type benchResultMsg bench.Result

type benchErrMsg struct{ err error }

type benchModel struct {
	spinner  spinner.Model
	progress progress.Model
	opts     bench.Options
	kinds    []bench.Kind
	results  []bench.Result
	percent  float64
	err      error
	quit     bool
}

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#BD93F9")).
	Padding(0, 2)

func newBenchModel(opts bench.Options, kinds []bench.Kind) benchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	return benchModel{
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		opts:     opts,
		kinds:    kinds,
	}
}

func (m benchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m benchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = max(msg.Width-10, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case benchProgressMsg:
		m.percent = float64(msg)
		return m, m.progress.SetPercent(m.percent)

	case benchResultMsg:
		m.results = append(m.results, bench.Result(msg))
		m.percent = 0
		if len(m.results) == len(m.kinds) {
			return m, tea.Quit
		}
		return m, m.progress.SetPercent(0)

	case benchErrMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m benchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("geobounds benchmark"))
	b.WriteString("\n\n")

	for _, r := range m.results {
		b.WriteString(successStyle.Render(fmt.Sprintf("✓ %-8s %10.0f queries/sec", r.Kind, r.QueriesPerSec)))
		b.WriteString("\n")
	}

	if len(m.results) < len(m.kinds) && m.err == nil {
		kind := m.kinds[len(m.results)]
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(
			m.spinner.View() + fmt.Sprintf(" %d %s queries on %d workers\n\n", m.opts.Queries, kind, m.opts.Workers) +
				m.progress.ViewAs(m.percent),
		))
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press 'q' to quit"))
	b.WriteString("\n")
	return b.String()
}

func runBenchTUI(index *rtree.GeoIndex, opts bench.Options, kinds []bench.Kind) ([]bench.Result, error) {
	program := tea.NewProgram(newBenchModel(opts, kinds))

	go func() {
		for _, kind := range kinds {
			o := opts
			o.Kind = kind

			// report roughly every percent
			step := max(o.Queries/100, 1)
			r, err := bench.Run(index, o, func(done int) {
				if done%step == 0 {
					program.Send(benchProgressMsg(float64(done) / float64(o.Queries)))
				}
			})
			if err != nil {
				program.Send(benchErrMsg{err})
				return
			}
			program.Send(benchResultMsg(r))
		}
	}()

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("benchmark view: %w", err)
	}

	m := final.(benchModel)
	if m.err != nil {
		return nil, m.err
	}
	if m.quit {
		return m.results, fmt.Errorf("benchmark interrupted")
	}
	return m.results, nil
}
