package journal

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/template"
	"time"
)

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"num": func(format string, x float64) string {
		if math.IsNaN(x) {
			return "n/a"
		}
		return fmt.Sprintf(format, x)
	},
	"join": strings.Join,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// RenderOrg writes the run summary as an Org-mode entry.
func (r RunRecord) RenderOrg(w io.Writer) error {
	return runOrg.Execute(w, r)
}

// WriteOrg writes the Org-mode summary to r.OrgPath.
func (r RunRecord) WriteOrg() error {
	if r.OrgPath == "" {
		return fmt.Errorf("journal: run %s has no org path", r.RunID)
	}
	var buf bytes.Buffer
	if err := r.RenderOrg(&buf); err != nil {
		return err
	}
	return os.WriteFile(r.OrgPath, buf.Bytes(), 0644)
}

const RunOrgTemplate = `* BACKTEST: {{.Strategy}} on {{.Account}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:ACCOUNT:     {{.Account}}
:ASSETS:      {{join .Assets " "}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:STEPS:       {{.Steps}}
:CAPITAL:     {{num "%.2f" .InitialCapital}}
:END_EQUITY:  {{num "%.2f" .FinalEquity}}
:TRADES:      {{.Trades}}
:WIN_RATE:    {{num "%.2f" .WinRate}}
:NET_PROFIT:  {{num "%.2f" .NetProfit}}
:MAX_DD:      {{num "%.2f" .MaxDD}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
{{if .Params}}#+begin_src json
{{.Params}}
#+end_src{{else}}(none){{end}}

** Performance Summary
- Net Profit:       *{{num "%.2f" .NetProfit}}*
- Max Drawdown:     *{{num "%.2f" .MaxDD}}*
- Win Rate:         *{{num "%.2f" (mul100 .WinRate)}}%*
- Trades:           *{{.Trades}}*
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
