package diagnostics

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

const deftem = `{{ range .Lin }}{{ . }}
{{ end }}{{ if .War }}
warnings:
{{ range .War }}  {{ . }}
{{ end }}{{ end }}`

func (t *Table) mapping() map[string]interface{} {
	hea := []string{"", "", "score-m", "score-s"}
	if t.Tim {
		hea = append(hea, "ft-m", "ft-s", "pt-m", "pt-s")
	}

	cel := [][]string{hea}
	for _, r := range t.Row {
		c := []string{fmt.Sprintf("layer-%d", r.Lay), r.Est}

		if len(r.Sco) == 0 {
			c = append(c, "-", "-")
		} else {
			c = append(c, fmt.Sprintf("%.2f", r.ScoM), fmt.Sprintf("%.2f", r.ScoS))
		}

		if t.Tim {
			c = append(c, seconds(r.FitM), seconds(r.FitS), seconds(r.PreM), seconds(r.PreS))
		}

		cel = append(cel, c)
	}

	var war []string
	for _, w := range t.War {
		war = append(war, fmt.Sprintf("layer-%d %s fold %d: %s", w.Lay, w.Est, w.Fol, w.Err))
	}

	return map[string]interface{}{
		"Lin": lines(cel),
		"War": war,
	}
}

// lines pads all cells to their column's display width. The first two
// columns are left aligned, all numeric columns are right aligned.
func lines(cel [][]string) []string {
	var wid []int
	for _, r := range cel {
		for j, c := range r {
			if j >= len(wid) {
				wid = append(wid, 0)
			}
			if w := runewidth.StringWidth(c); w > wid[j] {
				wid[j] = w
			}
		}
	}

	var lin []string
	for _, r := range cel {
		var col []string
		for j, c := range r {
			if j < 2 {
				col = append(col, runewidth.FillRight(c, wid[j]))
			} else {
				col = append(col, runewidth.FillLeft(c, wid[j]))
			}
		}

		lin = append(lin, strings.TrimRight(strings.Join(col, "  "), " "))
	}

	return lin
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}
