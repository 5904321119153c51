package ui

import (
	"fmt"
	"strings"

	"github.com/five82/tminus/internal/countdown"
	"github.com/five82/tminus/internal/notice"
)

const maxNoticeLines = 3

// renderNotices renders the newest notices, one per line.
func (m Model) renderNotices() string {
	if len(m.notices) == 0 {
		return ""
	}
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)

	shown := m.notices
	if len(shown) > maxNoticeLines {
		shown = shown[:maxNoticeLines]
	}
	lines := make([]string, 0, len(shown)+1)
	for _, n := range shown {
		lines = append(lines, bg.FillLine(m.noticeLine(n, styles, bg), m.width))
	}
	if extra := len(m.notices) - len(shown); extra > 0 {
		more := bg.Render(fmt.Sprintf("+%d more", extra), styles.FaintText)
		lines = append(lines, bg.FillLine(more, m.width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) noticeLine(n notice.Notice, styles Styles, bg BgStyle) string {
	marker := bg.Render("!", styles.WarningText.Bold(true))
	if countdown.Skipped(n.Err) {
		marker = bg.Render("✗", styles.DangerText)
	}
	prefix := ""
	if n.Card != "" {
		prefix = "[" + n.Card + "] "
	}
	text := truncate(prefix+n.Message, m.width-14)
	age := bg.Render(n.Raised.Format("15:04:05"), styles.FaintText)
	return bg.Space() + marker + bg.Space() + age + bg.Space() + bg.Render(text, styles.Text)
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
