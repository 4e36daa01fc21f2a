package render

import (
	"fmt"
	"strings"

	"github.com/moddy-app/moddysystems/internal/domain"
)

// Status glyphs by color class.
const (
	glyphRed   = "🔴"
	glyphAmber = "🟠"
	glyphGreen = "🟢"
)

func glyph(status domain.ReportStatus) string {
	switch status.Color() {
	case domain.ColorGreen:
		return glyphGreen
	case domain.ColorAmber:
		return glyphAmber
	}
	return glyphRed
}

// StatusLabel renders a status value for display: underscores become
// spaces, words are title-cased.
func StatusLabel(status domain.ReportStatus) string {
	words := strings.Split(string(status), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Report renders a status report into its display payload: header, field
// list, separator, updates, footer.
func Report(r *domain.StatusReport) Blocks {
	blocks := Blocks{Text(reportHeader(r) + "\n" + strings.Join(reportFields(r), "\n"))}
	blocks = append(blocks, Separator())
	blocks = append(blocks, Text(reportUpdates(r)))
	blocks = append(blocks, Text(reportFooter(r)))
	return blocks
}

func reportHeader(r *domain.StatusReport) string {
	g := glyph(r.Status)
	if r.Kind == domain.KindMaintenance {
		switch r.Status {
		case domain.StatusCompleted:
			return fmt.Sprintf("%s **Maintenance: %s — Completed**", g, r.Title)
		case domain.StatusCancelled:
			return fmt.Sprintf("%s **Maintenance: %s — Cancelled**", g, r.Title)
		}
		return fmt.Sprintf("%s **Scheduled Maintenance: %s**", g, r.Title)
	}
	if r.Status == domain.StatusResolved {
		if r.TotalDuration != "" {
			return fmt.Sprintf("%s **%s — Resolved (%s)**", g, r.Title, r.TotalDuration)
		}
		return fmt.Sprintf("%s **%s — Resolved**", g, r.Title)
	}
	return fmt.Sprintf("%s **%s**", g, r.Title)
}

func reportFields(r *domain.StatusReport) []string {
	var fields []string
	if r.Kind == domain.KindMaintenance {
		fields = append(fields,
			fmt.Sprintf("* **Description:** %s", r.Description),
			"* **Type:** `Maintenance`",
			fmt.Sprintf("* **Affected services:** `%s`", r.Services),
			fmt.Sprintf("* **Status:** `%s`", StatusLabel(r.Status)),
		)
		if r.ScheduledTime > 0 {
			fields = append(fields, fmt.Sprintf("* **Scheduled time:** <t:%d:F>", r.ScheduledTime))
		}
		if r.Duration != "" {
			fields = append(fields, fmt.Sprintf("* **Expected duration:** `%s`", r.Duration))
		}
	} else {
		fields = append(fields,
			fmt.Sprintf("* **Issue:** %s", r.Issue),
			"* **Type:** `Incident`",
		)
		if r.Severity != "" {
			fields = append(fields, fmt.Sprintf("* **Severity:** `%s`", r.Severity))
		}
		fields = append(fields,
			fmt.Sprintf("* **Affected services:** `%s`", r.Services),
			fmt.Sprintf("* **Status:** `%s`", StatusLabel(r.Status)),
			fmt.Sprintf("* **ETA:** `%s`", incidentETA(r)),
		)
		if r.StartTime > 0 {
			fields = append(fields, fmt.Sprintf("* **Started:** <t:%d:F>", r.StartTime))
		}
	}
	if r.StatusLink != "" {
		fields = append(fields, fmt.Sprintf("* **Status link:** %s", r.StatusLink))
	}
	if r.StatusID != "" {
		fields = append(fields, fmt.Sprintf("* **Status ID:** `%s`", r.StatusID))
	}
	return fields
}

func incidentETA(r *domain.StatusReport) string {
	if r.Status == domain.StatusResolved {
		return "Resolved"
	}
	if r.ETA != "" {
		return r.ETA
	}
	return "TBD"
}

func reportUpdates(r *domain.StatusReport) string {
	if len(r.Updates) == 0 {
		return "*No updates yet*"
	}
	lines := make([]string, 0, len(r.Updates))
	for _, upd := range r.Updates {
		lines = append(lines, fmt.Sprintf(
			"> **Update %d — %s, <t:%d:R>:**\n> %s",
			upd.Number, StatusLabel(upd.Status), upd.Timestamp, upd.Description,
		))
	}
	return strings.Join(lines, "\n")
}

func reportFooter(r *domain.StatusReport) string {
	if len(r.Mentions) > 0 {
		return "-# " + strings.Join(r.Mentions, " ")
	}
	return "-# Status updates"
}
