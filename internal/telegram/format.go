package telegram

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

// maxButtonTitle caps the job title shown on inline buttons.
const maxButtonTitle = 20

// FormatJob renders one posting as a Markdown message body.
func FormatJob(job jobs.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧰 *%s* @ %s\n", job.Title, job.Company)
	if job.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", job.Location)
	}
	salary := job.SalaryText
	if salary == "" {
		salary = "not listed"
	}
	fmt.Fprintf(&b, "💷 Salary: %s\n", salary)
	fmt.Fprintf(&b, "🔎 Relevance: %.2f\n", job.CVScore)
	fmt.Fprintf(&b, "🔗 [Apply](%s)", job.URL)
	return b.String()
}

// buttonTitle truncates a job title for button labels, rune-safe.
func buttonTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxButtonTitle {
		return title
	}
	return string(runes[:maxButtonTitle]) + "…"
}

const helpText = `/start - start the bot
/help - this help message
/status - pipeline and system status
/sendjobs - scrape and send the next batch now
/test - send one job immediately
/report - system health report`
