package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/msgward/msgward/internal/core"
)

// FormatDecision renders an abuse decision as a table.
func FormatDecision(decision core.AbuseDecision) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})

	t.AppendRow(table.Row{"Allowed", decision.Allowed})
	t.AppendRow(table.Row{"Risk Score", decision.RiskScore})
	if decision.Reason != "" {
		t.AppendRow(table.Row{"Reason", decision.Reason})
	}
	if decision.RetryAfter > 0 {
		t.AppendRow(table.Row{"Retry After", decision.RetryAfter.Round(time.Second)})
	}
	if decision.RequiresChallenge {
		t.AppendRow(table.Row{"Challenge", decision.ChallengeType})
		t.AppendRow(table.Row{"Challenge Reason", decision.ChallengeReason})
	}

	return t.Render()
}

// FormatEntries renders ledger entries as a table.
func FormatEntries(entries []core.RateLimitEntry) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Created", "IP", "Org", "Channel", "Outcome", "Risk", "Reason"})

	for _, entry := range entries {
		t.AppendRow(table.Row{
			entry.ID,
			entry.CreatedAt.Format(time.RFC3339),
			entry.IPAddress,
			entry.OrganizationID,
			string(entry.Channel),
			string(entry.Outcome),
			entry.RiskScore,
			entry.Reason,
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", "", "", "", fmt.Sprintf("%d entries", len(entries))})
	return t.Render()
}

// FormatOrganizations renders tenant records as a table.
func FormatOrganizations(orgs []core.Organization) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Name", "Tier", "Updated"})

	for _, org := range orgs {
		t.AppendRow(table.Row{
			org.ID,
			org.Name,
			string(org.Tier),
			org.UpdatedAt.Format(time.RFC3339),
		})
	}

	return t.Render()
}

// FormatAudit renders audit records as a table.
func FormatAudit(entries []core.AuditEntry) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Created", "Org", "Channel", "IP", "Outcome", "Risk", "Reason"})

	for _, entry := range entries {
		t.AppendRow(table.Row{
			entry.ID,
			entry.CreatedAt.Format(time.RFC3339),
			entry.OrganizationID,
			string(entry.Channel),
			entry.IPAddress,
			string(entry.Outcome),
			entry.RiskScore,
			entry.Reason,
		})
	}

	return t.Render()
}
