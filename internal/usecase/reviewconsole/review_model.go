package reviewconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"insiden/internal/bootstrap/logging"
	domainincident "insiden/internal/domain/incident"
	"insiden/internal/ports"
	incidentusecase "insiden/internal/usecase/incident"
)

const maxShownAudit = 5
const maxActionLines = 8

// ReviewOptions configures the interactive review queue. Scope decides which
// lifecycle stage the queue shows and which review action the console records.
type ReviewOptions struct {
	Actor           ports.Actor
	Scope           string
	RefreshInterval time.Duration
}

type reviewModel struct {
	ctx             context.Context
	service         *incidentusecase.Service
	actor           ports.Actor
	scope           string
	queueStatus     domainincident.IncidentStatus
	refreshInterval time.Duration

	incidents     []ports.IncidentRecord
	selectedIndex int
	detail        incidentusecase.IncidentDetail
	hasDetail     bool
	statusHint    string
	hasStatusHint bool
	categoryIndex int
	status        string
	actionLog     []string
}

type incidentsLoadedMsg struct {
	items []ports.IncidentRecord
	err   error
}

type detailLoadedMsg struct {
	incidentID    int64
	detail        incidentusecase.IncidentDetail
	statusHint    string
	hasStatusHint bool
	err           error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action     string
	incidentID int64
	result     string
	err        error
}

func NewReviewModel(ctx context.Context, service *incidentusecase.Service, options ReviewOptions) tea.Model {
	scope := normalizeScope(options.Scope, options.Actor.Roles)
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &reviewModel{
		ctx:             ctx,
		service:         service,
		actor:           options.Actor,
		scope:           scope,
		queueStatus:     queueStatusForScope(scope),
		refreshInterval: interval,
		status:          "memuat antrean",
	}
}

func (m *reviewModel) Init() tea.Cmd {
	return tea.Batch(m.loadIncidentsCmd(), m.tickCmd())
}

func (m *reviewModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadIncidentsCmd(), m.tickCmd())
	case incidentsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh gagal: " + msg.err.Error()
			return m, nil
		}
		m.incidents = msg.items
		if len(m.incidents) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.hasStatusHint = false
			m.status = "antrean kosong"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.incidents) {
			m.selectedIndex = len(m.incidents) - 1
		}
		m.status = fmt.Sprintf("antrean diperbarui, %d insiden", len(m.incidents))
		return m, m.loadSelectedDetailCmd()
	case detailLoadedMsg:
		if !m.isCurrentSelection(msg.incidentID) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.hasStatusHint = false
			m.status = "detail gagal dimuat: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		m.statusHint = msg.statusHint
		m.hasStatusHint = msg.hasStatusHint
		m.syncCategoryIndex()
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s gagal: %v", msg.action, msg.err)
			m.appendActionLog(msg.action, msg.incidentID, "failed", msg.err)
		} else {
			m.status = fmt.Sprintf("%s selesai: %s", msg.action, msg.result)
			m.appendActionLog(msg.action, msg.incidentID, msg.result, nil)
		}
		return m, m.loadIncidentsCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "memuat ulang"
			return m, m.loadIncidentsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.incidents)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "left", "h":
			m.cycleCategory(-1)
			return m, nil
		case "right", "l":
			m.cycleCategory(1)
			return m, nil
		case "a":
			return m, m.reviewCmd()
		case "x":
			return m, m.closeCmd()
		}
	}
	return m, nil
}

func (m *reviewModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Konsol Review Insiden"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"scope=%s queue=%s actor=%s roles=%s refresh=%s",
		m.scope,
		m.queueStatus,
		firstNonEmpty(m.actor.Email, fmt.Sprintf("user-%d", m.actor.ID)),
		strings.Join(m.actor.Roles, ","),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Antrean"))
	builder.WriteString("\n")
	if len(m.incidents) == 0 {
		builder.WriteString(dimStyle.Render("- tidak ada insiden"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.incidents {
			predicted := "-"
			if item.PredictedCategory != nil {
				predicted = item.PredictedCategory.String()
			}
			line := fmt.Sprintf(
				"#%d [%s] prediksi=%s pelapor=%d %s",
				item.ID,
				item.Status,
				predicted,
				item.ReporterID,
				truncate(item.FreeTextDescription, 48),
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- tidak ada detail"))
		builder.WriteString("\n\n")
	} else {
		rec := m.detail.Incident
		builder.WriteString(fmt.Sprintf("Insiden: #%d\n", rec.ID))
		builder.WriteString(fmt.Sprintf("Status: %s\n", rec.Status))
		if m.hasStatusHint {
			builder.WriteString(fmt.Sprintf("Cache: %s\n", m.statusHint))
		}
		builder.WriteString(fmt.Sprintf("Kejadian: %s\n", rec.OccurredAt.Format(time.RFC3339)))
		if rec.PredictedCategory != nil {
			confidence := 0.0
			if rec.PredictedConfidence != nil {
				confidence = *rec.PredictedConfidence
			}
			builder.WriteString(fmt.Sprintf("Prediksi: %s (%.2f)\n", rec.PredictedCategory, confidence))
		}
		if rec.FinalCategory != nil {
			builder.WriteString(fmt.Sprintf("Kategori final: %s\n", rec.FinalCategory))
		}
		builder.WriteString(fmt.Sprintf("Kategori pilihan: %s\n", m.selectedCategory()))
		builder.WriteString(fmt.Sprintf("Deskripsi: %s\n", truncate(rec.FreeTextDescription, 120)))
		builder.WriteString("\nJejak audit terakhir:\n")
		audit := m.detail.Audit
		if len(audit) == 0 {
			builder.WriteString("- kosong\n")
		} else {
			start := len(audit) - maxShownAudit
			if start < 0 {
				start = 0
			}
			for _, entry := range audit[start:] {
				from := "-"
				if entry.FromStatus != nil {
					from = entry.FromStatus.String()
				}
				builder.WriteString(fmt.Sprintf("- a%d aktor=%d %s -> %s\n", entry.ID, entry.ActorID, from, entry.ToStatus))
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "siap"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Aksi"))
	builder.WriteString("\n")
	builder.WriteString("- ←/h →/l pilih kategori\n")
	builder.WriteString("- a catat review dengan kategori terpilih\n")
	builder.WriteString("- x tutup insiden\n")
	builder.WriteString("\n")

	builder.WriteString(sectionStyle.Render("Log Aksi"))
	builder.WriteString("\n")
	if len(m.actionLog) == 0 {
		builder.WriteString(dimStyle.Render("- belum ada aksi"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.actionLog {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Tombol: ↑/k ↓/j pindah  g refresh  a/x aksi  q keluar"))
	return builder.String()
}

func (m *reviewModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *reviewModel) loadIncidentsCmd() tea.Cmd {
	return func() tea.Msg {
		status := m.queueStatus.String()
		out, err := m.service.ListIncidents(m.ctx, incidentusecase.ListInput{
			Actor:   m.actor,
			Status:  &status,
			Page:    1,
			PerPage: 50,
		})
		if err != nil {
			return incidentsLoadedMsg{err: err}
		}
		return incidentsLoadedMsg{items: out.Items}
	}
}

func (m *reviewModel) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedIncident()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		detail, err := m.service.GetIncident(m.ctx, selected.ID, m.actor)
		if err != nil {
			return detailLoadedMsg{incidentID: selected.ID, err: err}
		}
		hint, found := m.service.IncidentStatusHint(m.ctx, selected.ID)
		return detailLoadedMsg{
			incidentID:    selected.ID,
			detail:        detail,
			statusHint:    hint,
			hasStatusHint: found,
		}
	}
}

func (m *reviewModel) reviewCmd() tea.Cmd {
	selected, ok := m.selectedIncident()
	if !ok {
		m.status = "tidak ada insiden terpilih"
		return nil
	}
	category := m.selectedCategory().String()
	scope := m.scope
	m.status = "mencatat review..."
	return func() tea.Msg {
		notes := "ditinjau melalui konsol"
		input := incidentusecase.ReviewInput{
			IncidentID: selected.ID,
			Actor:      m.actor,
			Category:   category,
			Notes:      &notes,
		}

		var (
			updated ports.IncidentRecord
			err     error
		)
		if scope == "mutu" {
			updated, err = m.service.MutuReview(m.ctx, input)
		} else {
			updated, err = m.service.PJReview(m.ctx, input)
		}
		if err != nil {
			return actionDoneMsg{action: "review", incidentID: selected.ID, err: err}
		}
		return actionDoneMsg{
			action:     "review",
			incidentID: selected.ID,
			result:     fmt.Sprintf("%s (%s)", updated.Status, category),
		}
	}
}

func (m *reviewModel) closeCmd() tea.Cmd {
	selected, ok := m.selectedIncident()
	if !ok {
		m.status = "tidak ada insiden terpilih"
		return nil
	}
	m.status = "menutup insiden..."
	return func() tea.Msg {
		closed, err := m.service.Close(m.ctx, incidentusecase.CloseInput{
			IncidentID: selected.ID,
			Actor:      m.actor,
		})
		if err != nil {
			return actionDoneMsg{action: "close", incidentID: selected.ID, err: err}
		}
		return actionDoneMsg{action: "close", incidentID: selected.ID, result: closed.Status.String()}
	}
}

func (m *reviewModel) selectedIncident() (ports.IncidentRecord, bool) {
	if len(m.incidents) == 0 {
		return ports.IncidentRecord{}, false
	}
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.incidents) {
		return ports.IncidentRecord{}, false
	}
	return m.incidents[m.selectedIndex], true
}

func (m *reviewModel) isCurrentSelection(incidentID int64) bool {
	selected, ok := m.selectedIncident()
	if !ok {
		return false
	}
	return selected.ID == incidentID
}

func (m *reviewModel) selectedCategory() domainincident.IncidentCategory {
	categories := domainincident.AllCategories()
	if m.categoryIndex < 0 || m.categoryIndex >= len(categories) {
		return categories[0]
	}
	return categories[m.categoryIndex]
}

func (m *reviewModel) cycleCategory(step int) {
	categories := domainincident.AllCategories()
	m.categoryIndex = (m.categoryIndex + step + len(categories)) % len(categories)
}

// syncCategoryIndex preselects the predicted category so a bare "a" keystroke
// confirms the model's suggestion.
func (m *reviewModel) syncCategoryIndex() {
	if !m.hasDetail || m.detail.Incident.PredictedCategory == nil {
		return
	}
	predicted := *m.detail.Incident.PredictedCategory
	for index, category := range domainincident.AllCategories() {
		if category == predicted {
			m.categoryIndex = index
			return
		}
	}
}

func (m *reviewModel) appendActionLog(action string, incidentID int64, result string, opErr error) {
	outcome := strings.TrimSpace(result)
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}
	if outcome == "" {
		outcome = "ok"
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s aktor=%d insiden=%d aksi=%s hasil=%s", timestamp, m.actor.ID, incidentID, action, outcome)
	m.actionLog = append([]string{line}, m.actionLog...)
	if len(m.actionLog) > maxActionLines {
		m.actionLog = m.actionLog[:maxActionLines]
	}

	logging.Info(m.ctx, "review console action",
		slog.String("time", timestamp),
		slog.Int64("actor_id", m.actor.ID),
		slog.Int64("incident_id", incidentID),
		slog.String("action", action),
		slog.String("result", outcome),
	)
}

func normalizeScope(input string, roles []string) string {
	value := strings.TrimSpace(strings.ToLower(input))
	switch value {
	case "pj", "mutu":
		return value
	}
	if domainincident.HasAnyRole(roles, domainincident.RoleMutu) {
		return "mutu"
	}
	return "pj"
}

func queueStatusForScope(scope string) domainincident.IncidentStatus {
	if scope == "mutu" {
		return domainincident.StatusPJReviewed
	}
	return domainincident.StatusSubmitted
}

func truncate(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized != "" {
			return normalized
		}
	}
	return ""
}
