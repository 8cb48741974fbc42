package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/quality"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/snapshot"
)

// maxWarnings caps the list so the message stays under Telegram's limit.
const maxWarnings = 20

var statusNames = map[joborders.Status]string{
	joborders.StatusNotStarted: "не начат",
	joborders.StatusInProgress: "в работе",
	joborders.StatusCompleted:  "выполнен",
}

var stageNames = map[rolls.Stage]string{
	rolls.StageNone:      "без замеров",
	rolls.StageExtruding: "экструзия",
	rolls.StagePrinting:  "печать",
	rolls.StageCutting:   "резка",
	rolls.StageCompleted: "готово",
}

func pct(v decimal.NullDecimal) string {
	if !v.Valid {
		return "—"
	}
	return v.Decimal.String() + "%"
}

func qty(v decimal.NullDecimal) string {
	if !v.Valid {
		return "—"
	}
	return v.Decimal.String()
}

func formatStatus(s snapshot.Snapshot) string {
	p := s.Production
	var sb strings.Builder
	fmt.Fprintf(&sb, "Сводка на %s\n\n", s.LastUpdated.Local().Format("02.01.2006 15:04"))
	fmt.Fprintf(&sb, "Заказов в работе: %d\n", p.ActiveJobOrders)
	fmt.Fprintf(&sb, "Экструдировано: %s\n", p.ExtrudedQty)
	fmt.Fprintf(&sb, "Произведено: %s\n", p.ProducedQty)
	fmt.Fprintf(&sb, "Отход: %s\n", p.WasteQty)
	fmt.Fprintf(&sb, "Принято складом: %s\n", p.ReceivedQty)
	fmt.Fprintf(&sb, "Доступно к приёмке: %s\n", p.AvailableQty)

	if len(s.Machines) > 0 {
		sb.WriteString("\nОборудование:\n")
		for _, m := range s.Machines {
			fmt.Fprintf(&sb, "• %s: рулонов %d, в очереди %d\n", m.Name, m.RollsProcessed, m.Pending)
		}
	}
	if n := len(s.Warnings); n > 0 {
		fmt.Fprintf(&sb, "\n⚠️ Предупреждений по замерам: %d", n)
	}
	return sb.String()
}

func formatSummary(s joborders.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Заказ %d — %s (%s)\n", s.JobOrderID, s.Item, statusNames[s.Status])
	fmt.Fprintf(&sb, "План: %s, произведено: %s (%s)\n", s.TargetQty, s.ProducedQty, pct(s.ProgressPercent))
	fmt.Fprintf(&sb, "Отход: %s (%s)\n", qty(s.WasteQty), pct(s.WastePercent))
	fmt.Fprintf(&sb, "Отход резки: %s (%s)\n", qty(s.CuttingWaste), pct(s.CuttingWastePercent))
	fmt.Fprintf(&sb, "Принято: %s, доступно: %s\n", s.ReceivedQty, s.AvailableQty)
	fmt.Fprintf(&sb, "Рулонов: %d", s.RollCount)
	for _, st := range rolls.Stages {
		if n := s.StageBreakdown[st]; n > 0 {
			fmt.Fprintf(&sb, "\n• %s: %d", stageNames[st], n)
		}
	}
	return sb.String()
}

func formatWarnings(ws []quality.Warning) string {
	if len(ws) == 0 {
		return "Предупреждений нет."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Предупреждения (%d):", len(ws))
	for i, w := range ws {
		if i == maxWarnings {
			fmt.Fprintf(&sb, "\n…и ещё %d", len(ws)-maxWarnings)
			break
		}
		sb.WriteString("\n• ")
		sb.WriteString(w.Text())
	}
	return sb.String()
}
